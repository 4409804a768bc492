package hotkey

import (
	"sync/atomic"
	"time"
)

type Mode string

const (
	ModeHold   Mode = "hold"
	ModeToggle Mode = "toggle"
)

// StartEvent signals that a take should start.
type StartEvent struct {
	Mode Mode
}

// Hybrid layers tap-to-toggle and hold-to-talk on one key: a tap arms
// a take until the next tap, a hold records for as long as the key is
// down. The mode is only known once the press resolves, so Start fires
// immediately and Mode reports the decision afterwards.
type Hybrid struct {
	startCh chan StartEvent
	stopCh  chan struct{}
	toggled atomic.Bool
}

// NewHybrid builds a Hybrid controller on top of an existing Hotkey.
// longPress is the hold duration past which a press counts as
// hold-to-talk rather than a tap.
func NewHybrid(hk Hotkey, longPress time.Duration) *Hybrid {
	h := &Hybrid{
		startCh: make(chan StartEvent, 1),
		stopCh:  make(chan struct{}, 1),
	}
	go h.run(hk, longPress)
	return h
}

func (h *Hybrid) Start() <-chan StartEvent { return h.startCh }

// StopChan signals that the running take should stop, in either mode.
func (h *Hybrid) StopChan() <-chan struct{} { return h.stopCh }

// IsToggle reports whether the current take was armed by a tap.
func (h *Hybrid) IsToggle() bool { return h.toggled.Load() }

func (h *Hybrid) run(hk Hotkey, longPress time.Duration) {
	for {
		<-hk.Keydown()
		h.toggled.Store(false)
		h.startCh <- StartEvent{Mode: ModeHold}

		timer := time.NewTimer(longPress)
		select {
		case <-timer.C:
			// Held past the threshold: stop on release.
			<-hk.Keyup()
			h.signalStop()
		case <-hk.Keyup():
			// Tap: armed until the next press+release.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			h.toggled.Store(true)
			<-hk.Keydown()
			<-hk.Keyup()
			h.signalStop()
		}
	}
}

func (h *Hybrid) signalStop() {
	select {
	case h.stopCh <- struct{}{}:
	default:
	}
}
