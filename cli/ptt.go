package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avnlearn/manim-recorder/audio"
	"github.com/avnlearn/manim-recorder/config"
	"github.com/avnlearn/manim-recorder/hotkey"
	"github.com/avnlearn/manim-recorder/log"
	"github.com/avnlearn/manim-recorder/player"
	"github.com/avnlearn/manim-recorder/session"
)

const longPress = 300 * time.Millisecond

// PTT is the push-to-talk front-end: the global record key drives a
// session, the TUI shows the prompt and level, and every take goes
// through a listen/retake/accept review before it counts.
type PTT struct {
	cfg    config.Config
	actx   audio.Context
	device *audio.DeviceInfo
	hk     hotkey.Hotkey
	hybrid *hotkey.Hybrid

	reviewKeys chan string
	uiDone     chan struct{}
}

func NewPTT(cfg config.Config) (*PTT, error) {
	actx, err := audio.NewContext()
	if err != nil {
		return nil, fmt.Errorf("open audio backend: %w", err)
	}

	// Pick the device before the TUI takes over the terminal.
	var device *audio.DeviceInfo
	if cfg.DeviceName != "" {
		device, err = audio.FindDevice(actx, cfg.DeviceName)
	} else {
		device, err = audio.SelectDevice(actx)
	}
	if err != nil {
		actx.Close()
		return nil, err
	}

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		actx.Close()
		return nil, fmt.Errorf("register record key: %w", err)
	}

	return &PTT{
		cfg:        cfg,
		actx:       actx,
		device:     device,
		hk:         hk,
		hybrid:     hotkey.NewHybrid(hk, longPress),
		reviewKeys: make(chan string, 1),
		uiDone:     make(chan struct{}),
	}, nil
}

func (p *PTT) Close() {
	p.hk.Unregister()
	p.actx.Close()
}

// RunUI runs the terminal interface until the user quits. It blocks,
// so callers drive Record from another goroutine.
func (p *PTT) RunUI(ctx context.Context) error {
	program := NewTUIProgram(p.reviewKeys)
	setTUIProgram(program)
	defer setTUIProgram(nil)
	defer close(p.uiDone)

	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	deviceName := "default input device"
	if p.device != nil {
		deviceName = p.device.Name
	}
	go func() {
		sendTUI(DeviceLineMsg{Text: deviceName + " | " + p.cfg.Format})
	}()

	_, err := program.Run()
	return err
}

// Record implements voiceover.Recorder. It loops until a take is
// accepted in review, or the UI shuts down.
func (p *PTT) Record(dir, prompt string) (string, error) {
	sendTUI(PromptMsg{Text: prompt})
	defer sendTUI(PromptMsg{})

	for {
		select {
		case <-p.hybrid.Start():
		case <-p.uiDone:
			return "", errors.New("interface closed before a take was accepted")
		}

		art, err := p.captureTake(dir)
		if errors.Is(err, session.ErrEmptyRecording) {
			sendTUI(StatusMsg{Text: "empty take, hold the key a little longer"})
			continue
		}
		if err != nil {
			return "", err
		}

		sendTUI(ReviewMsg{Path: art.Path, DurationSeconds: art.DurationSeconds})
		if p.review(art.Path) {
			sendTUI(TakeSavedMsg{Path: art.Path, DurationSeconds: art.DurationSeconds})
			log.Take(art.Path, art.DurationSeconds)
			return filepath.Base(art.Path), nil
		}
		os.Remove(art.Path)
		sendTUI(StatusMsg{Text: "take discarded, record again"})
	}
}

func (p *PTT) captureTake(dir string) (*session.Artifact, error) {
	m := session.NewManager(p.actx, session.Config{
		OutputDir:      dir,
		SampleRate:     p.cfg.SampleRate,
		Channels:       p.cfg.Channels,
		Format:         p.cfg.Format,
		Device:         p.device,
		MaxDuration:    p.cfg.MaxDuration,
		SilenceTimeout: p.cfg.SilenceTimeout,
		OnLevel: func(rms float64) {
			sendTUI(AudioLevelMsg{Level: rms})
		},
	})
	if err := m.Start(); err != nil {
		return nil, err
	}
	player.StartCue()
	sendTUI(RecordingStartMsg{})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				sendTUI(RecordingTickMsg{Duration: m.Elapsed().Seconds()})
			}
		}
	}()

	// The key releases the take; silence or the duration cap may end
	// it first.
	waitStop := func() {
		for {
			select {
			case <-p.hybrid.StopChan():
				return
			case ev := <-m.Events():
				switch ev {
				case session.EventSilenceWarn:
					sendTUI(StatusMsg{Text: "still rolling, no speech detected"})
				case session.EventSilenceCleared:
					sendTUI(StatusMsg{})
				case session.EventAutoStop:
					return
				}
			}
		}
	}
	waitStop()

	player.StopCue()
	return m.Stop()
}

func (p *PTT) review(path string) bool {
	for {
		select {
		case key := <-p.reviewKeys:
			switch key {
			case "l":
				if err := player.Play(context.Background(), path); err != nil {
					sendTUI(StatusMsg{Text: "playback failed: " + err.Error()})
				}
			case "a":
				return true
			case "r":
				return false
			}
		case <-p.uiDone:
			// UI went away mid-review: keep the take.
			return true
		}
	}
}
