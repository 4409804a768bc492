package session

import (
	"testing"
	"time"
)

const testRate = 16000

func feedQuiet(m *silenceMonitor, seconds float64) silenceEvent {
	frames := uint64(seconds * testRate)
	const chunk = 1024
	last := silenceNone
	for frames > 0 {
		n := uint64(chunk)
		if n > frames {
			n = frames
		}
		if ev := m.Feed(n, 0.0); ev != silenceNone {
			last = ev
		}
		frames -= n
	}
	return last
}

func TestSilenceWarnAfterEightSeconds(t *testing.T) {
	m := newSilenceMonitor(testRate, 0)

	if ev := feedQuiet(m, 7.9); ev != silenceNone {
		t.Fatalf("event before threshold = %v", ev)
	}
	if ev := feedQuiet(m, 0.2); ev != silenceWarn {
		t.Fatalf("event at threshold = %v, want warn", ev)
	}
	// Warning fires once.
	if ev := feedQuiet(m, 1.0); ev != silenceNone {
		t.Fatalf("repeated warn = %v", ev)
	}
}

func TestSpeechClearsWarning(t *testing.T) {
	m := newSilenceMonitor(testRate, 0)
	feedQuiet(m, 9)

	if ev := m.Feed(1024, 0.2); ev != silenceCleared {
		t.Fatalf("event on speech = %v, want cleared", ev)
	}
	// Run is reset: another full window is needed before re-warning.
	if ev := feedQuiet(m, 7.9); ev != silenceNone {
		t.Fatalf("event after reset = %v", ev)
	}
	if ev := feedQuiet(m, 0.2); ev != silenceWarn {
		t.Fatalf("event at second threshold = %v, want warn", ev)
	}
}

func TestAutoStopOnlyWhenConfigured(t *testing.T) {
	unbounded := newSilenceMonitor(testRate, 0)
	if ev := feedQuiet(unbounded, 60); ev == silenceAutoStop {
		t.Fatal("auto-stop fired without a timeout")
	}

	bounded := newSilenceMonitor(testRate, 30*time.Second)
	if ev := feedQuiet(bounded, 29.9); ev == silenceAutoStop {
		t.Fatal("auto-stop fired early")
	}
	if ev := feedQuiet(bounded, 0.2); ev != silenceAutoStop {
		t.Fatalf("event at timeout = %v, want auto-stop", ev)
	}
}

func TestSpeechResetsAutoStopRun(t *testing.T) {
	m := newSilenceMonitor(testRate, 10*time.Second)
	feedQuiet(m, 9)
	m.Feed(1024, 0.2)
	if ev := feedQuiet(m, 9); ev == silenceAutoStop {
		t.Fatal("auto-stop fired despite intervening speech")
	}
}
