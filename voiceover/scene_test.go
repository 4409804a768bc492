package voiceover

import (
	"math"
	"strings"
	"testing"
)

func TestVoiceoverAdvancesSceneClock(t *testing.T) {
	rec := &fakeRecorder{seconds: 1.5, rate: 16000}
	scene := NewScene(newTestService(t, rec, 1.0))

	err := scene.Voiceover("first narration", func(tr *Tracker) error {
		if tr.StartSeconds != 0 {
			t.Errorf("StartSeconds = %v, want 0", tr.StartSeconds)
		}
		if math.Abs(tr.DurationSeconds-1.5) > 0.01 {
			t.Errorf("DurationSeconds = %v, want ~1.5", tr.DurationSeconds)
		}
		// A short animation inside the block must not shorten the wait.
		scene.Advance(0.5)
		return nil
	})
	if err != nil {
		t.Fatalf("Voiceover: %v", err)
	}
	if math.Abs(scene.Time()-1.5) > 0.01 {
		t.Errorf("scene time = %v, want ~1.5", scene.Time())
	}

	err = scene.Voiceover("second narration", func(tr *Tracker) error {
		if math.Abs(tr.StartSeconds-1.5) > 0.01 {
			t.Errorf("second StartSeconds = %v, want ~1.5", tr.StartSeconds)
		}
		// Animation longer than the narration keeps the clock.
		scene.Advance(3.0)
		return nil
	})
	if err != nil {
		t.Fatalf("Voiceover: %v", err)
	}
	if math.Abs(scene.Time()-4.5) > 0.01 {
		t.Errorf("scene time = %v, want ~4.5", scene.Time())
	}
}

func TestTrackerRemaining(t *testing.T) {
	tr := &Tracker{StartSeconds: 2.0, DurationSeconds: 3.0}
	if got := tr.Remaining(2.0, 0); got != 3.0 {
		t.Errorf("Remaining at start = %v, want 3.0", got)
	}
	if got := tr.Remaining(4.0, 0.5); got != 1.5 {
		t.Errorf("Remaining with buff = %v, want 1.5", got)
	}
	if got := tr.Remaining(10.0, 0); got != 0 {
		t.Errorf("Remaining past end = %v, want 0", got)
	}
}

func TestSubcaptionsSpreadOverDuration(t *testing.T) {
	rec := &fakeRecorder{seconds: 2.0, rate: 16000}
	scene := NewScene(newTestService(t, rec, 1.0))
	scene.SubcaptionMaxLen = 20

	text := "one two three four five six seven eight nine ten"
	if err := scene.Voiceover(text, func(*Tracker) error { return nil }); err != nil {
		t.Fatalf("Voiceover: %v", err)
	}

	subs := scene.Subcaptions()
	if len(subs) < 2 {
		t.Fatalf("got %d subcaptions, want several", len(subs))
	}
	var joined []string
	var total float64
	for i, sub := range subs {
		if len(sub.Text) > 20 {
			t.Errorf("subcaption %d too long: %q", i, sub.Text)
		}
		if i > 0 && sub.OffsetSeconds <= subs[i-1].OffsetSeconds {
			t.Errorf("subcaption %d not after previous: %v <= %v", i, sub.OffsetSeconds, subs[i-1].OffsetSeconds)
		}
		joined = append(joined, sub.Text)
		total += sub.DurationSeconds + scene.SubcaptionBuff
	}
	if got := strings.Join(joined, " "); got != text {
		t.Errorf("subcaptions lost words: %q", got)
	}
	if math.Abs(total-2.0) > 0.05 {
		t.Errorf("subcaption durations sum to %v, want ~2.0", total)
	}
}

func TestWrapTextNeverSplitsWords(t *testing.T) {
	chunks := wrapText("a bb ccc dddd eeeee", 7)
	for _, c := range chunks {
		if len(c) > 7 {
			t.Errorf("chunk too long: %q", c)
		}
	}
	if got := strings.Join(chunks, " "); got != "a bb ccc dddd eeeee" {
		t.Errorf("wrapText lost content: %q", got)
	}
}

func TestSubcaptionDisabled(t *testing.T) {
	rec := &fakeRecorder{seconds: 0.5, rate: 16000}
	scene := NewScene(newTestService(t, rec, 1.0))
	scene.CreateSubcaption = false

	if err := scene.Voiceover("quiet", func(*Tracker) error { return nil }); err != nil {
		t.Fatalf("Voiceover: %v", err)
	}
	if len(scene.Subcaptions()) != 0 {
		t.Errorf("subcaptions emitted while disabled")
	}
}
