package voiceover

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/avnlearn/manim-recorder/encoder"
)

// fakeRecorder writes a synthesized take per call and counts calls, so
// tests can tell a cache hit from a fresh recording.
type fakeRecorder struct {
	calls   int
	seconds float64
	rate    uint32
}

func (r *fakeRecorder) Record(dir, prompt string) (string, error) {
	r.calls++
	name := fmt.Sprintf("REC_20250601_10304%d.wav", r.calls)
	enc := encoder.NewWav(r.rate, 1)
	samples := make([]int16, int(float64(r.rate)*r.seconds))
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(r.rate)))
	}
	if err := enc.EncodeBlock(samples); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return name, os.WriteFile(filepath.Join(dir, name), enc.Bytes(), 0o644)
}

func newTestService(t *testing.T, rec Recorder, speed float64) *Service {
	t.Helper()
	svc, err := NewService(rec, ServiceConfig{
		CacheDir:    filepath.Join(t.TempDir(), "voiceovers"),
		SampleRate:  16000,
		GlobalSpeed: speed,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestGenerateRecordsOnceThenCaches(t *testing.T) {
	rec := &fakeRecorder{seconds: 1.0, rate: 16000}
	svc := newTestService(t, rec, 1.0)

	first, err := svc.Generate("hello   world", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first.InputData.InputText != "hello world" {
		t.Errorf("input text not normalized: %q", first.InputData.InputText)
	}

	// Same text, same slot: must come from cache.json.
	again, err := svc.Generate("hello world", 0)
	if err != nil {
		t.Fatalf("Generate cached: %v", err)
	}
	if rec.calls != 1 {
		t.Errorf("recorder called %d times, want 1", rec.calls)
	}
	if again.FinalAudio != first.FinalAudio {
		t.Errorf("cached entry changed: %q vs %q", again.FinalAudio, first.FinalAudio)
	}
}

func TestChangedTextReplacesSlotAndRemovesStaleTake(t *testing.T) {
	rec := &fakeRecorder{seconds: 0.5, rate: 16000}
	svc := newTestService(t, rec, 1.0)

	first, err := svc.Generate("old narration", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	stale := filepath.Join(svc.CacheDir(), first.OriginalAudio)

	second, err := svc.Generate("new narration", 0)
	if err != nil {
		t.Fatalf("Generate replacement: %v", err)
	}
	if second.OriginalAudio == first.OriginalAudio {
		t.Fatal("replacement reused the old take file")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale take still on disk: %s", stale)
	}

	entries, err := loadCache(svc.CacheDir())
	if err != nil {
		t.Fatalf("loadCache: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("cache has %d entries, want 1", len(entries))
	}
}

func TestGlobalSpeedShortensTake(t *testing.T) {
	rec := &fakeRecorder{seconds: 2.0, rate: 16000}
	svc := newTestService(t, rec, 2.0)

	entry, err := svc.Generate("fast narration", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if entry.FinalAudio == entry.OriginalAudio {
		t.Fatal("speed adjustment did not produce a separate file")
	}
	dur, err := svc.Duration(entry)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if math.Abs(dur-1.0) > 0.01 {
		t.Errorf("adjusted duration = %v, want ~1.0", dur)
	}
	orig, err := encoder.Duration(filepath.Join(svc.CacheDir(), entry.OriginalAudio))
	if err != nil {
		t.Fatalf("original Duration: %v", err)
	}
	if math.Abs(orig-2.0) > 0.01 {
		t.Errorf("original duration = %v, want ~2.0", orig)
	}
}

func TestWipeCacheClearsOldTakes(t *testing.T) {
	rec := &fakeRecorder{seconds: 0.2, rate: 16000}
	dir := filepath.Join(t.TempDir(), "voiceovers")

	svc, err := NewService(rec, ServiceConfig{CacheDir: dir, SampleRate: 16000})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svc.Generate("keep me", 0); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewService(rec, ServiceConfig{CacheDir: dir, SampleRate: 16000, WipeCache: true}); err != nil {
		t.Fatalf("NewService wipe: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir not empty after wipe: %d entries", len(entries))
	}
}
