package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avnlearn/manim-recorder/audio"
	"github.com/avnlearn/manim-recorder/encoder"
)

// stubCapture delivers frames only when the test pushes them, so
// frame counts are exact.
type stubCapture struct {
	cb       audio.DataCallback
	startErr error
	started  bool
}

func (s *stubCapture) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}
func (s *stubCapture) Stop()                            { s.started = false }
func (s *stubCapture) Close()                           {}
func (s *stubCapture) SetCallback(cb audio.DataCallback) { s.cb = cb }
func (s *stubCapture) ClearCallback()                   { s.cb = nil }
func (s *stubCapture) DeviceName() string               { return "stub" }

func (s *stubCapture) feed(data []byte, frames uint32) {
	if s.cb != nil {
		s.cb(data, frames)
	}
}

type stubContext struct {
	capture *stubCapture
	newErr  error
}

func (s *stubContext) Devices() ([]audio.DeviceInfo, error) { return nil, nil }
func (s *stubContext) Close()                               {}
func (s *stubContext) NewCapture(_ *audio.DeviceInfo, _ audio.CaptureConfig) (audio.CaptureDevice, error) {
	if s.newErr != nil {
		return nil, s.newErr
	}
	return s.capture, nil
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *stubCapture) {
	t.Helper()
	cap := &stubCapture{}
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	m := NewManager(&stubContext{capture: cap}, cfg)
	return m, cap
}

// feedSilence pushes d seconds of silent mono PCM in 1024-frame chunks.
func feedSilence(cap *stubCapture, rate uint32, d time.Duration) {
	total := int(float64(rate) * d.Seconds())
	const chunk = 1024
	for total > 0 {
		n := min(total, chunk)
		cap.feed(make([]byte, n*2), uint32(n))
		total -= n
	}
}

func TestRecordThreeSecondsOfSilence(t *testing.T) {
	dir := t.TempDir()
	m, cap := newTestManager(t, Config{OutputDir: dir})

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	feedSilence(cap, 16000, 3*time.Second)

	art, err := m.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if art.DurationSeconds != 3.0 {
		t.Errorf("DurationSeconds = %v, want 3.0", art.DurationSeconds)
	}
	if m.State() != Idle {
		t.Errorf("state after Stop = %v, want idle", m.State())
	}

	// The written file must be playable with the same duration.
	d, err := encoder.Duration(art.Path)
	if err != nil {
		t.Fatalf("Duration(%s): %v", art.Path, err)
	}
	if d != 3.0 {
		t.Errorf("playable duration = %v, want 3.0", d)
	}
}

func TestStopWithoutFramesIsEmptyRecording(t *testing.T) {
	dir := t.TempDir()
	m, _ := newTestManager(t, Config{OutputDir: dir})

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err := m.Stop()
	if !errors.Is(err, ErrEmptyRecording) {
		t.Fatalf("Stop = %v, want ErrEmptyRecording", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files, found %d", len(entries))
	}
	if m.State() != Idle {
		t.Errorf("state = %v, want idle", m.State())
	}
}

func TestStartWhileRecording(t *testing.T) {
	m, cap := newTestManager(t, Config{})

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cap.feed(make([]byte, 2048), 1024)

	if err := m.Start(); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second Start = %v, want ErrAlreadyRecording", err)
	}

	// In-progress session is unaffected.
	cap.feed(make([]byte, 2048), 1024)
	art, err := m.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	want := 2048.0 / 16000.0
	if art.DurationSeconds != want {
		t.Errorf("DurationSeconds = %v, want %v", art.DurationSeconds, want)
	}
}

func TestStopWhileIdle(t *testing.T) {
	m, _ := newTestManager(t, Config{})
	if _, err := m.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("Stop = %v, want ErrNotRecording", err)
	}
}

func TestDeviceUnavailable(t *testing.T) {
	m := NewManager(&stubContext{newErr: errors.New("no such device")}, Config{
		OutputDir: t.TempDir(),
	})
	if err := m.Start(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Start = %v, want ErrDeviceUnavailable", err)
	}
	if m.State() != Idle {
		t.Errorf("state = %v, want idle", m.State())
	}
}

func TestSameSecondStopsGetDistinctPaths(t *testing.T) {
	dir := t.TempDir()
	m, cap := newTestManager(t, Config{OutputDir: dir})

	frozen := time.Date(2025, 6, 1, 10, 30, 45, 0, time.UTC)
	m.clock = func() time.Time { return frozen }

	var paths []string
	for i := 0; i < 3; i++ {
		if err := m.Start(); err != nil {
			t.Fatalf("Start #%d: %v", i, err)
		}
		cap.feed(make([]byte, 2048), 1024)
		art, err := m.Stop()
		if err != nil {
			t.Fatalf("Stop #%d: %v", i, err)
		}
		paths = append(paths, art.Path)
	}

	want := []string{
		filepath.Join(dir, "REC_20250601_103045.wav"),
		filepath.Join(dir, "REC_20250601_103045_2.wav"),
		filepath.Join(dir, "REC_20250601_103045_3.wav"),
	}
	for i, p := range paths {
		if p != want[i] {
			t.Errorf("path #%d = %s, want %s", i, p, want[i])
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("take #%d missing on disk: %v", i, err)
		}
	}
}

func TestBackToBackCycles(t *testing.T) {
	dir := t.TempDir()
	m, cap := newTestManager(t, Config{OutputDir: dir})

	for i := 0; i < 2; i++ {
		if err := m.Start(); err != nil {
			t.Fatalf("Start #%d: %v", i, err)
		}
		feedSilence(cap, 16000, 500*time.Millisecond)
		if _, err := m.Stop(); err != nil {
			t.Fatalf("Stop #%d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 takes, found %d", len(entries))
	}
	if entries[0].Name() == entries[1].Name() {
		t.Errorf("takes share a name: %s", entries[0].Name())
	}
}

func TestEncodeFailureLeavesNoPartialFile(t *testing.T) {
	// Point the output dir at an existing file so MkdirAll fails.
	parent := t.TempDir()
	blocked := filepath.Join(parent, "not-a-dir")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, cap := newTestManager(t, Config{OutputDir: blocked})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cap.feed(make([]byte, 2048), 1024)

	_, err := m.Stop()
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("Stop = %v, want ErrEncode", err)
	}
	if m.State() != Idle {
		t.Errorf("state = %v, want idle", m.State())
	}
}

func TestMaxDurationStopsAcceptingFrames(t *testing.T) {
	m, cap := newTestManager(t, Config{
		MaxDuration: time.Second,
	})

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	feedSilence(cap, 16000, 2*time.Second)

	select {
	case ev := <-m.Events():
		if ev != EventAutoStop {
			t.Fatalf("event = %v, want EventAutoStop", ev)
		}
	default:
		t.Fatal("expected an auto-stop event")
	}

	art, err := m.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if art.DurationSeconds > 1.0 {
		t.Errorf("DurationSeconds = %v, want <= 1.0", art.DurationSeconds)
	}
}

func TestFlacTake(t *testing.T) {
	dir := t.TempDir()
	m, cap := newTestManager(t, Config{OutputDir: dir, Format: "flac"})

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	feedSilence(cap, 16000, time.Second)

	art, err := m.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if filepath.Ext(art.Path) != ".flac" {
		t.Errorf("ext = %s, want .flac", filepath.Ext(art.Path))
	}
	d, err := encoder.Duration(art.Path)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if d != 1.0 {
		t.Errorf("playable duration = %v, want 1.0", d)
	}
}

func TestRecordThroughFakeBackend(t *testing.T) {
	pcm := audio.SilencePCM(16000, time.Second)
	actx := audio.NewFakeContext(pcm, false)

	dir := t.TempDir()
	m := NewManager(actx, Config{OutputDir: dir, SampleRate: 16000})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	art, err := m.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if art.DurationSeconds < 1.0 {
		t.Errorf("duration = %v, want at least the fed second", art.DurationSeconds)
	}
	if filepath.Ext(art.Path) != ".wav" {
		t.Errorf("unexpected extension: %s", art.Path)
	}
	if _, err := os.Stat(art.Path); err != nil {
		t.Errorf("take not on disk: %v", err)
	}
}
