package encoder

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFlacEncoder(t *testing.T) {
	const rate = 16000
	samples := sineSamples(rate, rate)

	enc, err := NewFlac(rate, 1)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	var totalFed uint64
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		block := samples[i:end]
		if err := enc.EncodeBlock(block); err != nil {
			t.Fatalf("EncodeBlock at offset %d: %v", i, err)
		}
		totalFed += uint64(len(block))
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if enc.TotalFrames() != totalFed {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), totalFed)
	}

	flacData := enc.Bytes()
	if len(flacData) < 4 || string(flacData[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFlacEncoderEmpty(t *testing.T) {
	enc, err := NewFlac(44100, 1)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if len(enc.Bytes()) == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}

func TestFlacEncoderStereo(t *testing.T) {
	enc, err := NewFlac(44100, 2)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	block := make([]int16, 2048) // 1024 frames interleaved
	if err := enc.EncodeBlock(block); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if enc.TotalFrames() != 1024 {
		t.Errorf("TotalFrames = %d, want 1024", enc.TotalFrames())
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestFlacEncoderRejectsThreeChannels(t *testing.T) {
	if _, err := NewFlac(44100, 3); err == nil {
		t.Fatal("expected an error for 3 channels")
	}
}

func TestFlacDuration(t *testing.T) {
	const rate = 16000
	enc, err := NewFlac(rate, 1)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.EncodeBlock(make([]int16, 2*rate)); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	path := filepath.Join(t.TempDir(), "take.flac")
	if err := os.WriteFile(path, enc.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Duration(path)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if d != 2.0 {
		t.Errorf("duration = %v, want 2.0", d)
	}
}
