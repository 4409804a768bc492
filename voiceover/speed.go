package voiceover

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/avnlearn/manim-recorder/encoder"
)

// AdjustSpeed rewrites the take at inputPath to play tempo times
// faster, resampling by linear interpolation so the pitch shifts with
// the speed. inputPath and outputPath may be the same file.
func AdjustSpeed(inputPath, outputPath string, tempo float64) error {
	if tempo <= 0 {
		return fmt.Errorf("tempo must be positive, got %v", tempo)
	}

	pcm, err := encoder.ReadFile(inputPath)
	if err != nil {
		return err
	}
	out := resample(pcm, tempo)

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(outputPath)), ".")
	enc, err := encoder.New(format, out.SampleRate, out.Channels)
	if err != nil {
		return err
	}
	if err := enc.EncodeBlock(out.Samples); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	// Writing through a temp name keeps in-place adjustment safe.
	tmp := filepath.Join(filepath.Dir(outputPath), uuid.NewString()+filepath.Ext(outputPath))
	if err := os.WriteFile(tmp, enc.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func resample(in *encoder.PCM, tempo float64) *encoder.PCM {
	ch := int(in.Channels)
	inFrames := in.Frames()
	if inFrames == 0 {
		return &encoder.PCM{SampleRate: in.SampleRate, Channels: in.Channels}
	}
	outFrames := int(float64(inFrames) / tempo)
	if outFrames < 1 {
		outFrames = 1
	}
	out := &encoder.PCM{
		Samples:    make([]int16, outFrames*ch),
		SampleRate: in.SampleRate,
		Channels:   in.Channels,
	}
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * tempo
		j := int(pos)
		frac := pos - float64(j)
		k := j + 1
		if k >= inFrames {
			k = inFrames - 1
		}
		for c := 0; c < ch; c++ {
			a := float64(in.Samples[j*ch+c])
			b := float64(in.Samples[k*ch+c])
			out.Samples[i*ch+c] = int16(a + (b-a)*frac)
		}
	}
	return out
}
