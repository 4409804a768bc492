package player

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/avnlearn/manim-recorder/encoder"
)

// oto allows one context per process, so playback runs at a fixed
// format and everything else is converted to it.
const (
	playbackRate     = 44100
	playbackChannels = 1
)

var (
	otoCtx  *oto.Context
	otoErr  error
	otoOnce sync.Once
)

func playbackContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   playbackRate,
			ChannelCount: playbackChannels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		})
		if otoErr != nil {
			return
		}
		<-ready
	})
	return otoCtx, otoErr
}

// Play decodes the take at path and plays it to completion, or until
// the context is cancelled.
func Play(ctx context.Context, path string) error {
	pcm, err := encoder.ReadFile(path)
	if err != nil {
		return err
	}
	octx, err := playbackContext()
	if err != nil {
		return fmt.Errorf("open playback device: %w", err)
	}

	player := octx.NewPlayer(bytes.NewReader(toPlayback(pcm)))
	player.Play()
	defer player.Close()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

// toPlayback downmixes to mono and resamples to the playback rate.
func toPlayback(pcm *encoder.PCM) []byte {
	ch := int(pcm.Channels)
	frames := pcm.Frames()
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < ch; c++ {
			sum += int(pcm.Samples[i*ch+c])
		}
		mono[i] = int16(sum / ch)
	}

	if pcm.SampleRate != playbackRate && frames > 0 {
		ratio := float64(pcm.SampleRate) / float64(playbackRate)
		outFrames := int(float64(frames) / ratio)
		out := make([]int16, outFrames)
		for i := range out {
			pos := float64(i) * ratio
			j := int(pos)
			k := j + 1
			if k >= frames {
				k = frames - 1
			}
			frac := pos - float64(j)
			a := float64(mono[j])
			b := float64(mono[k])
			out[i] = int16(a + (b-a)*frac)
		}
		mono = out
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, mono)
	return buf.Bytes()
}
