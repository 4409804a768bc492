package encoder

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FlacEncoder writes lossless takes. Useful when the narration clips
// are archived alongside the rendered scene.
type FlacEncoder struct {
	buf         bytes.Buffer
	enc         *flac.Encoder
	sampleRate  uint32
	channels    uint32
	totalFrames uint64
	mu          sync.Mutex
}

func NewFlac(sampleRate, channels uint32) (*FlacEncoder, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("flac encoder supports 1 or 2 channels, got %d", channels)
	}
	e := &FlacEncoder{sampleRate: sampleRate, channels: channels}
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    sampleRate,
		NChannels:     uint8(channels),
		BitsPerSample: BitsPerSample,
		NSamples:      0,
	}
	enc, err := flac.NewEncoder(&e.buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	e.enc = enc
	return e, nil
}

func (e *FlacEncoder) frameChannels() frame.Channels {
	if e.channels == 2 {
		return frame.ChannelsLR
	}
	return frame.ChannelsMono
}

// EncodeBlock consumes interleaved samples; the block length must be a
// multiple of the channel count.
func (e *FlacEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	nch := int(e.channels)
	perChannel := len(block) / nch

	subframes := make([]*frame.Subframe, nch)
	for ch := 0; ch < nch; ch++ {
		samples32 := make([]int32, perChannel)
		for i := 0; i < perChannel; i++ {
			samples32[i] = int32(block[i*nch+ch])
		}
		subframes[ch] = &frame.Subframe{
			SubHeader: frame.SubHeader{
				Pred: frame.PredVerbatim,
			},
			Samples:  samples32,
			NSamples: perChannel,
		}
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(perChannel),
			SampleRate:    e.sampleRate,
			Channels:      e.frameChannels(),
			BitsPerSample: BitsPerSample,
		},
		Subframes: subframes,
	}

	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.totalFrames += uint64(perChannel)
	return nil
}

func (e *FlacEncoder) Close() error {
	return e.enc.Close()
}

func (e *FlacEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *FlacEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}
