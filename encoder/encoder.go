package encoder

import "fmt"

const (
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder turns blocks of 16-bit interleaved PCM samples into an
// encoded audio container. Implementations are safe for one producer
// feeding EncodeBlock while another goroutine reads TotalFrames.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// New returns an encoder for the given container format ("wav" or
// "flac") at the session's sample rate and channel count.
func New(format string, sampleRate, channels uint32) (Encoder, error) {
	switch format {
	case "wav":
		return NewWav(sampleRate, channels), nil
	case "flac":
		return NewFlac(sampleRate, channels)
	default:
		return nil, fmt.Errorf("unknown audio format %q (use wav or flac)", format)
	}
}

// Ext returns the file extension for a container format.
func Ext(format string) string {
	return "." + format
}
