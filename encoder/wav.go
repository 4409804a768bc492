package encoder

import (
	"bytes"
	"encoding/binary"
	"sync"
)

const wavFormatPCM = 1

// WavEncoder accumulates raw PCM and renders a RIFF/PCM16 file on
// Bytes(). WAV is the native take format: the upload page, the GUI
// and the CLI recorders all persist takes as WAV.
type WavEncoder struct {
	pcm         bytes.Buffer
	sampleRate  uint32
	channels    uint32
	totalFrames uint64
	mu          sync.Mutex
}

func NewWav(sampleRate, channels uint32) *WavEncoder {
	return &WavEncoder{sampleRate: sampleRate, channels: channels}
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	buf := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	e.pcm.Write(buf)
	e.totalFrames += uint64(len(block)) / uint64(e.channels)
	return nil
}

func (e *WavEncoder) Close() error { return nil }

func (e *WavEncoder) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	data := e.pcm.Bytes()
	byteRate := e.sampleRate * e.channels * 2
	blockAlign := uint16(e.channels * 2)

	var out bytes.Buffer
	out.Grow(44 + len(data))
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(36+len(data)))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(16))
	binary.Write(&out, binary.LittleEndian, uint16(wavFormatPCM))
	binary.Write(&out, binary.LittleEndian, uint16(e.channels))
	binary.Write(&out, binary.LittleEndian, e.sampleRate)
	binary.Write(&out, binary.LittleEndian, byteRate)
	binary.Write(&out, binary.LittleEndian, blockAlign)
	binary.Write(&out, binary.LittleEndian, uint16(BitsPerSample))

	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(len(data)))
	out.Write(data)

	return out.Bytes()
}

func (e *WavEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}
