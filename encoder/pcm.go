package encoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mewkiz/flac"
)

// PCM is decoded 16-bit audio, interleaved when stereo.
type PCM struct {
	Samples    []int16
	SampleRate uint32
	Channels   uint32
}

// Frames returns the per-channel sample count.
func (p *PCM) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / int(p.Channels)
}

// ReadFile decodes a recorded take into raw PCM, picking the codec
// from the file extension the same way Duration does.
func ReadFile(path string) (*PCM, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return ReadWavFile(path)
	case ".flac":
		return ReadFlacFile(path)
	default:
		return nil, fmt.Errorf("unsupported audio file: %s", path)
	}
}

// ReadFlacFile decodes a 16-bit FLAC file into interleaved PCM.
func ReadFlacFile(path string) (*PCM, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if stream.Info.BitsPerSample != BitsPerSample {
		return nil, fmt.Errorf("unsupported bit depth %d: %s", stream.Info.BitsPerSample, path)
	}
	pcm := &PCM{
		SampleRate: stream.Info.SampleRate,
		Channels:   uint32(stream.Info.NChannels),
	}
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		n := frame.Subframes[0].NSamples
		for i := 0; i < n; i++ {
			for ch := 0; ch < len(frame.Subframes); ch++ {
				pcm.Samples = append(pcm.Samples, int16(frame.Subframes[ch].Samples[i]))
			}
		}
	}
	return pcm, nil
}

// ReadWavFile decodes a RIFF/PCM16 file written by WavEncoder (or any
// compatible producer, such as the browser recorder).
func ReadWavFile(path string) (*PCM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 44 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file: %s", path)
	}

	var pcm PCM
	var bitsPerSample uint16
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("truncated fmt chunk: %s", path)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != wavFormatPCM {
				return nil, fmt.Errorf("unsupported WAV format tag %d: %s", format, path)
			}
			pcm.Channels = uint32(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			pcm.SampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
		case "data":
			raw := data[body : body+size]
			pcm.Samples = make([]int16, len(raw)/2)
			for i := range pcm.Samples {
				pcm.Samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
			}
		}
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if pcm.SampleRate == 0 {
		return nil, fmt.Errorf("missing fmt chunk: %s", path)
	}
	if bitsPerSample != BitsPerSample {
		return nil, fmt.Errorf("unsupported bit depth %d: %s", bitsPerSample, path)
	}
	return &pcm, nil
}
