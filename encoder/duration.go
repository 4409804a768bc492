package encoder

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mewkiz/flac"
)

// Duration returns the playable duration in seconds of a previously
// written clip, derived from the container metadata.
func Duration(path string) (float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wavDuration(path)
	case ".flac":
		return flacDuration(path)
	default:
		return 0, fmt.Errorf("unsupported audio file %q", path)
	}
}

func wavDuration(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if len(data) < 44 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, fmt.Errorf("not a RIFF/WAVE file: %s", path)
	}

	// Walk chunks; fmt gives rate and frame size, data gives length.
	var sampleRate uint32
	var blockAlign uint16
	var dataLen uint32
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		body := pos + 8
		switch id {
		case "fmt ":
			if body+16 > len(data) {
				return 0, fmt.Errorf("truncated fmt chunk: %s", path)
			}
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			blockAlign = binary.LittleEndian.Uint16(data[body+12 : body+14])
		case "data":
			dataLen = size
		}
		pos = body + int(size)
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}
	if sampleRate == 0 || blockAlign == 0 {
		return 0, fmt.Errorf("missing fmt chunk: %s", path)
	}
	frames := dataLen / uint32(blockAlign)
	return float64(frames) / float64(sampleRate), nil
}

func flacDuration(path string) (float64, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, fmt.Errorf("parsing flac: %w", err)
	}
	defer stream.Close()
	info := stream.Info
	if info.SampleRate == 0 {
		return 0, fmt.Errorf("flac stream has no sample rate: %s", path)
	}
	samples := info.NSamples
	if samples == 0 {
		// Streams written to a non-seekable sink leave the sample
		// count unset in STREAMINFO; count the frames instead.
		for {
			frame, err := stream.ParseNext()
			if err == io.EOF {
				break
			}
			if err != nil {
				return 0, fmt.Errorf("parsing flac frame: %w", err)
			}
			samples += uint64(frame.Subframes[0].NSamples)
		}
	}
	return float64(samples) / float64(info.SampleRate), nil
}
