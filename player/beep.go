package player

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
)

var (
	startBuffer []byte
	endBuffer   []byte
	tickOnce    sync.Once
)

func initTicks() {
	// Start cue: snappy tick. Stop cue: slightly lower, longer.
	startBuffer = generateTick(playbackRate, 1200, 0.03, 0.5, 60)
	endBuffer = generateTick(playbackRate, 900, 0.05, 0.5, 40)
}

func generateTick(sampleRate int, freq, duration, volume, decay float64) []byte {
	samples := int(float64(sampleRate) * duration)
	buf := new(bytes.Buffer)
	for i := 0; i < samples; i++ {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		sample := int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
		binary.Write(buf, binary.LittleEndian, sample)
	}
	return buf.Bytes()
}

// StartCue plays the recording-started tick. Best effort: a machine
// with no playback device records fine without cues.
func StartCue() {
	tickOnce.Do(initTicks)
	playCue(startBuffer)
}

// StopCue plays the recording-stopped tick.
func StopCue() {
	tickOnce.Do(initTicks)
	playCue(endBuffer)
}

func playCue(buf []byte) {
	octx, err := playbackContext()
	if err != nil || len(buf) == 0 {
		return
	}
	player := octx.NewPlayer(bytes.NewReader(buf))
	player.Play()
	go func() {
		for player.IsPlaying() {
		}
		player.Close()
	}()
}
