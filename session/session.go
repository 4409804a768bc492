// Package session turns a live microphone stream plus start/stop
// signals into a durable, timestamped audio clip with accurate
// duration metadata.
package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avnlearn/manim-recorder/audio"
	"github.com/avnlearn/manim-recorder/encoder"
)

var (
	ErrDeviceUnavailable = errors.New("audio input device unavailable")
	ErrAlreadyRecording  = errors.New("recording already in progress")
	ErrNotRecording      = errors.New("no recording in progress")
	ErrEmptyRecording    = errors.New("recording captured no audio")
	ErrEncode            = errors.New("encoding recording failed")
)

type State int

const (
	Idle State = iota
	Recording
	Finalizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Finalizing:
		return "finalizing"
	}
	return "unknown"
}

// Event notifies a front-end about conditions observed while
// recording. Delivery is best-effort: events are dropped rather than
// ever blocking the capture callback.
type Event int

const (
	EventSilenceWarn Event = iota
	EventSilenceCleared
	EventAutoStop
)

// Config is the explicit per-manager configuration. Zero values fall
// back to 44.1kHz mono WAV.
type Config struct {
	OutputDir   string
	SampleRate  uint32
	Channels    uint32
	Format      string            // "wav" or "flac"
	Device      *audio.DeviceInfo // nil = system default
	MaxDuration time.Duration     // 0 = unbounded

	// SilenceTimeout auto-stops a take after this much uninterrupted
	// silence. 0 disables auto-stop; the 8s warning fires regardless.
	SilenceTimeout time.Duration

	// OnLevel receives the RMS level of each captured buffer. It runs
	// on the capture thread and must be cheap.
	OnLevel func(rms float64)
}

func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.SampleRate == 0 {
		c.SampleRate = 44100
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.Format == "" {
		c.Format = "wav"
	}
}

// Artifact is the result of a finalized take.
type Artifact struct {
	Path            string
	DurationSeconds float64
}

// Manager owns at most one recording session at a time. Start/Stop
// are expected to be serialized by the caller (UI loop or a single
// HTTP request); the frame buffer itself is guarded against the
// capture thread.
type Manager struct {
	ctx audio.Context
	cfg Config

	mu      sync.Mutex
	state   State
	capture audio.CaptureDevice

	frameMu     sync.Mutex
	frames      [][]byte
	totalFrames uint64
	stopped     bool

	startedAt time.Time
	silence   *silenceMonitor
	events    chan Event

	// clock and naming state for collision-free file names.
	clock     func() time.Time
	lastStamp string
	lastSeq   int
}

func NewManager(ctx audio.Context, cfg Config) *Manager {
	cfg.applyDefaults()
	return &Manager{
		ctx:    ctx,
		cfg:    cfg,
		events: make(chan Event, 4),
		clock:  time.Now,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Events returns session notifications (silence warning, auto-stop).
// After EventAutoStop the caller still invokes Stop to finalize.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Elapsed returns how long the current session has been recording.
func (m *Manager) Elapsed() time.Duration {
	m.frameMu.Lock()
	frames := m.totalFrames
	m.frameMu.Unlock()
	return time.Duration(float64(frames) / float64(m.cfg.SampleRate) * float64(time.Second))
}

// Start opens the capture stream and begins accumulating frames.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Idle {
		return ErrAlreadyRecording
	}

	capture, err := m.ctx.NewCapture(m.cfg.Device, audio.CaptureConfig{
		SampleRate: m.cfg.SampleRate,
		Channels:   m.cfg.Channels,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	m.frameMu.Lock()
	m.frames = nil
	m.totalFrames = 0
	m.stopped = false
	m.frameMu.Unlock()
	m.silence = newSilenceMonitor(m.cfg.SampleRate, m.cfg.SilenceTimeout)
	m.startedAt = m.clock()

	maxFrames := uint64(0)
	if m.cfg.MaxDuration > 0 {
		maxFrames = uint64(m.cfg.MaxDuration.Seconds() * float64(m.cfg.SampleRate))
	}

	capture.SetCallback(func(data []byte, frameCount uint32) {
		m.frameMu.Lock()
		if m.stopped {
			m.frameMu.Unlock()
			return
		}
		if maxFrames > 0 && m.totalFrames+uint64(frameCount) > maxFrames {
			m.stopped = true
			m.frameMu.Unlock()
			m.emit(EventAutoStop)
			return
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		m.frames = append(m.frames, buf)
		m.totalFrames += uint64(frameCount)
		m.frameMu.Unlock()

		rms := rmsLevel(data)
		if m.cfg.OnLevel != nil {
			m.cfg.OnLevel(rms)
		}
		switch m.silence.Feed(uint64(frameCount), rms) {
		case silenceWarn:
			m.emit(EventSilenceWarn)
		case silenceCleared:
			m.emit(EventSilenceCleared)
		case silenceAutoStop:
			m.frameMu.Lock()
			m.stopped = true
			m.frameMu.Unlock()
			m.emit(EventAutoStop)
		}
	})

	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	m.capture = capture
	m.state = Recording
	return nil
}

// Stop closes the capture stream, encodes the accumulated frames and
// writes the take. On success the manager is Idle again and the
// returned artifact points at the new file.
func (m *Manager) Stop() (*Artifact, error) {
	m.mu.Lock()
	if m.state != Recording {
		m.mu.Unlock()
		return nil, ErrNotRecording
	}
	m.state = Finalizing
	capture := m.capture
	m.capture = nil
	m.mu.Unlock()

	capture.Stop()
	capture.ClearCallback()
	capture.Close()

	m.frameMu.Lock()
	m.stopped = true
	frames := m.frames
	totalFrames := m.totalFrames
	m.frames = nil
	m.frameMu.Unlock()

	defer func() {
		m.mu.Lock()
		m.state = Idle
		m.mu.Unlock()
	}()

	if totalFrames == 0 {
		return nil, ErrEmptyRecording
	}

	enc, err := encoder.New(m.cfg.Format, m.cfg.SampleRate, m.cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := encodeFrames(enc, frames, m.cfg.Channels); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	if err := os.MkdirAll(m.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	path := m.takePath(m.clock())
	if err := os.WriteFile(path, enc.Bytes(), 0o644); err != nil {
		os.Remove(path) // never leave a corrupt partial take behind
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return &Artifact{
		Path:            path,
		DurationSeconds: float64(totalFrames) / float64(m.cfg.SampleRate),
	}, nil
}

// takePath derives the file name from the finalize timestamp at
// second granularity; stops landing in the same second get a counter
// suffix so no successful finalize can overwrite another.
func (m *Manager) takePath(now time.Time) string {
	stamp := now.Format("20060102_150405")
	if stamp == m.lastStamp {
		m.lastSeq++
	} else {
		m.lastStamp = stamp
		m.lastSeq = 1
	}
	name := "REC_" + stamp
	if m.lastSeq > 1 {
		name = fmt.Sprintf("REC_%s_%d", stamp, m.lastSeq)
	}
	return filepath.Join(m.cfg.OutputDir, name+encoder.Ext(m.cfg.Format))
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}

// encodeFrames feeds the raw capture buffers to the encoder in
// BlockSize sample blocks.
func encodeFrames(enc encoder.Encoder, frames [][]byte, channels uint32) error {
	blockSamples := encoder.BlockSize * int(channels)
	block := make([]int16, 0, blockSamples)

	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		if err := enc.EncodeBlock(block); err != nil {
			return err
		}
		block = block[:0]
		return nil
	}

	for _, buf := range frames {
		for i := 0; i+1 < len(buf); i += 2 {
			block = append(block, int16(binary.LittleEndian.Uint16(buf[i:])))
			if len(block) == blockSamples {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

// rmsLevel computes the normalized RMS of a 16-bit LE PCM buffer.
func rmsLevel(data []byte) float64 {
	if len(data) < 2 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(data)/2))
}
