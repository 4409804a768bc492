package voiceover

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avnlearn/manim-recorder/encoder"
	"github.com/avnlearn/manim-recorder/log"
)

// ServiceConfig carries the knobs a Service needs beyond its Recorder.
type ServiceConfig struct {
	CacheDir    string
	SampleRate  uint32
	Channels    uint32
	Format      string
	GlobalSpeed float64
	// WipeCache removes any existing takes from the cache dir on
	// construction, forcing every voiceover to be re-recorded.
	WipeCache bool
}

// Service hands prompts to a Recorder and caches the resulting takes,
// so re-rendering a scene with unchanged text never asks the narrator
// to speak again.
type Service struct {
	rec      Recorder
	cacheDir string
	speed    float64
	capture  CaptureConfig
}

func NewService(rec Recorder, cfg ServiceConfig) (*Service, error) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = "media/voiceovers"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	if cfg.Format == "" {
		cfg.Format = "wav"
	}
	if cfg.GlobalSpeed == 0 {
		cfg.GlobalSpeed = 1.0
	}
	if cfg.GlobalSpeed < 0 {
		return nil, fmt.Errorf("global speed must be positive, got %v", cfg.GlobalSpeed)
	}
	if cfg.WipeCache {
		if err := os.RemoveAll(cfg.CacheDir); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, err
	}
	return &Service{
		rec:      rec,
		cacheDir: cfg.CacheDir,
		speed:    cfg.GlobalSpeed,
		capture: CaptureConfig{
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			Format:     cfg.Format,
		},
	}, nil
}

func (s *Service) CacheDir() string { return s.cacheDir }

// Generate returns the cached take for text at slot voiceID, recording
// a fresh one when the cache has none that matches.
func (s *Service) Generate(text string, voiceID int) (CacheEntry, error) {
	text = strings.Join(strings.Fields(text), " ")
	input := InputData{InputText: text, Config: s.capture}

	if entry, ok := cachedEntry(s.cacheDir, input, voiceID); ok {
		log.Infof("voiceover %d cached: %s", voiceID, entry.FinalAudio)
		return entry, nil
	}

	name, err := s.rec.Record(s.cacheDir, text)
	if err != nil {
		return CacheEntry{}, fmt.Errorf("record voiceover %d: %w", voiceID, err)
	}

	entry := CacheEntry{InputData: input, OriginalAudio: name, FinalAudio: name}
	if s.speed != 1.0 {
		adjusted, err := s.adjustSpeed(name)
		if err != nil {
			return CacheEntry{}, err
		}
		entry.FinalAudio = adjusted
	}
	if err := storeEntry(s.cacheDir, entry, voiceID); err != nil {
		return CacheEntry{}, err
	}
	return entry, nil
}

// Duration reports the playback length of a cached take in seconds.
func (s *Service) Duration(entry CacheEntry) (float64, error) {
	return encoder.Duration(filepath.Join(s.cacheDir, entry.FinalAudio))
}

func (s *Service) adjustSpeed(name string) (string, error) {
	ext := filepath.Ext(name)
	adjusted := strings.TrimSuffix(name, ext) + "_adjusted" + ext
	src := filepath.Join(s.cacheDir, name)
	dst := filepath.Join(s.cacheDir, adjusted)
	if err := AdjustSpeed(src, dst, s.speed); err != nil {
		return "", fmt.Errorf("adjust speed of %s: %w", name, err)
	}
	return adjusted, nil
}
