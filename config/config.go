package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultCacheDir is where finalized voice-over takes land when the
// scene does not configure its own directory, mirroring the plugin's
// media layout.
const DefaultCacheDir = "media/voiceovers"

type Config struct {
	CacheDir       string
	DeviceName     string // empty = system default
	SampleRate     uint32
	Channels       uint32
	Format         string // "wav" or "flac"
	GlobalSpeed    float64
	MaxDuration    time.Duration // 0 = unbounded
	SilenceTimeout time.Duration // 0 = no auto-stop
	ServerAddr     string        // web recorder listen address
}

type fileConfig struct {
	CacheDir         string  `toml:"cache_dir"`
	DeviceName       string  `toml:"device"`
	SampleRate       uint32  `toml:"sample_rate"`
	Channels         uint32  `toml:"channels"`
	Format           string  `toml:"format"`
	GlobalSpeed      float64 `toml:"global_speed"`
	MaxDurationS     float64 `toml:"max_duration_seconds"`
	SilenceTimeoutS  float64 `toml:"silence_timeout_seconds"`
	ServerAddr       string  `toml:"server_addr"`
}

func Default() *Config {
	return &Config{
		CacheDir:    DefaultCacheDir,
		SampleRate:  44100,
		Channels:    1,
		Format:      "wav",
		GlobalSpeed: 1.0,
		ServerAddr:  "localhost:8080",
	}
}

// Load reads the config file (if present) and applies environment
// overrides on top of the defaults.
func Load() (*Config, error) {
	cfg := Default()

	if configPath := configFilePath(); configPath != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(configPath, &fc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
		if fc.CacheDir != "" {
			cfg.CacheDir = expandTilde(fc.CacheDir)
		}
		if fc.DeviceName != "" {
			cfg.DeviceName = fc.DeviceName
		}
		if fc.SampleRate != 0 {
			cfg.SampleRate = fc.SampleRate
		}
		if fc.Channels != 0 {
			cfg.Channels = fc.Channels
		}
		if fc.Format != "" {
			cfg.Format = fc.Format
		}
		if fc.GlobalSpeed != 0 {
			cfg.GlobalSpeed = fc.GlobalSpeed
		}
		if fc.MaxDurationS > 0 {
			cfg.MaxDuration = time.Duration(fc.MaxDurationS * float64(time.Second))
		}
		if fc.SilenceTimeoutS > 0 {
			cfg.SilenceTimeout = time.Duration(fc.SilenceTimeoutS * float64(time.Second))
		}
		if fc.ServerAddr != "" {
			cfg.ServerAddr = fc.ServerAddr
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Format {
	case "wav", "flac":
	default:
		return fmt.Errorf("unknown format %q (use wav or flac)", c.Format)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	if c.GlobalSpeed <= 0 {
		return fmt.Errorf("global_speed must be positive, got %v", c.GlobalSpeed)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MANIM_RECORDER_CACHE_DIR"); v != "" {
		cfg.CacheDir = expandTilde(v)
	}
	if v := os.Getenv("MANIM_RECORDER_DEVICE"); v != "" {
		cfg.DeviceName = v
	}
	if v := os.Getenv("MANIM_RECORDER_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("MANIM_RECORDER_SAMPLE_RATE"); v != "" {
		if rate, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.SampleRate = uint32(rate)
		}
	}
	if v := os.Getenv("MANIM_RECORDER_SERVER_ADDR"); v != "" {
		cfg.ServerAddr = v
	}
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "manim-recorder")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "manim-recorder")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
