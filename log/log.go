// Package log provides file-backed diagnostic logging for the
// recorder front-ends. The animation framework drives the process
// stdout, so diagnostics go to a log file instead of the console.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	dir      string
)

// ResolveDir picks the log directory: explicit flag path first, then
// the MANIM_RECORDER_LOG_PATH environment variable, then an
// OS-specific default.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absolutize(flagPath)
	}
	if envPath := os.Getenv("MANIM_RECORDER_LOG_PATH"); envPath != "" {
		return absolutize(envPath)
	}
	return getDefaultDir()
}

func absolutize(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	var err error
	diagPath := filepath.Join(dir, "recorder_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", os.Getpid()).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	logMu.Lock()
	defer logMu.Unlock()
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

func Warn(msg string) {
	logMu.Lock()
	defer logMu.Unlock()
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	logMu.Lock()
	defer logMu.Unlock()
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

// Take records a finalized recording so a session's output can be
// audited after rendering.
func Take(path string, durationSeconds float64) {
	logMu.Lock()
	defer logMu.Unlock()
	if logReady {
		diagLog.Info().
			Str("path", path).
			Float64("duration_s", durationSeconds).
			Msg("take saved")
	}
}
