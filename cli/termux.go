package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/avnlearn/manim-recorder/encoder"
	"github.com/avnlearn/manim-recorder/log"
)

// TermuxRecorder records through the termux-api tools on Android,
// where no audio backend or global hotkey is available. It implements
// voiceover.Recorder with a plain line-oriented prompt flow.
type TermuxRecorder struct {
	In    io.Reader
	Out   io.Writer
	clock func() time.Time
}

func NewTermuxRecorder() *TermuxRecorder {
	return &TermuxRecorder{In: os.Stdin, Out: os.Stdout, clock: time.Now}
}

func (t *TermuxRecorder) Record(dir, prompt string) (string, error) {
	if _, err := exec.LookPath("termux-microphone-record"); err != nil {
		return "", fmt.Errorf("termux-api tools not found: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	reader := bufio.NewReader(t.In)

	for {
		if prompt != "" {
			fmt.Fprintf(t.Out, "\nRead aloud:\n  %s\n", prompt)
		}
		name := t.nextTakeName(dir)
		path := filepath.Join(dir, name)

		fmt.Fprint(t.Out, "\nPress Enter to start recording...")
		if _, err := reader.ReadString('\n'); err != nil {
			return "", err
		}
		if out, err := exec.Command("termux-microphone-record", "-f", path, "-l", "0").CombinedOutput(); err != nil {
			return "", fmt.Errorf("start recording: %v (%s)", err, strings.TrimSpace(string(out)))
		}

		fmt.Fprint(t.Out, "Recording... press Enter to stop.")
		if _, err := reader.ReadString('\n'); err != nil {
			exec.Command("termux-microphone-record", "-q").Run()
			return "", err
		}
		if out, err := exec.Command("termux-microphone-record", "-q").CombinedOutput(); err != nil {
			return "", fmt.Errorf("stop recording: %v (%s)", err, strings.TrimSpace(string(out)))
		}

		accepted, err := t.reviewLoop(reader, path)
		if err != nil {
			return "", err
		}
		if accepted {
			if dur, derr := encoder.Duration(path); derr == nil {
				log.Take(path, dur)
			}
			return name, nil
		}
		os.Remove(path)
	}
}

func (t *TermuxRecorder) reviewLoop(reader *bufio.Reader, path string) (bool, error) {
	for {
		fmt.Fprint(t.Out, "[l]isten, [r]etake, [a]ccept: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "l":
			if out, err := exec.Command("termux-media-player", "play", path).CombinedOutput(); err != nil {
				fmt.Fprintf(t.Out, "playback failed: %v (%s)\n", err, strings.TrimSpace(string(out)))
			}
		case "a":
			return true, nil
		case "r":
			return false, nil
		}
	}
}

// termux-microphone-record encodes to AAC in an M4A container, so
// takes carry that extension rather than the configured format.
func (t *TermuxRecorder) nextTakeName(dir string) string {
	stamp := t.clock().Format("20060102_150405")
	name := fmt.Sprintf("REC_%s.m4a", stamp)
	for seq := 2; ; seq++ {
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("REC_%s_%d.m4a", stamp, seq)
	}
}
