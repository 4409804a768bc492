package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avnlearn/manim-recorder/audio"
	"github.com/avnlearn/manim-recorder/config"
	"github.com/avnlearn/manim-recorder/hotkey"
	"github.com/avnlearn/manim-recorder/player"
	"github.com/avnlearn/manim-recorder/session"
)

// Run executes interactive diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run(cfg config.Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("manim-recorder doctor - interactive system diagnostics")
	fmt.Println("======================================================")

	allPass := true

	if !checkRecordKey() {
		allPass = false
	}
	if allPass && !checkMicAndPlayback(cfg) {
		allPass = false
	}
	if allPass && !checkCacheDir(cfg) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See details above.")
	}

	if allPass {
		return 0
	}
	return 1
}

func checkRecordKey() bool {
	fmt.Println()
	fmt.Println("[1/3] Record key detection")
	fmt.Println("Press Ctrl+Shift+R...")

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register record key: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: record key detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// The hotkey hook may leave the terminal in raw mode.
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for record key")
		return false
	}
}

func checkMicAndPlayback(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[2/3] Microphone and playback")

	reader := bufio.NewReader(os.Stdin)

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	devices, err := actx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}

	var device *audio.DeviceInfo
	if len(devices) == 1 {
		device = &devices[0]
		fmt.Printf("Using device: %s\n", device.Name)
	} else {
		fmt.Println()
		fmt.Println("Select input device:")
		for i, d := range devices {
			fmt.Printf("  %d. %s\n", i+1, d.Name)
		}
		fmt.Printf("Choice [1-%d]: ", len(devices))

		devChoice, _ := reader.ReadString('\n')
		devChoice = strings.TrimSpace(devChoice)
		idx := 0
		if devChoice != "" {
			fmt.Sscanf(devChoice, "%d", &idx)
			idx--
		}
		if idx < 0 || idx >= len(devices) {
			fmt.Println("  FAIL: invalid choice")
			return false
		}
		device = &devices[idx]
		fmt.Printf("Selected: %s\n", device.Name)
	}

	fmt.Println()
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	tmpDir, err := os.MkdirTemp("", "recorder-doctor-")
	if err != nil {
		fmt.Printf("  FAIL: temp dir: %v\n", err)
		return false
	}
	defer os.RemoveAll(tmpDir)

	m := session.NewManager(actx, session.Config{
		OutputDir:  tmpDir,
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Format:     cfg.Format,
		Device:     device,
	})
	if err := m.Start(); err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}

	fmt.Print("  Recording")
	for i := 0; i < 6; i++ {
		time.Sleep(500 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" done")

	art, err := m.Stop()
	if err != nil {
		fmt.Printf("  FAIL: finalize error: %v\n", err)
		return false
	}
	fmt.Printf("  Captured %.1fs take, playing it back...\n", art.DurationSeconds)

	if err := player.Play(context.Background(), art.Path); err != nil {
		fmt.Printf("  FAIL: playback error: %v\n", err)
		return false
	}

	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Did you hear your voice? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: capture and playback verified by user")
		return true
	}

	fmt.Println("  FAIL: playback not confirmed")
	return false
}

func checkCacheDir(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[3/3] Voiceover cache directory")

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		fmt.Printf("  FAIL: cannot create %s: %v\n", cfg.CacheDir, err)
		return false
	}
	probe := filepath.Join(cfg.CacheDir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		fmt.Printf("  FAIL: cannot write to %s: %v\n", cfg.CacheDir, err)
		return false
	}
	os.Remove(probe)

	fmt.Printf("  PASS: %s is writable\n", cfg.CacheDir)
	return true
}
