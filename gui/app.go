//go:build gui

package gui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/avnlearn/manim-recorder/audio"
	"github.com/avnlearn/manim-recorder/config"
	"github.com/avnlearn/manim-recorder/player"
	"github.com/avnlearn/manim-recorder/session"
)

// App is the desktop recorder panel: pick a device, record a take,
// listen back, and the file lands in the cache dir.
type App struct {
	cfg  config.Config
	actx audio.Context

	fyneApp fyne.App
	window  fyne.Window

	status    *widget.Label
	timer     *widget.Label
	prompt    *widget.Label
	level     *widget.ProgressBar
	deviceSel *widget.Select
	recordBtn *widget.Button
	playBtn   *widget.Button
	lastTake  *widget.Label

	devices   []audio.DeviceInfo
	manager   *session.Manager
	recordDir string
	lastPath  string
	ticking   chan struct{}
	takes     chan string
}

func NewApp(cfg config.Config) (*App, error) {
	actx, err := audio.NewContext()
	if err != nil {
		return nil, fmt.Errorf("open audio backend: %w", err)
	}
	devices, err := actx.Devices()
	if err != nil {
		actx.Close()
		return nil, err
	}
	return &App{
		cfg:       cfg,
		actx:      actx,
		devices:   devices,
		recordDir: cfg.CacheDir,
		takes:     make(chan string, 1),
	}, nil
}

func (a *App) Run() error {
	a.fyneApp = app.NewWithID("com.avnlearn.manim-recorder")
	a.fyneApp.Settings().SetTheme(&darkTheme{})
	a.window = a.fyneApp.NewWindow("manim-recorder")

	a.status = widget.NewLabel("Ready")
	a.timer = widget.NewLabel("0.0s")
	a.prompt = widget.NewLabel("")
	a.prompt.Wrapping = fyne.TextWrapWord
	a.level = widget.NewProgressBar()
	a.lastTake = widget.NewLabel("")

	names := make([]string, len(a.devices))
	for i, d := range a.devices {
		names[i] = d.Name
	}
	a.deviceSel = widget.NewSelect(names, nil)
	if a.cfg.DeviceName != "" {
		a.deviceSel.SetSelected(a.cfg.DeviceName)
	}

	a.recordBtn = widget.NewButton("Record", a.toggleRecord)
	a.playBtn = widget.NewButton("Play last take", a.playLast)
	a.playBtn.Disable()

	a.window.SetContent(container.NewVBox(
		widget.NewLabel("Input device"),
		a.deviceSel,
		a.prompt,
		container.NewHBox(a.recordBtn, a.playBtn),
		container.NewHBox(a.status, a.timer),
		a.level,
		a.lastTake,
	))
	a.window.Resize(fyne.NewSize(420, 240))
	a.window.SetCloseIntercept(func() {
		if a.manager != nil && a.manager.State() == session.Recording {
			a.manager.Stop()
		}
		a.actx.Close()
		a.fyneApp.Quit()
	})

	a.window.ShowAndRun()
	return nil
}

func (a *App) selectedDevice() *audio.DeviceInfo {
	for i, d := range a.devices {
		if d.Name == a.deviceSel.Selected {
			return &a.devices[i]
		}
	}
	return nil
}

func (a *App) toggleRecord() {
	if a.manager != nil && a.manager.State() == session.Recording {
		a.stopRecord()
		return
	}
	a.startRecord()
}

func (a *App) startRecord() {
	a.manager = session.NewManager(a.actx, session.Config{
		OutputDir:      a.recordDir,
		SampleRate:     a.cfg.SampleRate,
		Channels:       a.cfg.Channels,
		Format:         a.cfg.Format,
		Device:         a.selectedDevice(),
		MaxDuration:    a.cfg.MaxDuration,
		SilenceTimeout: a.cfg.SilenceTimeout,
		OnLevel: func(rms float64) {
			fyne.Do(func() {
				v := rms * 4
				if v > 1 {
					v = 1
				}
				a.level.SetValue(v)
			})
		},
	})
	if err := a.manager.Start(); err != nil {
		a.status.SetText("Error: " + err.Error())
		a.manager = nil
		return
	}
	player.StartCue()
	a.status.SetText("Recording")
	a.recordBtn.SetText("Stop")

	a.ticking = make(chan struct{})
	go a.pump(a.manager, a.ticking)
}

// pump keeps the timer fresh and reacts to session events until the
// take stops.
func (a *App) pump(m *session.Manager, done chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case ev := <-m.Events():
			switch ev {
			case session.EventSilenceWarn:
				fyne.Do(func() { a.status.SetText("Recording (no speech detected)") })
			case session.EventSilenceCleared:
				fyne.Do(func() { a.status.SetText("Recording") })
			case session.EventAutoStop:
				fyne.Do(a.stopRecord)
				return
			}
		case <-ticker.C:
			elapsed := m.Elapsed().Seconds()
			fyne.Do(func() { a.timer.SetText(fmt.Sprintf("%.1fs", elapsed)) })
		}
	}
}

func (a *App) stopRecord() {
	if a.manager == nil {
		return
	}
	close(a.ticking)
	player.StopCue()

	art, err := a.manager.Stop()
	a.manager = nil
	a.recordBtn.SetText("Record")
	a.level.SetValue(0)
	if err != nil {
		a.status.SetText("Error: " + err.Error())
		return
	}
	a.lastPath = art.Path
	a.status.SetText("Ready")
	a.lastTake.SetText(fmt.Sprintf("Saved %s (%.1fs)", art.Path, art.DurationSeconds))
	a.playBtn.Enable()

	select {
	case a.takes <- filepath.Base(art.Path):
	default:
	}
}

// Record implements voiceover.Recorder: the prompt goes on the panel
// and the call blocks until the user records and stops a take.
func (a *App) Record(dir, prompt string) (string, error) {
	fyne.Do(func() {
		a.recordDir = dir
		a.prompt.SetText(prompt)
	})
	name := <-a.takes
	fyne.Do(func() {
		a.prompt.SetText("")
		a.recordDir = a.cfg.CacheDir
	})
	return name, nil
}

func (a *App) playLast() {
	if a.lastPath == "" {
		return
	}
	a.playBtn.Disable()
	go func() {
		err := player.Play(context.Background(), a.lastPath)
		fyne.Do(func() {
			a.playBtn.Enable()
			if err != nil {
				a.status.SetText("Playback error: " + err.Error())
			}
		})
	}()
}
