package cli

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingTickMsg struct{ Duration float64 }
type AudioLevelMsg struct{ Level float64 }
type PromptMsg struct{ Text string }
type ReviewMsg struct {
	Path            string
	DurationSeconds float64
}
type TakeSavedMsg struct {
	Path            string
	DurationSeconds float64
}
type DeviceLineMsg struct{ Text string }
type StatusMsg struct{ Text string }
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateReview
)

// reviewKeys are forwarded to the record loop while a take is under
// review: l listen, r retake, a accept.
type tuiModel struct {
	state         tuiState
	frame         int
	duration      float64
	audioLevel    float64
	peakLevel     float64
	width, height int
	prompt        string
	deviceLine    string
	statusLine    string
	reviewPath    string
	reviewDur     float64
	takeCount     int
	lastTake      string
	lastTakeDur   float64

	reviewKeys chan<- string
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	standbyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	reviewStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpBold     = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	meterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	meterHot     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	takeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func NewTUIProgram(reviewKeys chan<- string) *tea.Program {
	m := tuiModel{reviewKeys: reviewKeys}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func setTUIProgram(p *tea.Program) {
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()
}

func sendTUI(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" || key == "q" {
			return m, tea.Quit
		}
		if m.state == tuiStateReview && m.reviewKeys != nil {
			switch key {
			case "l", "r", "a":
				select {
				case m.reviewKeys <- key:
				default:
				}
			}
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.duration = 0
		m.audioLevel = 0
		m.peakLevel = 0

	case RecordingTickMsg:
		m.duration = msg.Duration

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
			if msg.Level > m.peakLevel {
				m.peakLevel = msg.Level
			}
		}

	case ReviewMsg:
		m.state = tuiStateReview
		m.audioLevel = 0
		m.reviewPath = msg.Path
		m.reviewDur = msg.DurationSeconds

	case TakeSavedMsg:
		m.state = tuiStateIdle
		m.takeCount++
		m.lastTake = msg.Path
		m.lastTakeDur = msg.DurationSeconds
		m.reviewPath = ""

	case PromptMsg:
		m.prompt = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case StatusMsg:
		m.statusLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString("\n")

	switch m.state {
	case tuiStateRecording:
		b.WriteString("  " + recStyle.Render(fmt.Sprintf("● REC %.1fs", m.duration)) + "\n")
		b.WriteString("  " + renderMeter(m.audioLevel, 40) + "\n")
		if m.duration > 1.0 && m.peakLevel < 0.02 {
			b.WriteString("  " + warnStyle.Render("⚠ no voice detected") + "\n")
		}
	case tuiStateReview:
		b.WriteString("  " + reviewStyle.Render(fmt.Sprintf("■ REVIEW %.1fs", m.reviewDur)) + "\n")
		b.WriteString("  " + mutedStyle.Render(m.reviewPath) + "\n")
		b.WriteString("  " + helpBold.Render("l") + helpStyle.Render(" listen  ") +
			helpBold.Render("r") + helpStyle.Render(" retake  ") +
			helpBold.Render("a") + helpStyle.Render(" accept") + "\n")
	default:
		b.WriteString("  " + standbyStyle.Render("○ STANDBY") + "\n")
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.prompt != "" {
		b.WriteString("  " + mutedStyle.Render("Read aloud:") + "\n")
		for _, line := range wrapLine(m.prompt, m.width-4) {
			b.WriteString("  " + promptStyle.Render(line) + "\n")
		}
		b.WriteString("\n")
	}

	if m.lastTake != "" {
		b.WriteString("  " + takeStyle.Render(fmt.Sprintf("✓ take %d saved: %s (%.1fs)",
			m.takeCount, m.lastTake, m.lastTakeDur)) + "\n\n")
	}

	if m.deviceLine != "" {
		b.WriteString("  " + mutedStyle.Render(m.deviceLine) + "\n")
	}
	if m.statusLine != "" {
		b.WriteString("  " + mutedStyle.Render(m.statusLine) + "\n")
	}
	b.WriteString("\n")
	b.WriteString("  " + helpBold.Render("Ctrl+Shift+R") + helpStyle.Render(" hold to talk, tap to toggle") + "\n")
	b.WriteString("  " + helpStyle.Render("q to quit") + "\n")
	return b.String()
}

func renderMeter(level float64, width int) string {
	filled := int(level * float64(width) * 4)
	if filled > width {
		filled = width
	}
	hot := 0
	if filled > width*3/4 {
		hot = filled - width*3/4
	}
	bar := meterStyle.Render(strings.Repeat("█", filled-hot)) +
		meterHot.Render(strings.Repeat("█", hot)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
	return bar
}

func wrapLine(text string, width int) []string {
	if width <= 0 {
		width = 40
	}
	words := strings.Fields(text)
	var lines []string
	var line strings.Builder
	for _, w := range words {
		if line.Len() > 0 && line.Len()+1+len(w) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(w)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
