package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-vizmix/app"
	"go-vizmix/audio"
	"go-vizmix/midi"
	"go-vizmix/params"
	"go-vizmix/video"
)

// Render tick cadence; audio analysis runs once per frame.
const tickRate = time.Second / 60

const meterWidth = 32

type Model struct {
	App *app.App

	snapshot  *audio.Snapshot
	frame     params.Frame
	lastCC    *midi.Change
	beatFlash int
	quitting  bool
}

type TickMsg time.Time

type ChangeMsg midi.Change

type DeviceEventMsg midi.DeviceEvent

type VideoMsg struct{}

func NewModel(a *app.App) Model {
	return Model{App: a}
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func ListenForChanges(a *app.App) tea.Cmd {
	return func() tea.Msg {
		return ChangeMsg(<-a.Changes)
	}
}

func ListenForDevices(a *app.App) tea.Cmd {
	return func() tea.Msg {
		return DeviceEventMsg(<-a.Controller.Events())
	}
}

func ListenForVideos(a *app.App) tea.Cmd {
	return func() tea.Msg {
		<-a.Videos.UpdateChan
		return VideoMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(),
		ListenForChanges(m.App),
		ListenForDevices(m.App),
		ListenForVideos(m.App),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.App.Shutdown()
			return m, tea.Quit
		case " ":
			m.App.Videos.Toggle()
		case "n":
			m.App.Videos.Next()
		case "p":
			m.App.Videos.Previous()
		case "[":
			m.App.Videos.SetPlaybackRate(m.App.Videos.PlaybackRate() - 0.25)
		case "]":
			m.App.Videos.SetPlaybackRate(m.App.Videos.PlaybackRate() + 0.25)
		case "r":
			m.App.Mapper.ResetToDefaults()
			m.App.Mapper.ApplyDefaults(m.App.Params)
		case "s":
			m.App.Mapper.SaveValues()
		case "l":
			// Re-bind the most recently touched parameter to whichever
			// knob the operator turns next.
			if m.lastCC != nil {
				m.App.Learn.StartLearning(m.lastCC.CC, m.lastCC.Mapping.Name,
					midi.LearnCallbacks{})
			}
		case "esc":
			m.App.Learn.CancelLearning()
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			n := int(msg.String()[0] - '0')
			m.App.Presets.LoadSlot(n)
		}
		return m, nil

	case TickMsg:
		frame, snap := m.App.Tick()
		m.frame = frame
		if snap != nil {
			m.snapshot = snap
			if snap.IsBeat {
				m.beatFlash = 6
			} else if m.beatFlash > 0 {
				m.beatFlash--
			}
		}
		return m, tick()

	case ChangeMsg:
		ch := midi.Change(msg)
		m.lastCC = &ch
		return m, ListenForChanges(m.App)

	case DeviceEventMsg:
		return m, ListenForDevices(m.App)

	case VideoMsg:
		return m, ListenForVideos(m.App)
	}

	return m, nil
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	meterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("84"))
	peakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	beatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
)

// meter renders one band as a bar with a peak marker.
func meter(level, peak float64) string {
	filled := int(level * meterWidth)
	peakPos := int(peak * meterWidth)
	if filled > meterWidth {
		filled = meterWidth
	}
	if peakPos >= meterWidth {
		peakPos = meterWidth - 1
	}

	var b strings.Builder
	for i := 0; i < meterWidth; i++ {
		switch {
		case i == peakPos && peak > 0:
			b.WriteString(peakStyle.Render("|"))
		case i < filled:
			b.WriteString(meterStyle.Render("█"))
		default:
			b.WriteString(dimStyle.Render("·"))
		}
	}
	return b.String()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var out strings.Builder

	device := m.App.Controller.ActiveDevice()
	if device == "" {
		device = "no MIDI device"
	}
	beat := "    "
	if m.beatFlash > 0 {
		beat = beatStyle.Render("BEAT")
	}
	out.WriteString(headerStyle.Render(
		fmt.Sprintf("go-vizmix  %s  %s", device, beat)))
	out.WriteString("\n\n")

	if m.snapshot != nil {
		bands := m.App.Audio.Analyzer().BandLevels()
		for _, bl := range bands {
			out.WriteString(fmt.Sprintf("%-9s %s\n", bl.Name, meter(bl.Level, bl.Peak)))
		}
		out.WriteString(fmt.Sprintf("%-9s rms %.2f  peak %.2f  conf %.2f",
			"", m.snapshot.RMS, m.snapshot.Peak, m.snapshot.Beat.Confidence))
		hits := ""
		if m.snapshot.Beat.Kick {
			hits += " KICK"
		}
		if m.snapshot.Beat.Snare {
			hits += " SNARE"
		}
		if m.snapshot.Beat.HiHat {
			hits += " HAT"
		}
		out.WriteString(beatStyle.Render(hits))
		out.WriteString("\n")
	} else {
		out.WriteString(dimStyle.Render("audio inactive"))
		out.WriteString("\n")
	}
	out.WriteString("\n")

	if m.lastCC != nil {
		out.WriteString(fmt.Sprintf("CC %d %s = %.3f\n",
			m.lastCC.CC, m.lastCC.Mapping.Name, m.lastCC.Scaled))
	}
	if target, listening := m.App.Learn.Listening(); listening {
		out.WriteString(beatStyle.Render(
			fmt.Sprintf("LEARN: turn a knob to bind CC %d", target)))
		out.WriteString("\n")
	}
	out.WriteString("\n")

	entries := m.App.Videos.Entries()
	currentIdx := m.App.Videos.CurrentIndex()
	state := m.App.Videos.State()
	out.WriteString(dimStyle.Render(fmt.Sprintf("playlist (%s, %.2fx):",
		state, m.App.Videos.PlaybackRate())))
	out.WriteString("\n")
	for i, e := range entries {
		marker := "  "
		if i == currentIdx && state != video.Empty {
			marker = "▶ "
		}
		out.WriteString(fmt.Sprintf("%s%-30s %5.1fs %dx%d\n",
			marker, e.Name, e.Duration, e.Width, e.Height))
	}
	if len(entries) == 0 {
		out.WriteString(dimStyle.Render("  (empty)"))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render(
		"space:play/pause  n/p:next/prev  [/]:rate  l:learn  r:reset  s:save  1-9:slots  q:quit"))
	return out.String()
}
