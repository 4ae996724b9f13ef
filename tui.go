package main

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"parlo/clipboard"
	"parlo/lang"
	"parlo/playback"
	"parlo/remote"
	"parlo/session"
)

// TUI message types
type flowDoneMsg struct{ err error }
type speakDoneMsg struct{ err error }

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	pairStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	recPane     = paneStyle.BorderForeground(lipgloss.Color("196"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	recStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	copiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type tuiModel struct {
	ctrl   *session.Controller
	player *playback.Player

	width, height int
	editing       bool
	input         textinput.Model
	spin          spinner.Model
	status        string
	copied        string // which pane was last copied, "" when none
	deviceLine    string
	btWarning     bool
}

func newTUIModel(ctrl *session.Controller, player *playback.Player, deviceLine string, bt bool) tuiModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return tuiModel{
		ctrl:       ctrl,
		player:     player,
		input:      ti,
		spin:       sp,
		deviceLine: deviceLine,
		btWarning:  bt,
	}
}

func NewTUIProgram(ctrl *session.Controller, player *playback.Player, deviceLine string, bt bool) *tea.Program {
	return tea.NewProgram(newTUIModel(ctrl, player, deviceLine, bt), tea.WithAltScreen())
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) stopRecordingCmd() tea.Cmd {
	m.player.PlayCue(playback.CueEnd)
	return tea.Batch(
		func() tea.Msg { return flowDoneMsg{err: m.ctrl.StopRecording()} },
		m.spin.Tick,
	)
}

func (m tuiModel) retranslateCmd() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return flowDoneMsg{err: m.ctrl.Retranslate()} },
		m.spin.Tick,
	)
}

func (m tuiModel) speakCmd(text, code string) tea.Cmd {
	return func() tea.Msg { return speakDoneMsg{err: m.ctrl.Speak(text, code)} }
}

func flowStatus(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, remote.ErrUnreachable):
		return "server unreachable — is it running?"
	case errors.Is(err, remote.ErrService):
		return "server error: " + err.Error()
	case errors.Is(err, session.ErrBusy):
		return "busy — translation in flight"
	default:
		return err.Error()
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case flowDoneMsg:
		m.status = flowStatus(msg.err)
		m.copied = ""
		return m, nil

	case speakDoneMsg:
		if msg.err != nil {
			m.status = flowStatus(msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		// Keep ticking through the whole flow; the Processing check cannot
		// live here because the flow goroutine may not have flipped the
		// state before the first tick lands.
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.ctrl.Snapshot().State != session.Processing {
			return m, nil
		}
		return m, cmd

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m tuiModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.input.Blur()
		m.ctrl.SetTranscript(m.input.Value())
		m.status = ""
		return m, m.retranslateCmd()
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.ctrl.Snapshot()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ":
		switch snap.State {
		case session.Idle:
			if err := m.ctrl.StartRecording(); err != nil {
				m.status = flowStatus(err)
				return m, nil
			}
			m.player.PlayCue(playback.CueStart)
			m.status = ""
			m.copied = ""
		case session.Recording:
			m.status = ""
			return m, m.stopRecordingCmd()
		}
		return m, nil

	case "t":
		if snap.State != session.Idle {
			return m, nil
		}
		m.status = ""
		return m, m.retranslateCmd()

	case "w":
		if err := m.ctrl.SwapLanguages(); err != nil {
			m.status = flowStatus(err)
		} else {
			m.status = ""
		}
		return m, nil

	case "e":
		if snap.State != session.Idle {
			return m, nil
		}
		m.editing = true
		m.input.SetValue(snap.Transcript)
		m.input.CursorEnd()
		m.input.Focus()
		return m, textinput.Blink

	case "p":
		return m, m.speakCmd(snap.Translation, snap.Target)

	case "o":
		return m, m.speakCmd(snap.Transcript, snap.Source)

	case "c":
		if snap.Translation != "" {
			if err := clipboard.Copy(snap.Translation); err != nil {
				m.status = "clipboard: " + err.Error()
			} else {
				m.copied = "translation"
			}
		}
		return m, nil

	case "y":
		if snap.Transcript != "" {
			if err := clipboard.Copy(snap.Transcript); err != nil {
				m.status = "clipboard: " + err.Error()
			} else {
				m.copied = "transcript"
			}
		}
		return m, nil

	case "l":
		if snap.State != session.Processing {
			m.ctrl.SetLanguages(lang.Next(snap.Source), "")
		}
		return m, nil

	case "L":
		if snap.State != session.Processing {
			m.ctrl.SetLanguages("", lang.Next(snap.Target))
		}
		return m, nil
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	snap := m.ctrl.Snapshot()

	paneWidth := m.width - 6
	if paneWidth < 20 {
		paneWidth = 20
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("parlo") + "  " +
		pairStyle.Render(lang.Label(snap.Source)+" → "+lang.Label(snap.Target)) + "\n")
	device := m.deviceLine
	if m.btWarning {
		device += errStyle.Render("  (bluetooth mic: expect degraded quality)")
	}
	b.WriteString(dimStyle.Render(device) + "\n\n")

	// Transcript pane
	srcLabel := labelStyle.Render(lang.Label(snap.Source))
	if m.copied == "transcript" {
		srcLabel += " " + copiedStyle.Render("[✓ copied]")
	}
	b.WriteString(srcLabel + "\n")
	style := paneStyle
	var transcript string
	switch {
	case m.editing:
		transcript = m.input.View()
	case snap.State == session.Recording:
		style = recPane
		transcript = recStyle.Render("● recording — space to stop")
	case snap.Transcript == "":
		transcript = dimStyle.Render("space to record, e to type")
	default:
		transcript = textStyle.Render(snap.Transcript)
	}
	b.WriteString(style.Width(paneWidth).Render(transcript) + "\n\n")

	// Translation pane
	tgtLabel := labelStyle.Render(lang.Label(snap.Target))
	if m.copied == "translation" {
		tgtLabel += " " + copiedStyle.Render("[✓ copied]")
	}
	b.WriteString(tgtLabel + "\n")
	var translation string
	switch {
	case snap.State == session.Processing:
		translation = m.spin.View() + dimStyle.Render(" translating...")
	case snap.Translation == "":
		translation = dimStyle.Render("translation appears here")
	default:
		translation = textStyle.Render(snap.Translation)
	}
	b.WriteString(paneStyle.Width(paneWidth).Render(translation) + "\n")

	if m.status != "" {
		b.WriteString("\n" + errStyle.Render(m.status) + "\n")
	}

	b.WriteString("\n" + helpLine(m.editing) + "\n")
	b.WriteString(helpStyle.Render("parlo "+version) + "\n")

	return b.String()
}

func helpLine(editing bool) string {
	if editing {
		return helpKey.Render("enter") + helpStyle.Render(" retranslate  ") +
			helpKey.Render("esc") + helpStyle.Render(" cancel")
	}
	keys := []struct{ key, label string }{
		{"space", "record"},
		{"e", "edit"},
		{"t", "retranslate"},
		{"w", "swap"},
		{"p/o", "speak"},
		{"c/y", "copy"},
		{"l/L", "languages"},
		{"q", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = helpKey.Render(k.key) + helpStyle.Render(" "+k.label)
	}
	return strings.Join(parts, helpStyle.Render("  "))
}

