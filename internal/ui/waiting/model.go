package waiting

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bheem-platform/workspace-cli/internal/keys"
	"github.com/bheem-platform/workspace-cli/internal/meet"
	"github.com/bheem-platform/workspace-cli/internal/sync"
	"github.com/bheem-platform/workspace-cli/internal/theme"
)

// JoinedMsg signals the host admitted us and the waiting screen can close.
type JoinedMsg struct{}

// LeftMsg signals the user abandoned the waiting room.
type LeftMsg struct{}

// errMsg carries a join failure into the view.
type errMsg struct{ msg string }

type phase int

const (
	phasePrompt phase = iota
	phaseWaiting
)

// Model is the meeting screen: first a prompt for the meeting id, then
// the waiting room shown until the host admits us.
type Model struct {
	room   *meet.WaitingRoom
	poller *sync.Poller
	keys   *keys.KeyMap
	name   string

	phase     phase
	meetingID string
	input     textinput.Model
	spin      spinner.Model
	err       string
}

// New creates the meeting screen with the id prompt focused.
func New(room *meet.WaitingRoom, poller *sync.Poller, k *keys.KeyMap, displayName string) Model {
	ti := textinput.New()
	ti.Placeholder = "meeting id"
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.HelpStyle

	return Model{
		room:   room,
		poller: poller,
		keys:   k,
		name:   displayName,
		input:  ti,
		spin:   sp,
	}
}

// Init focuses the meeting id prompt.
func (m Model) Init() tea.Cmd {
	return m.input.Focus()
}

func (m Model) join() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.room.Join(ctx, m.meetingID, m.name); err != nil {
			return errMsg{msg: "could not join the meeting"}
		}
		m.poller.StartWaitingRoom(m.room)
		return nil
	}
}

// Update handles the id prompt, admission results, and key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sync.AdmissionMsg:
		if msg.Admitted {
			m.poller.StopWaitingRoom()
			return m, func() tea.Msg { return JoinedMsg{} }
		}
		return m, nil

	case errMsg:
		m.err = msg.msg
		m.phase = phasePrompt
		return m, m.input.Focus()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.phase == phasePrompt {
			return m.handlePromptKeys(msg)
		}
		if key.Matches(msg, m.keys.Back) {
			m.poller.StopWaitingRoom()
			return m, m.leave()
		}
		return m, nil
	}

	if m.phase == phasePrompt {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handlePromptKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		id := strings.TrimSpace(m.input.Value())
		if id == "" {
			return m, nil
		}
		m.meetingID = id
		m.phase = phaseWaiting
		m.err = ""
		return m, tea.Batch(m.spin.Tick, m.join())

	case "esc":
		return m, func() tea.Msg { return LeftMsg{} }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) leave() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m.room.Leave(ctx)
		return LeftMsg{}
	}
}

// Typing reports whether the id prompt currently has input focus.
func (m Model) Typing() bool {
	return m.phase == phasePrompt
}

// View renders the prompt or the waiting state.
func (m Model) View() string {
	if m.phase == phasePrompt {
		parts := []string{
			theme.AppLabelStyle("meet").Render("MEET"),
			"Join meeting: " + m.input.View(),
			theme.HelpStyle.Render("enter: join | esc: back"),
		}
		if m.err != "" {
			parts = append(parts, theme.ErrorBannerStyle.Render(m.err))
		}
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		theme.AppLabelStyle("meet").Render("MEET"),
		m.spin.View()+" waiting for the host to let you in",
		theme.DimmedStyle.Render("meeting "+m.meetingID),
		theme.HelpStyle.Render("esc: leave"),
	)
}
