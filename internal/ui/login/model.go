package login

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/bheem-platform/workspace-cli/internal/session"
	"github.com/bheem-platform/workspace-cli/internal/theme"
)

// ResultMsg reports a login attempt. On success the app switches to the
// mail view and schedules the pre-expiry refresh.
type ResultMsg struct {
	OK  bool
	Err string
}

// Model is the login form view.
type Model struct {
	sessions *session.Manager
	form     *huh.Form
	identity string
	secret   string
	errMsg   string
	busy     bool
	width    int
	height   int
}

// New creates the login view bound to the session manager.
func New(sessions *session.Manager, width, height int) Model {
	m := Model{
		sessions: sessions,
		width:    width,
		height:   height,
	}
	m.form = m.newForm()
	return m
}

func (m *Model) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("identity").
				Title("Email").
				Value(&m.identity),
			huh.NewInput().
				Key("secret").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.secret),
		),
	)
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles form input and submission.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if r, ok := msg.(ResultMsg); ok {
		m.busy = false
		if !r.OK {
			m.errMsg = r.Err
			m.secret = ""
			m.form = m.newForm()
			return m, m.form.Init()
		}
		return m, nil
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		m.errMsg = ""
		return m, m.submit()
	}

	return m, cmd
}

// submit runs the session-creation call off the UI loop. The secret is
// handed to the manager and discarded; only the boolean and the
// manager's error string come back.
func (m Model) submit() tea.Cmd {
	sessions := m.sessions
	identity, secret := m.identity, m.secret
	return func() tea.Msg {
		ok := sessions.Create(context.Background(), identity, secret)
		if ok {
			return ResultMsg{OK: true}
		}
		return ResultMsg{OK: false, Err: sessions.LastError()}
	}
}

// View renders the login form with any error below it.
func (m Model) View() string {
	parts := []string{
		theme.HeaderStyle.Render("Sign in to Workspace"),
		m.form.View(),
	}
	if m.busy {
		parts = append(parts, theme.HelpStyle.Render("signing in..."))
	}
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorBannerStyle.Render(m.errMsg))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return theme.PanelStyle.Width(min(m.width-4, 60)).Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
