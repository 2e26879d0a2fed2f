package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bheem-platform/workspace-cli/internal/keys"
	"github.com/bheem-platform/workspace-cli/internal/meet"
	"github.com/bheem-platform/workspace-cli/internal/session"
	"github.com/bheem-platform/workspace-cli/internal/store"
	appsync "github.com/bheem-platform/workspace-cli/internal/sync"
	"github.com/bheem-platform/workspace-cli/internal/ui"
	"github.com/bheem-platform/workspace-cli/internal/ui/doclist"
	"github.com/bheem-platform/workspace-cli/internal/ui/drivelist"
	helpview "github.com/bheem-platform/workspace-cli/internal/ui/help"
	"github.com/bheem-platform/workspace-cli/internal/ui/login"
	"github.com/bheem-platform/workspace-cli/internal/ui/maillist"
	"github.com/bheem-platform/workspace-cli/internal/ui/searchview"
	"github.com/bheem-platform/workspace-cli/internal/ui/sitelist"
	"github.com/bheem-platform/workspace-cli/internal/ui/waiting"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewMail
	ViewDrive
	ViewDocs
	ViewSites
	ViewSearch
	ViewMeet
	ViewHelp
)

// Deps carries the wired collaborators the root model routes between.
type Deps struct {
	Sessions *session.Manager
	Poller   *appsync.Poller
	Mail     *store.MailStore
	Drive    *store.DriveStore
	Docs     *store.DocsStore
	Sites    *store.SitesStore
	Search   *store.SearchStore
	Room     *meet.WaitingRoom
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the background poller lifecycle.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	deps         Deps
	keys         *keys.KeyMap
	ready        bool

	loginView  login.Model
	mailView   maillist.Model
	driveView  drivelist.Model
	docView    doclist.Model
	siteView   sitelist.Model
	searchView searchview.Model
	meetView   waiting.Model
	helpView   helpview.Model
}

// New creates the root application model. The starting view depends on
// whether a usable session was loaded before the program started.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()

	current := ViewLogin
	if deps.Sessions.Authenticated() {
		current = ViewMail
	}

	return Model{
		currentView: current,
		deps:        deps,
		keys:        k,
		loginView:   login.New(deps.Sessions, 80, 24),
		mailView:    maillist.New(deps.Mail, k, 80, 24),
		driveView:   drivelist.New(deps.Drive, k, 80, 24),
		docView:     doclist.New(deps.Docs, k, 80, 24),
		siteView:    sitelist.New(deps.Sites, k, 80, 24),
		searchView:  searchview.New(deps.Search, k, 80, 24),
		meetView:    waiting.New(deps.Room, deps.Poller, k, displayName(deps.Sessions)),
		helpView:    helpview.New(k, 80, 24),
	}
}

func displayName(s *session.Manager) string {
	if sess := s.Session(); sess != nil {
		return sess.Identity
	}
	return ""
}

// Init starts either the login flow or, with a live session, the mail
// view plus the background poller.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewMail {
		return tea.Batch(m.mailView.Init(), m.startBackground())
	}
	return m.loginView.Init()
}

// startBackground arms the pre-expiry session refresh and starts the
// unread poller.
func (m Model) startBackground() tea.Cmd {
	m.deps.Poller.ScheduleSessionRefresh()
	return m.deps.Poller.Start()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.mailView.SetSize(w, h)
		m.driveView.SetSize(w, h)
		m.docView.SetSize(w, h)
		m.siteView.SetSize(w, h)
		m.searchView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to the active view so huh forms can lay themselves out.
		return m.updateActiveView(msg)

	case login.ResultMsg:
		if msg.OK {
			m.currentView = ViewMail
			m.meetView = waiting.New(m.deps.Room, m.deps.Poller, m.keys, displayName(m.deps.Sessions))
			return m, tea.Batch(m.mailView.Init(), m.startBackground())
		}
		return m.updateActiveView(msg)

	case appsync.UnreadMsg:
		m.mailView.RefreshUnread()
		return m, m.deps.Poller.WaitForNextResult()

	case appsync.AdmissionMsg:
		var cmd tea.Cmd
		m.meetView, cmd = m.meetView.Update(msg)
		return m, tea.Batch(cmd, m.deps.Poller.WaitForNextResult())

	case appsync.SessionRefreshMsg:
		if !msg.OK && !m.deps.Sessions.Authenticated() {
			// The refresh failed and the session is gone; everything
			// from here on is unauthorized, so fall back to login.
			m.deps.Poller.Stop()
			m.currentView = ViewLogin
			m.loginView = login.New(m.deps.Sessions, m.layout.ContentWidth(), m.layout.ContentHeight())
			return m, m.loginView.Init()
		}
		if msg.OK {
			// The timer is one-shot; arm the next pre-expiry refresh
			// against the extended TTL.
			m.deps.Poller.ScheduleSessionRefresh()
		}
		return m, m.deps.Poller.WaitForNextResult()

	case waiting.JoinedMsg, waiting.LeftMsg:
		m.currentView = m.previousView
		if m.currentView == ViewMeet {
			m.currentView = ViewMail
		}
		return m, nil

	case tea.KeyMsg:
		if newM, cmd, handled := m.handleGlobalKeys(msg); handled {
			return newM, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys handles bindings that work across views. Keys are
// left to the active view while one of its text inputs has focus.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.currentView == ViewLogin || m.activeTyping() {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Logout):
		return m.logout()

	case key.Matches(msg, m.keys.GoMail):
		return m.switchTo(ViewMail, m.mailView.Init())

	case key.Matches(msg, m.keys.GoDrive):
		return m.switchTo(ViewDrive, m.driveView.Init())

	case key.Matches(msg, m.keys.GoDocs):
		return m.switchTo(ViewDocs, m.docView.Init())

	case key.Matches(msg, m.keys.GoSites):
		return m.switchTo(ViewSites, m.siteView.Init())

	case key.Matches(msg, m.keys.GoSearch):
		if m.currentView == ViewSearch {
			return m, nil, false
		}
		return m.switchTo(ViewSearch, m.searchView.Init())

	case key.Matches(msg, m.keys.GoMeet):
		m.meetView = waiting.New(m.deps.Room, m.deps.Poller, m.keys, displayName(m.deps.Sessions))
		return m.switchTo(ViewMeet, m.meetView.Init())
	}

	return m, nil, false
}

func (m Model) quit() (tea.Model, tea.Cmd, bool) {
	m.deps.Poller.Stop()
	m.deps.Poller.StopWaitingRoom()
	m.deps.Sessions.StopRefresh()
	return m, tea.Quit, true
}

// logout destroys the server session and returns to the login screen.
func (m Model) logout() (tea.Model, tea.Cmd, bool) {
	m.deps.Poller.Stop()
	m.deps.Sessions.StopRefresh()
	m.currentView = ViewLogin
	m.previousView = ViewLogin
	m.loginView = login.New(m.deps.Sessions, m.layout.ContentWidth(), m.layout.ContentHeight())

	sessions := m.deps.Sessions
	destroy := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sessions.Destroy(ctx)
		return nil
	}
	return m, tea.Batch(destroy, m.loginView.Init()), true
}

func (m Model) switchTo(v ViewState, cmd tea.Cmd) (tea.Model, tea.Cmd, bool) {
	if m.currentView == v {
		return m, nil, true
	}
	m.previousView = m.currentView
	m.currentView = v
	return m, cmd, true
}

// activeTyping reports whether the active view is capturing text input.
func (m Model) activeTyping() bool {
	switch m.currentView {
	case ViewDrive:
		return m.driveView.Typing()
	case ViewDocs:
		return m.docView.Typing()
	case ViewSites:
		return m.siteView.Typing()
	case ViewSearch:
		return m.searchView.Typing()
	case ViewMeet:
		return m.meetView.Typing()
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewMail:
		m.mailView, cmd = m.mailView.Update(msg)
	case ViewDrive:
		m.driveView, cmd = m.driveView.Update(msg)
	case ViewDocs:
		m.docView, cmd = m.docView.Update(msg)
	case ViewSites:
		m.siteView, cmd = m.siteView.Update(msg)
	case ViewSearch:
		m.searchView, cmd = m.searchView.Update(msg)
	case ViewMeet:
		m.meetView, cmd = m.meetView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Workspace"
	if total := m.deps.Mail.Unread().Total(); total > 0 {
		title = fmt.Sprintf("Workspace [%d unread]", total)
	}
	header := m.layout.RenderHeader(title, m.sessionStatus())
	banner := m.layout.RenderErrorBanner(m.activeError())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, banner, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMail:
		return m.mailView.View()
	case ViewDrive:
		return m.driveView.View()
	case ViewDocs:
		return m.docView.View()
	case ViewSites:
		return m.siteView.View()
	case ViewSearch:
		return m.searchView.View()
	case ViewMeet:
		return m.meetView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// sessionStatus returns the header's right-hand session summary.
func (m Model) sessionStatus() string {
	sess := m.deps.Sessions.Session()
	if sess == nil {
		return "signed out"
	}
	return sess.Identity
}

// activeError returns the active view's store error, if any, for the
// dismissible banner.
func (m Model) activeError() string {
	switch m.currentView {
	case ViewMail:
		return m.deps.Mail.Err()
	case ViewDrive:
		return m.deps.Drive.Err()
	case ViewDocs:
		return m.deps.Docs.Err()
	case ViewSites:
		return m.deps.Sites.Err()
	case ViewSearch:
		return m.deps.Search.Err()
	}
	return ""
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter submit | tab next field | ctrl+c quit"
	case ViewMail:
		return "enter open | s star | x delete | space mark | m more | r refresh | ? help"
	case ViewDrive:
		return "enter open | n new folder | e rename | s star | x delete | tab sort | ? help"
	case ViewDocs:
		return "n new | e title | x delete | r refresh | ? help"
	case ViewSites:
		return "enter pages | n new | s publish | x delete | ? help"
	case ViewSearch:
		return "enter search | tab filter | m more | esc clear | ? help"
	case ViewMeet:
		return "enter join | esc leave"
	case ViewHelp:
		return "? close help"
	default:
		return "q quit | ? help | 1 mail | 2 drive | 3 docs | 4 sites | / search | 5 meet"
	}
}
