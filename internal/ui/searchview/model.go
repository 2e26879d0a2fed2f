package searchview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bheem-platform/workspace-cli/internal/keys"
	"github.com/bheem-platform/workspace-cli/internal/model"
	"github.com/bheem-platform/workspace-cli/internal/store"
	"github.com/bheem-platform/workspace-cli/internal/theme"
)

// ReloadedMsg is sent after a store action finished.
type ReloadedMsg struct{}

// appFilters is the cycle applied by the sort key while searching. The
// empty app means all applications.
var appFilters = []model.SearchApp{
	"",
	model.SearchAppMail,
	model.SearchAppDrive,
	model.SearchAppDocs,
	model.SearchAppSites,
}

// Model is the cross-application search view.
type Model struct {
	store  *store.SearchStore
	keys   *keys.KeyMap
	width  int
	height int

	input   textinput.Model
	typing  bool
	cursor  int
	app     model.SearchApp
	results []model.SearchResult
}

// New creates the search view with the query input focused.
func New(s *store.SearchStore, k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "search mail, drive, docs and sites"
	ti.Width = 50
	return Model{
		store:  s,
		keys:   k,
		width:  width,
		height: height,
		input:  ti,
		typing: true,
	}
}

// Init focuses the query input.
func (m Model) Init() tea.Cmd {
	return m.input.Focus()
}

// Update handles search view messages and key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReloadedMsg:
		m.results = m.store.Results()
		m.cursor = clamp(m.cursor, len(m.results))
		return m, nil

	case tea.KeyMsg:
		if m.typing {
			return m.handleTypingKeys(msg)
		}
		return m.handleKeys(msg)
	}

	if m.typing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleTypingKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.typing = false
		m.cursor = 0
		return m, m.runAction(func(ctx context.Context) {
			m.store.Search(ctx, query)
		})

	case "esc":
		m.typing = false
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.store.Err() != "" {
			m.store.ClearErr()
			return m, nil
		}
		m.store.Clear()
		m.results = nil
		m.input.Reset()
		m.typing = true
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.GoSearch):
		m.typing = true
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, len(m.results))
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, len(m.results))
		return m, nil

	case key.Matches(msg, m.keys.CycleSort):
		m.app = nextApp(m.app)
		app := m.app
		m.cursor = 0
		return m, m.runAction(func(ctx context.Context) {
			m.store.SetApp(ctx, app)
		})

	case key.Matches(msg, m.keys.LoadMore):
		return m, m.runAction(m.store.LoadMore)
	}
	return m, nil
}

func nextApp(current model.SearchApp) model.SearchApp {
	for i, app := range appFilters {
		if app == current {
			return appFilters[(i+1)%len(appFilters)]
		}
	}
	return appFilters[0]
}

func (m Model) runAction(action func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		action(ctx)
		return ReloadedMsg{}
	}
}

// View renders the query input and result list.
func (m Model) View() string {
	var parts []string

	filter := "all"
	if m.app != "" {
		filter = string(m.app)
	}
	parts = append(parts, fmt.Sprintf("SEARCH  filter:%s", filter))
	parts = append(parts, m.input.View())

	switch {
	case m.store.Loading() && len(m.results) == 0:
		parts = append(parts, theme.HelpStyle.Render("searching..."))
	case len(m.results) == 0 && m.store.Query() != "":
		parts = append(parts, theme.DimmedStyle.Render("no results"))
	case len(m.results) > 0:
		parts = append(parts, m.renderResults())
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderResults() string {
	var b strings.Builder
	for i, res := range m.results {
		app := theme.AppLabelStyle(string(res.App)).Render(fmt.Sprintf("%-5s", res.App))
		line := fmt.Sprintf("%s %-40.40s %s", app, res.Title, theme.DimmedStyle.Render(res.Snippet))
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if m.store.HasMore() {
		b.WriteString(theme.HelpStyle.Render("m: load more"))
	}
	return b.String()
}

// Typing reports whether the query input currently has focus.
func (m Model) Typing() bool {
	return m.typing
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = min(width-4, 70)
}

func clamp(idx, length int) int {
	if length == 0 {
		return 0
	}
	if idx < 0 {
		return 0
	}
	if idx >= length {
		return length - 1
	}
	return idx
}
