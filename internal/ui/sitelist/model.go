package sitelist

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

type level int

const (
	levelSites level = iota
	levelPages
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSiteName
	inputSiteSubdomain
	inputPageTitle
	inputPageSlug
)

// Model is the sites view: the site list, and a per-site page list one
// level down.
type Model struct {
	store  *store.SitesStore
	keys   *keys.KeyMap
	width  int
	height int

	level  level
	cursor int
	sites  []model.Site
	pages  []model.SitePage
	site   *model.Site // open site when level == levelPages

	input    textinput.Model
	mode     inputMode
	pendingA string // first prompt answer (name or title)
}

// New creates the sites view.
func New(s *store.SitesStore, k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Width = 40
	return Model{
		store:  s,
		keys:   k,
		width:  width,
		height: height,
		input:  ti,
	}
}

// Init loads the site listing.
func (m Model) Init() tea.Cmd {
	return m.runAction(m.store.FetchSites)
}

// Update handles sites view messages and key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReloadedMsg:
		m.sites = m.store.Sites()
		m.pages = m.store.Pages()
		m.cursor = clamp(m.cursor, m.listLen())
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.handleInputKeys(msg)
		}
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if value == "" {
			m.mode = inputNone
			m.pendingA = ""
			return m, nil
		}
		switch m.mode {
		case inputSiteName:
			m.pendingA = value
			m.mode = inputSiteSubdomain
			m.input.Placeholder = "subdomain"
			return m, m.input.Focus()
		case inputSiteSubdomain:
			name := m.pendingA
			m.mode = inputNone
			m.pendingA = ""
			return m, m.runAction(func(ctx context.Context) {
				m.store.CreateSite(ctx, name, value)
			})
		case inputPageTitle:
			m.pendingA = value
			m.mode = inputPageSlug
			m.input.Placeholder = "slug"
			return m, m.input.Focus()
		case inputPageSlug:
			title := m.pendingA
			m.mode = inputNone
			m.pendingA = ""
			return m, m.runAction(func(ctx context.Context) {
				m.store.CreatePage(ctx, title, value)
			})
		}
		return m, nil

	case "esc":
		m.mode = inputNone
		m.pendingA = ""
		m.input.Reset()
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
		if m.level == levelPages {
			m.level = levelSites
			m.site = nil
			m.cursor = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, m.listLen())
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, m.listLen())
		return m, nil

	case key.Matches(msg, m.keys.Select):
		return m.open()

	case key.Matches(msg, m.keys.New):
		if m.level == levelSites {
			m.mode = inputSiteName
			m.input.Placeholder = "site name"
		} else {
			m.mode = inputPageTitle
			m.input.Placeholder = "page title"
		}
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Star):
		// publish toggle; reuses the star binding
		if m.level == levelSites && m.cursor < len(m.sites) {
			site := m.sites[m.cursor]
			return m, m.runAction(func(ctx context.Context) {
				m.store.TogglePublish(ctx, site.ID, site.Published)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.level == levelSites && m.cursor < len(m.sites) {
			id := m.sites[m.cursor].ID
			return m, m.runAction(func(ctx context.Context) {
				m.store.DeleteSite(ctx, id)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.level == levelPages && m.site != nil {
			siteID := m.site.ID
			return m, m.runAction(func(ctx context.Context) {
				m.store.FetchPages(ctx, siteID)
			})
		}
		return m, m.runAction(m.store.FetchSites)
	}
	return m, nil
}

func (m Model) open() (Model, tea.Cmd) {
	if m.level != levelSites || m.cursor >= len(m.sites) {
		return m, nil
	}
	site := m.sites[m.cursor]
	m.level = levelPages
	m.site = &site
	m.cursor = 0
	return m, m.runAction(func(ctx context.Context) {
		m.store.FetchPages(ctx, site.ID)
	})
}

func (m Model) listLen() int {
	if m.level == levelPages {
		return len(m.pages)
	}
	return len(m.sites)
}

func (m Model) runAction(action func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		action(ctx)
		return ReloadedMsg{}
	}
}

// View renders the site or page listing.
func (m Model) View() string {
	var parts []string

	header := "SITES"
	if m.level == levelPages && m.site != nil {
		header = "SITES / " + m.site.Name
	}
	parts = append(parts, theme.AppLabelStyle("sites").Render(header))

	switch m.mode {
	case inputSiteName:
		parts = append(parts, "Site name: "+m.input.View())
	case inputSiteSubdomain:
		parts = append(parts, "Subdomain: "+m.input.View())
	case inputPageTitle:
		parts = append(parts, "Page title: "+m.input.View())
	case inputPageSlug:
		parts = append(parts, "Slug: "+m.input.View())
	}

	switch {
	case m.store.Loading() && m.listLen() == 0:
		parts = append(parts, theme.HelpStyle.Render("loading..."))
	case m.level == levelPages:
		parts = append(parts, m.renderPages())
	default:
		parts = append(parts, m.renderSites())
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderSites() string {
	if len(m.sites) == 0 {
		return theme.DimmedStyle.Render("no sites")
	}
	var b strings.Builder
	for i, site := range m.sites {
		state := theme.DimmedStyle.Render("draft")
		if site.Published {
			state = "live "
		}
		line := fmt.Sprintf("%s %-30.30s %s", state, site.Name, site.Subdomain)
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderPages() string {
	if len(m.pages) == 0 {
		return theme.DimmedStyle.Render("no pages")
	}
	var b strings.Builder
	for i, page := range m.pages {
		state := theme.DimmedStyle.Render("draft")
		if page.Published {
			state = "live "
		}
		line := fmt.Sprintf("%s %-30.30s /%s", state, page.Title, page.Slug)
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Typing reports whether a creation prompt currently has focus.
func (m Model) Typing() bool {
	return m.mode != inputNone
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = min(width-10, 60)
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
