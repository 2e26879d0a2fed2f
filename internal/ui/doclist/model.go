package doclist

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

type inputMode int

const (
	inputNone inputMode = iota
	inputNewDoc
	inputTitle
)

// Model is the documents view. Renaming edits the title in place and the
// store pushes the change to the backend after typing pauses.
type Model struct {
	store  *store.DocsStore
	keys   *keys.KeyMap
	width  int
	height int

	cursor int
	docs   []model.Document
	input  textinput.Model
	mode   inputMode
	editID string
}

// New creates the documents view.
func New(s *store.DocsStore, k *keys.KeyMap, width, height int) Model {
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

// Init loads the document listing.
func (m Model) Init() tea.Cmd {
	return m.runAction(m.store.Fetch)
}

// Update handles documents view messages and key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReloadedMsg:
		m.docs = m.store.Documents()
		m.cursor = clamp(m.cursor, len(m.docs))
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.handleInputKeys(msg)
		}
		return m.handleKeys(msg)
	}

	if m.mode != inputNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode, editID := m.mode, m.editID
		m.mode = inputNone
		m.editID = ""
		m.input.Reset()
		if value == "" {
			return m, nil
		}
		switch mode {
		case inputNewDoc:
			return m, m.runAction(func(ctx context.Context) {
				m.store.Create(ctx, value, "document")
			})
		case inputTitle:
			m.store.SetTitle(editID, value)
			m.docs = m.store.Documents()
		}
		return m, nil

	case "esc":
		m.mode = inputNone
		m.editID = ""
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
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, len(m.docs))
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, len(m.docs))
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.mode = inputNewDoc
		m.input.Placeholder = "document title"
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Rename):
		if doc := m.current(); doc != nil {
			m.mode = inputTitle
			m.editID = doc.ID
			m.input.SetValue(doc.Title)
			return m, m.input.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if doc := m.current(); doc != nil {
			id := doc.ID
			return m, m.runAction(func(ctx context.Context) {
				m.store.Delete(ctx, id)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.runAction(m.store.Fetch)
	}
	return m, nil
}

func (m Model) current() *model.Document {
	if m.cursor >= len(m.docs) {
		return nil
	}
	doc := m.docs[m.cursor]
	return &doc
}

func (m Model) runAction(action func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		action(ctx)
		return ReloadedMsg{}
	}
}

// View renders the document listing.
func (m Model) View() string {
	var parts []string
	parts = append(parts, theme.AppLabelStyle("docs").Render("DOCS"))

	switch m.mode {
	case inputNewDoc:
		parts = append(parts, "New document: "+m.input.View())
	case inputTitle:
		parts = append(parts, "Title: "+m.input.View())
	}

	switch {
	case m.store.Loading() && len(m.docs) == 0:
		parts = append(parts, theme.HelpStyle.Render("loading..."))
	case len(m.docs) == 0:
		parts = append(parts, theme.DimmedStyle.Render("no documents"))
	default:
		parts = append(parts, m.renderDocs())
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderDocs() string {
	var b strings.Builder
	for i, doc := range m.docs {
		line := fmt.Sprintf("%-13s %-40.40s %s",
			doc.Kind, doc.Title, doc.ModifiedAt.Format("2006-01-02 15:04"))
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Typing reports whether a title or creation input currently has focus.
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
