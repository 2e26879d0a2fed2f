package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bheem-platform/workspace-cli/internal/keys"
	"github.com/bheem-platform/workspace-cli/internal/theme"
)

// section is one titled group of bindings in the overlay.
type section struct {
	title    string
	bindings []key.Binding
}

// Model is the help overlay: the full keymap rendered as titled
// columns, one per concern.
type Model struct {
	sections []section
	width    int
	height   int
}

// New creates the help overlay for the given keymap.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		width:  width,
		height: height,
		sections: []section{
			{"Navigate", []key.Binding{k.Up, k.Down, k.Select, k.Back}},
			{"Act", []key.Binding{k.Mark, k.Star, k.Delete, k.New, k.Rename}},
			{"Apps", []key.Binding{k.GoMail, k.GoDrive, k.GoDocs, k.GoSites, k.GoSearch, k.GoMeet}},
			{"Session", []key.Binding{k.LoadMore, k.CycleSort, k.Refresh, k.Logout, k.Quit}},
		},
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the shortcut columns inside a framed panel.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue)
	keyStyle := lipgloss.NewStyle().Foreground(theme.ColorYellow)

	cols := make([]string, 0, len(m.sections))
	for _, sec := range m.sections {
		var b strings.Builder
		b.WriteString(sectionStyle.Render(sec.title) + "\n")
		for _, binding := range sec.bindings {
			h := binding.Help()
			b.WriteString(keyStyle.Render(padKey(h.Key)) + " " + h.Desc + "\n")
		}
		cols = append(cols, lipgloss.NewStyle().MarginRight(4).Render(b.String()))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		theme.HelpStyle.Render("? closes this overlay"),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

func padKey(k string) string {
	const w = 7
	if len(k) >= w {
		return k
	}
	return k + strings.Repeat(" ", w-len(k))
}

// SetSize updates the overlay dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
