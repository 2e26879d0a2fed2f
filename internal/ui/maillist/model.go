package maillist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bheem-platform/workspace-cli/internal/keys"
	"github.com/bheem-platform/workspace-cli/internal/model"
	"github.com/bheem-platform/workspace-cli/internal/store"
	"github.com/bheem-platform/workspace-cli/internal/theme"
)

// ReloadedMsg is sent after a store action finished so the view can
// re-read its snapshot.
type ReloadedMsg struct{}

// DetailMsg delivers a fetched message detail for the reading pane.
type DetailMsg struct {
	Detail *model.MessageDetail
	Err    error
}

// pane identifies which column has focus.
type pane int

const (
	paneFolders pane = iota
	paneMessages
)

// Model is the mail view: folder sidebar, message list, and an
// optional reading pane.
type Model struct {
	store  *store.MailStore
	keys   *keys.KeyMap
	width  int
	height int

	focus      pane
	folderIdx  int
	messageIdx int
	folders    []model.MailFolder
	messages   []model.Message
	unread     model.UnreadCounts
	detail     *model.MessageDetail
}

// New creates the mail view.
func New(s *store.MailStore, k *keys.KeyMap, width, height int) Model {
	return Model{
		store:  s,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init loads folders and the inbox.
func (m Model) Init() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		s.FetchFolders(ctx)
		if folders := s.Folders(); len(folders) > 0 {
			s.FetchMessages(ctx, folders[0].ID)
		}
		return ReloadedMsg{}
	}
}

// Update handles mail view messages and key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReloadedMsg:
		m.reload()
		return m, nil

	case DetailMsg:
		if msg.Err == nil {
			m.detail = msg.Detail
		}
		m.reload()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

// RefreshUnread re-reads the unread counts after a poller tick.
func (m *Model) RefreshUnread() {
	m.unread = m.store.Unread()
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.detail != nil {
			m.detail = nil
			return m, nil
		}
		if m.store.Err() != "" {
			m.store.ClearErr()
			return m, nil
		}
		m.focus = paneFolders
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Select):
		return m.open()

	case key.Matches(msg, m.keys.Mark):
		if m.focus == paneMessages && m.messageIdx < len(m.messages) {
			m.store.Selection().Toggle(m.messages[m.messageIdx].ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Star):
		if m.focus == paneMessages && m.messageIdx < len(m.messages) {
			msg := m.messages[m.messageIdx]
			return m, m.runAction(func(ctx context.Context) {
				m.store.ToggleStar(ctx, msg.ID, msg.IsStarred)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		return m, m.deleteSelected()

	case key.Matches(msg, m.keys.LoadMore):
		return m, m.runAction(m.store.LoadMore)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if m.focus == paneFolders {
		m.folderIdx = clamp(m.folderIdx+delta, len(m.folders))
	} else {
		m.messageIdx = clamp(m.messageIdx+delta, len(m.messages))
	}
}

// open drills into the focused folder or message.
func (m Model) open() (Model, tea.Cmd) {
	if m.focus == paneFolders {
		if m.folderIdx >= len(m.folders) {
			return m, nil
		}
		folderID := m.folders[m.folderIdx].ID
		m.focus = paneMessages
		m.messageIdx = 0
		return m, m.runAction(func(ctx context.Context) {
			m.store.FetchMessages(ctx, folderID)
		})
	}

	if m.messageIdx >= len(m.messages) {
		return m, nil
	}
	msg := m.messages[m.messageIdx]
	s := m.store
	return m, func() tea.Msg {
		ctx := context.Background()
		if !msg.IsRead {
			s.MarkRead(ctx, msg.ID)
		}
		detail, err := s.FetchDetail(ctx, msg.ID)
		return DetailMsg{Detail: detail, Err: err}
	}
}

// deleteSelected removes the marked messages, or the focused one when
// nothing is marked.
func (m Model) deleteSelected() tea.Cmd {
	ids := m.store.Selection().IDs()
	if len(ids) == 0 && m.focus == paneMessages && m.messageIdx < len(m.messages) {
		ids = []string{m.messages[m.messageIdx].ID}
	}
	if len(ids) == 0 {
		return nil
	}
	return m.runAction(func(ctx context.Context) {
		m.store.Delete(ctx, ids)
	})
}

func (m Model) refresh() tea.Cmd {
	s := m.store
	var folderID string
	if m.folderIdx < len(m.folders) {
		folderID = m.folders[m.folderIdx].ID
	}
	return func() tea.Msg {
		ctx := context.Background()
		s.FetchFolders(ctx)
		if folderID != "" {
			s.FetchMessages(ctx, folderID)
		}
		return ReloadedMsg{}
	}
}

// runAction executes a store action off the UI loop and triggers a
// snapshot reload when it settles.
func (m Model) runAction(action func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		action(ctx)
		return ReloadedMsg{}
	}
}

func (m *Model) reload() {
	m.folders = m.store.Folders()
	m.messages = m.store.Messages()
	m.unread = m.store.Unread()
	m.folderIdx = clamp(m.folderIdx, len(m.folders))
	m.messageIdx = clamp(m.messageIdx, len(m.messages))
}

// View renders the mail panes.
func (m Model) View() string {
	if m.detail != nil {
		return m.renderDetail()
	}

	sidebar := m.renderFolders()
	list := m.renderMessages()
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, list)
}

func (m Model) renderFolders() string {
	var b strings.Builder
	b.WriteString(theme.AppLabelStyle("mail").Render("FOLDERS") + "\n")
	for i, f := range m.folders {
		line := f.Name
		if n := m.unread[f.ID]; n > 0 {
			line = fmt.Sprintf("%s (%d)", f.Name, n)
		}
		b.WriteString(m.styleLine(line, i == m.folderIdx && m.focus == paneFolders, false) + "\n")
	}
	return lipgloss.NewStyle().Width(24).Render(b.String())
}

func (m Model) renderMessages() string {
	if m.store.Loading() && len(m.messages) == 0 {
		return theme.HelpStyle.Render("loading messages...")
	}
	if len(m.messages) == 0 {
		return theme.DimmedStyle.Render("no messages")
	}

	var b strings.Builder
	for i, msg := range m.messages {
		star := " "
		if msg.IsStarred {
			star = "★"
		}
		flag := "●"
		if msg.IsRead {
			flag = " "
		}
		line := fmt.Sprintf("%s %s %-24.24s %-40.40s %s",
			flag, star, msg.From, msg.Subject, relativeTime(msg.Date))
		if msg.IsRead {
			line = theme.DimmedStyle.Render(line)
		}
		marked := m.store.Selection().Has(msg.ID)
		b.WriteString(m.styleLine(line, i == m.messageIdx && m.focus == paneMessages, marked) + "\n")
	}
	if m.store.HasMore() {
		b.WriteString(theme.HelpStyle.Render("m: load more"))
	}
	return b.String()
}

func (m Model) renderDetail() string {
	d := m.detail
	header := fmt.Sprintf("From: %s\nTo: %s\nSubject: %s\nDate: %s",
		d.From, strings.Join(d.To, ", "), d.Subject, d.Date.Format(time.RFC1123))

	body := d.BodyText
	if body == "" {
		body = theme.DimmedStyle.Render("(no plain-text body)")
	}

	parts := []string{header, "", body}
	if len(d.Attachments) > 0 {
		var names []string
		for _, a := range d.Attachments {
			names = append(names, fmt.Sprintf("%s (%d bytes)", a.Filename, a.Size))
		}
		parts = append(parts, "", "Attachments: "+strings.Join(names, ", "))
	}

	return theme.PanelStyle.Width(m.width - 4).Render(strings.Join(parts, "\n"))
}

func (m Model) styleLine(line string, focused, marked bool) string {
	switch {
	case focused:
		return theme.SelectedItemStyle.Render(line)
	case marked:
		return theme.MarkedItemStyle.Render(line)
	default:
		return theme.ListItemStyle.Render(line)
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 02")
	}
}
