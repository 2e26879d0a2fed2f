package drivelist

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

// ReloadedMsg is sent after a store action finished so the view can
// re-read its snapshot.
type ReloadedMsg struct{}

// sortOrder is the cycle applied by the sort key.
var sortOrder = []model.DriveSortKey{
	model.DriveSortName,
	model.DriveSortModified,
	model.DriveSortSize,
}

// Model is the drive view: one folder listing plus the upload queue.
type Model struct {
	store  *store.DriveStore
	keys   *keys.KeyMap
	width  int
	height int

	cursor    int
	items     []model.DriveItem
	crumbs    []string // folder ids from root to the open folder
	input     textinput.Model
	inputMode store.DriveDialog
}

// New creates the drive view.
func New(s *store.DriveStore, k *keys.KeyMap, width, height int) Model {
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

// Init loads the root listing.
func (m Model) Init() tea.Cmd {
	return m.runAction(func(ctx context.Context) {
		m.store.FetchItems(ctx, "")
	})
}

// Update handles drive view messages and key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReloadedMsg:
		m.items = m.store.Items()
		m.cursor = clamp(m.cursor, len(m.items))
		return m, nil

	case tea.KeyMsg:
		if m.inputMode != store.DriveDialogNone {
			return m.handleDialogKeys(msg)
		}
		return m.handleKeys(msg)
	}

	if m.inputMode != store.DriveDialogNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleDialogKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.inputMode
		m.inputMode = store.DriveDialogNone
		m.input.Reset()
		if value == "" {
			m.store.CloseDialog()
			return m, nil
		}
		return m, m.commitDialog(mode, value)

	case "esc":
		m.inputMode = store.DriveDialogNone
		m.input.Reset()
		m.store.CloseDialog()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) commitDialog(mode store.DriveDialog, value string) tea.Cmd {
	_, target := m.store.Dialog()
	return m.runAction(func(ctx context.Context) {
		switch mode {
		case store.DriveDialogNewFolder:
			m.store.CreateFolder(ctx, value)
		case store.DriveDialogRename:
			if target != nil {
				m.store.Rename(ctx, target.ID, value)
			}
		}
	})
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.store.Err() != "" {
			m.store.ClearErr()
			return m, nil
		}
		return m.navigateUp()

	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, len(m.items))
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, len(m.items))
		return m, nil

	case key.Matches(msg, m.keys.Select):
		return m.open()

	case key.Matches(msg, m.keys.Mark):
		if item := m.current(); item != nil {
			m.store.Selection().Toggle(item.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Star):
		if item := m.current(); item != nil {
			id, starred := item.ID, item.IsStarred
			return m, m.runAction(func(ctx context.Context) {
				m.store.ToggleStar(ctx, id, starred)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.inputMode = store.DriveDialogNewFolder
		m.store.OpenDialog(store.DriveDialogNewFolder, nil)
		m.input.Placeholder = "folder name"
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Rename):
		if item := m.current(); item != nil {
			m.inputMode = store.DriveDialogRename
			m.store.OpenDialog(store.DriveDialogRename, item)
			m.input.Placeholder = item.Name
			m.input.SetValue(item.Name)
			return m, m.input.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		return m, m.deleteSelected()

	case key.Matches(msg, m.keys.CycleSort):
		m.cycleSort()
		m.items = m.store.Items()
		return m, nil

	case key.Matches(msg, m.keys.LoadMore):
		return m, m.runAction(m.store.LoadMore)

	case key.Matches(msg, m.keys.Refresh):
		folderID := m.store.FolderID()
		return m, m.runAction(func(ctx context.Context) {
			m.store.FetchItems(ctx, folderID)
		})
	}
	return m, nil
}

func (m Model) current() *model.DriveItem {
	if m.cursor >= len(m.items) {
		return nil
	}
	item := m.items[m.cursor]
	return &item
}

func (m Model) open() (Model, tea.Cmd) {
	item := m.current()
	if item == nil || !item.IsFolder {
		return m, nil
	}
	m.crumbs = append(m.crumbs, m.store.FolderID())
	m.cursor = 0
	folderID := item.ID
	return m, m.runAction(func(ctx context.Context) {
		m.store.FetchItems(ctx, folderID)
	})
}

func (m Model) navigateUp() (Model, tea.Cmd) {
	if len(m.crumbs) == 0 {
		return m, nil
	}
	parent := m.crumbs[len(m.crumbs)-1]
	m.crumbs = m.crumbs[:len(m.crumbs)-1]
	m.cursor = 0
	return m, m.runAction(func(ctx context.Context) {
		m.store.FetchItems(ctx, parent)
	})
}

func (m Model) deleteSelected() tea.Cmd {
	ids := m.store.Selection().IDs()
	if len(ids) == 0 {
		if item := m.current(); item != nil {
			ids = []string{item.ID}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return m.runAction(func(ctx context.Context) {
		m.store.Delete(ctx, ids)
	})
}

func (m *Model) cycleSort() {
	current, desc := m.store.Sort()
	for i, k := range sortOrder {
		if k == current {
			next := sortOrder[(i+1)%len(sortOrder)]
			m.store.SetSort(next, desc)
			return
		}
	}
	m.store.SetSort(sortOrder[0], desc)
}

func (m Model) runAction(action func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		action(ctx)
		return ReloadedMsg{}
	}
}

// View renders the listing, any input dialog, and the upload queue.
func (m Model) View() string {
	var parts []string

	sortKey, _ := m.store.Sort()
	header := fmt.Sprintf("DRIVE  sort:%s", sortKey)
	parts = append(parts, theme.AppLabelStyle("drive").Render(header))

	if m.inputMode != store.DriveDialogNone {
		label := "New folder:"
		if m.inputMode == store.DriveDialogRename {
			label = "Rename to:"
		}
		parts = append(parts, label+" "+m.input.View())
	}

	switch {
	case m.store.Loading() && len(m.items) == 0:
		parts = append(parts, theme.HelpStyle.Render("loading..."))
	case len(m.items) == 0:
		parts = append(parts, theme.DimmedStyle.Render("empty folder"))
	default:
		parts = append(parts, m.renderItems())
	}

	if uploads := m.store.Uploads(); len(uploads) > 0 {
		parts = append(parts, m.renderUploads(uploads))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderItems() string {
	var b strings.Builder
	for i, item := range m.items {
		icon := "·"
		if item.IsFolder {
			icon = "▸"
		}
		star := " "
		if item.IsStarred {
			star = "★"
		}
		line := fmt.Sprintf("%s %s %-40.40s %10s  %s",
			icon, star, item.Name, sizeLabel(item), item.ModifiedAt.Format("2006-01-02 15:04"))

		switch {
		case i == m.cursor:
			line = theme.SelectedItemStyle.Render(line)
		case m.store.Selection().Has(item.ID):
			line = theme.MarkedItemStyle.Render(line)
		default:
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if m.store.HasMore() {
		b.WriteString(theme.HelpStyle.Render("m: load more"))
	}
	return b.String()
}

func (m Model) renderUploads(uploads []model.UploadItem) string {
	var b strings.Builder
	b.WriteString(theme.HelpStyle.Render("uploads:") + "\n")
	for _, u := range uploads {
		state := theme.UploadStateStyle(string(u.State)).Render(string(u.State))
		line := fmt.Sprintf("  %s %s", u.Name, state)
		if u.Error != "" {
			line += " " + theme.DimmedStyle.Render(u.Error)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func sizeLabel(item model.DriveItem) string {
	if item.IsFolder {
		return "-"
	}
	return fmt.Sprintf("%d B", item.Size)
}

// Typing reports whether a dialog input currently has focus.
func (m Model) Typing() bool {
	return m.inputMode != store.DriveDialogNone
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
