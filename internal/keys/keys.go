package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection / actions
	Select    key.Binding
	Mark      key.Binding
	Star      key.Binding
	Delete    key.Binding
	New       key.Binding
	Rename    key.Binding
	LoadMore  key.Binding
	CycleSort key.Binding

	// App switching
	GoMail   key.Binding
	GoDrive  key.Binding
	GoDocs   key.Binding
	GoSites  key.Binding
	GoSearch key.Binding
	GoMeet   key.Binding

	// Misc
	Refresh key.Binding
	Help    key.Binding
	Back    key.Binding
	Logout  key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Mark: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select item"),
		),
		Star: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "star/unstar"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Rename: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rename"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "load more"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle sort"),
		),
		GoMail: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "mail"),
		),
		GoDrive: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "drive"),
		),
		GoDocs: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "docs"),
		),
		GoSites: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "sites"),
		),
		GoSearch: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		GoMeet: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "meet"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "log out"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the mini help line.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Refresh, k.GoSearch, k.Help, k.Quit}
}

// FullHelp returns the binding groups shown in the help overlay.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back},
		{k.Mark, k.Star, k.Delete, k.New, k.Rename},
		{k.GoMail, k.GoDrive, k.GoDocs, k.GoSites, k.GoSearch, k.GoMeet},
		{k.LoadMore, k.CycleSort, k.Refresh, k.Help, k.Logout, k.Quit},
	}
}
