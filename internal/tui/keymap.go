package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	NextPane key.Binding
	Select   key.Binding
	Back     key.Binding

	// Actions
	Query     key.Binding
	Refresh   key.Binding
	Structure key.Binding
	Insert    key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Assist    key.Binding
	Chart     key.Binding
	Settings  key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "scroll left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "scroll right"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Query: key.NewBinding(
			key.WithKeys("/", ":"),
			key.WithHelp("/", "query"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Structure: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "data/structure"),
		),
		Insert: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new row"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit row"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete row"),
		),
		Assist: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "ask AI"),
		),
		Chart: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "chart"),
		),
		Settings: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "connection"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.NextPane, k.Select},
		{k.Query, k.Refresh, k.Structure, k.Settings},
		{k.Insert, k.Edit, k.Delete},
		{k.Assist, k.Chart, k.Help, k.Quit},
	}
}

// chartKeyMap binds the chart view controls.
type chartKeyMap struct {
	Kind      key.Binding
	X         key.Binding
	Y         key.Binding
	Sort      key.Binding
	Direction key.Binding
	Legend    key.Binding
	Grid      key.Binding
	Labels    key.Binding
	LineStyle key.Binding
	Theme     key.Binding
	Export    key.Binding
	Close     key.Binding
}

func defaultChartKeyMap() chartKeyMap {
	return chartKeyMap{
		Kind:      key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "kind")),
		X:         key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "x column")),
		Y:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "y column")),
		Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Direction: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "order")),
		Legend:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "legend")),
		Grid:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "grid")),
		Labels:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "labels")),
		LineStyle: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "line style")),
		Theme:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "theme")),
		Export:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write HTML")),
		Close:     key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "close")),
	}
}

func (k chartKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Kind, k.X, k.Y, k.Sort, k.Direction, k.Legend, k.Grid, k.Labels, k.LineStyle, k.Theme, k.Export, k.Close}
}

func (k chartKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
