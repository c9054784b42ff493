package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for tabroll.
type KeyMap struct {
	// Rolling
	RollLeft    key.Binding
	RollRight   key.Binding
	ClearStacks key.Binding

	// Tabs
	NewTab    key.Binding
	CloseTab  key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	SelectTab key.Binding

	// Windows
	NewWindow   key.Binding
	NewPopup    key.Binding
	CloseWindow key.Binding
	NextWindow  key.Binding
	PrevWindow  key.Binding

	// View
	ToggleStacks key.Binding
	ScrollDown   key.Binding
	ScrollUp     key.Binding
	CycleTheme   key.Binding
	CommandMode  key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		RollLeft: key.NewBinding(
			key.WithKeys("alt+left", "["),
			key.WithHelp("alt+← / [", "roll back to the previous tab"),
		),
		RollRight: key.NewBinding(
			key.WithKeys("alt+right", "]"),
			key.WithHelp("alt+→ / ]", "roll forward"),
		),
		ClearStacks: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear all stacks"),
		),
		NewTab: key.NewBinding(
			key.WithKeys("ctrl+t", "o"),
			key.WithHelp("ctrl+t / o", "open a tab"),
		),
		CloseTab: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("ctrl+w", "close tab"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous tab"),
		),
		SelectTab: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "select tab by position"),
		),
		NewWindow: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new window"),
		),
		NewPopup: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "new popup window (not tracked)"),
		),
		CloseWindow: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("ctrl+q", "close window"),
		),
		NextWindow: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "next window"),
		),
		PrevWindow: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "previous window"),
		),
		ToggleStacks: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle stack panel"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "scroll down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "scroll up"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "cycle theme"),
		),
		CommandMode: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command mode"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// helpSection groups bindings for the help page.
type helpSection struct {
	name     string
	bindings []key.Binding
}

func (k KeyMap) sections() []helpSection {
	return []helpSection{
		{"Rolling", []key.Binding{k.RollLeft, k.RollRight, k.ClearStacks}},
		{"Tabs", []key.Binding{k.NewTab, k.CloseTab, k.NextTab, k.PrevTab, k.SelectTab}},
		{"Windows", []key.Binding{k.NewWindow, k.NewPopup, k.CloseWindow, k.NextWindow, k.PrevWindow}},
		{"View", []key.Binding{k.ToggleStacks, k.ScrollDown, k.ScrollUp, k.CycleTheme, k.CommandMode, k.Help, k.Quit}},
	}
}
