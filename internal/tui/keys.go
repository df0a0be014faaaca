package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the search view
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding

	// Actions
	Quit           key.Binding
	Escape         key.Binding
	QuickFilter    key.Binding
	ToggleLocal    key.Binding
	ToggleClient   key.Binding
	ToggleMetadata key.Binding
	CycleType      key.Binding
	InLibrary      key.Binding
	ClearRecent    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑/C-p", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓/C-n", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),

		// Actions
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear/quit"),
		),
		QuickFilter: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "narrow results"),
		),
		ToggleLocal: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "library"),
		),
		ToggleClient: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("C-k", "clients"),
		),
		ToggleMetadata: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "metadata"),
		),
		CycleType: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "media type"),
		),
		InLibrary: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "owned only"),
		),
		ClearRecent: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "clear recent"),
		),
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()

// ShortHelp lists the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.QuickFilter, k.ToggleLocal, k.ToggleClient, k.ToggleMetadata, k.CycleType, k.InLibrary, k.Escape}
}
