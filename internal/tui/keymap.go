package tui

import (
	"charm.land/bubbles/v2/key"
)

type keyMap struct {
	Quit       key.Binding
	ForceQuit  key.Binding
	TabNext    key.Binding
	TabPrev    key.Binding
	Up         key.Binding
	Down       key.Binding
	Refresh    key.Binding
	ToggleHelp key.Binding

	View1 key.Binding
	View2 key.Binding

	FieldNext key.Binding
	FieldPrev key.Binding
	Save      key.Binding
	Reset     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		TabNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		TabPrev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev tab"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "move down"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		View1: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "pull requests"),
		),
		View2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "auth"),
		),
		FieldNext: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "next field"),
		),
		FieldPrev: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "prev field"),
		),
		Save: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save tokens"),
		),
		Reset: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "discard edits"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.TabNext,
		k.Up,
		k.Down,
		k.Refresh,
		k.ToggleHelp,
		k.Quit,
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TabNext, k.TabPrev, k.View1, k.View2, k.ToggleHelp, k.Quit, k.ForceQuit},
		{k.Up, k.Down, k.Refresh},
		{k.FieldPrev, k.FieldNext, k.Save, k.Reset},
	}
}

// authKeyMap is shown while the auth page has keyboard focus, where plain
// letters go to the token inputs.
type authKeyMap struct {
	keys keyMap
}

func (k authKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.keys.TabNext, k.keys.FieldNext, k.keys.Save, k.keys.Reset, k.keys.ForceQuit}
}

func (k authKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.keys.TabNext, k.keys.TabPrev, k.keys.ForceQuit},
		{k.keys.FieldPrev, k.keys.FieldNext, k.keys.Save, k.keys.Reset},
	}
}
