package input

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the browser bindings.
type KeyMap struct {
	Left      key.Binding
	Right     key.Binding
	FastLeft  key.Binding
	FastRight key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Home      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.FastLeft, k.FastRight},
		{k.ZoomIn, k.ZoomOut, k.Home},
		{k.Help, k.Quit},
	}
}

// Keys is the default key map.
var Keys = KeyMap{
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "scroll left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "scroll right"),
	),
	FastLeft: key.NewBinding(
		key.WithKeys("shift+left", "H"),
		key.WithHelp("shift+←", "page left"),
	),
	FastRight: key.NewBinding(
		key.WithKeys("shift+right", "L"),
		key.WithHelp("shift+→", "page right"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("up", "k", "+"),
		key.WithHelp("↑/+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("down", "j", "-"),
		key.WithHelp("↓/-", "zoom out"),
	),
	Home: key.NewBinding(
		key.WithKeys("0", "home"),
		key.WithHelp("0", "whole file"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
}
