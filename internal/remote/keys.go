package remote

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the remote's key bindings
type keyMap struct {
	Power  key.Binding
	Mode   key.Binding
	Fan    key.Binding
	Preset key.Binding
	Warmer key.Binding
	Cooler key.Binding
	Send   key.Binding
	Reset  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Power, k.Mode, k.Warmer, k.Cooler, k.Send, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Power, k.Mode, k.Fan, k.Preset},
		{k.Warmer, k.Cooler},
		{k.Send, k.Reset, k.Help, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Power: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "power"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mode"),
		),
		Fan: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fan"),
		),
		Preset: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "eco/sleep"),
		),
		Warmer: key.NewBinding(
			key.WithKeys("up", "k", "+"),
			key.WithHelp("↑/+", "warmer"),
		),
		Cooler: key.NewBinding(
			key.WithKeys("down", "j", "-"),
			key.WithHelp("↓/-", "cooler"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "send"),
		),
		Reset: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "undo edits"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
