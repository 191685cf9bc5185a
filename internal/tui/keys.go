package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Pause  key.Binding
	Cancel key.Binding
	Yes    key.Binding
	No     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "pause/resume"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c", "ctrl+c"),
			key.WithHelp("c", "cancel"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "overwrite"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "keep existing"),
		),
	}
}

// copyKeys is the help view while copying.
type copyKeys struct{ keyMap }

func (k copyKeys) ShortHelp() []key.Binding { return []key.Binding{k.Pause, k.Cancel} }

func (k copyKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// promptKeys is the help view while a conflict decision is pending.
type promptKeys struct{ keyMap }

func (k promptKeys) ShortHelp() []key.Binding { return []key.Binding{k.Yes, k.No, k.Cancel} }

func (k promptKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
