package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	archive key.Binding
	delete  key.Binding
	ignore  key.Binding
	back    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		archive: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive")),
		delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		ignore:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "ignore")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.archive, k.delete, k.ignore},
		{k.back, k.quit},
	}
}
