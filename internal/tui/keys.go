package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextTab key.Binding
	PrevTab key.Binding
	Quit    key.Binding
	Search  key.Binding
	All     key.Binding
	User    key.Binding
	System  key.Binding
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous tab")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
		User:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "user")),
		System:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "system")),
		Up:      key.NewBinding(key.WithKeys("up", "k")),
		Down:    key.NewBinding(key.WithKeys("down", "j")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}
