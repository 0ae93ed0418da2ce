package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	first       key.Binding
	prev        key.Binding
	next        key.Binding
	last        key.Binding
	slot        key.Binding
	fetch       key.Binding
	leaderboard key.Binding
	login       key.Binding
	back        key.Binding
	quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		first:       key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		prev:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev")),
		next:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		last:        key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		slot:        key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "page button")),
		fetch:       key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fetch now")),
		leaderboard: key.NewBinding(key.WithKeys("tab", "b"), key.WithHelp("tab", "leaderboard")),
		login:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open login")),
		back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prev, k.next, k.fetch, k.leaderboard, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.first, k.prev, k.next, k.last, k.slot},
		{k.fetch, k.leaderboard, k.back},
		{k.login, k.quit},
	}
}
