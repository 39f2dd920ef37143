package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	tab     key.Binding
	focus   key.Binding
	reload  key.Binding
	stage   key.Binding
	unstage key.Binding
	public  key.Binding
	create  key.Binding
	play    key.Binding
	clear   key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		tab:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "switch tab")),
		focus:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		reload:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		stage:   key.NewBinding(key.WithKeys("enter", "a"), key.WithHelp("enter/a", "add")),
		unstage: key.NewBinding(key.WithKeys("x", "delete", "backspace"), key.WithHelp("x", "remove")),
		public:  key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "public/private")),
		create:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "create playlist")),
		play:    key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "play on YouTube")),
		clear:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.tab, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.tab, k.focus, k.reload, k.clear},
		{k.stage, k.unstage, k.public, k.create},
		{k.play, k.quit},
	}
}
