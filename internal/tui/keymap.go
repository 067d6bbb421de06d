package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	NextTab  key.Binding
	NewChat  key.Binding
	NewSaved key.Binding
	Logout   key.Binding
	Refresh  key.Binding
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Enter    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch tab")),
		NewChat:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		NewSaved: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "new saved chat")),
		Logout:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "logout")),
		Refresh:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Select:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send/open")),
	}
}
