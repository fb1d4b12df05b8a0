package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Search      key.Binding
	Filter      key.Binding
	Mode        key.Binding
	Status      key.Binding
	Category    key.Binding
	ClearFilter key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	Down        key.Binding
	Up          key.Binding
	PageDown    key.Binding
	PageUp      key.Binding
	Open        key.Binding
	Retry       key.Binding
	Dismiss     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Mode:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
		Status:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
		Category:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
		ClearFilter: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
		NextTab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Retry:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Dismiss:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Filter, k.NextTab, k.Open, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Filter, k.ClearFilter},
		{k.Mode, k.Status, k.Category},
		{k.NextTab, k.PrevTab, k.Open},
		{k.Down, k.Up, k.PageDown, k.PageUp},
		{k.Retry, k.Dismiss, k.Help, k.Quit},
	}
}
