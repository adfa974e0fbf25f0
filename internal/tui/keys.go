package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add         key.Binding
	Toggle      key.Binding
	Edit        key.Binding
	Delete      key.Binding
	ToggleAll   key.Binding
	Clear       key.Binding
	FilterAll   key.Binding
	FilterAct   key.Binding
	FilterDone  key.Binding
	FilterCycle key.Binding
	Dismiss     key.Binding
	Reload      key.Binding
	Quit        key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Add:         key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "add")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Edit:        key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete:      key.NewBinding(key.WithKeys("d", "x", "delete"), key.WithHelp("d", "delete")),
		ToggleAll:   key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "toggle all")),
		Clear:       key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear completed")),
		FilterAll:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		FilterAct:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "active")),
		FilterDone:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		FilterCycle: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "next filter")),
		Dismiss:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss error")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Edit, k.Delete, k.ToggleAll, k.Clear, k.FilterCycle, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Add, k.Toggle, k.Edit, k.Delete},
		{k.ToggleAll, k.Clear, k.Reload, k.Dismiss},
		{k.FilterAll, k.FilterAct, k.FilterDone, k.FilterCycle, k.Quit},
	}
}
