package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	quit       key.Binding
	nextFocus  key.Binding
	prevFocus  key.Binding
	nextTab    key.Binding
	prevTab    key.Binding
	submitTab  key.Binding
	queryTab   key.Binding
	submit     key.Binding
	submitArea key.Binding
	play       key.Binding
	blur       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		nextFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		prevFocus: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev field"),
		),
		nextTab: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "next tab"),
		),
		prevTab: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "prev tab"),
		),
		submitTab: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "提交作品"),
		),
		queryTab: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "查詢評語"),
		),
		submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		submitArea: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "send work"),
		),
		play: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "read aloud"),
		),
		blur: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave field"),
		),
	}
}

func (k keyMap) helpLine(bindings ...key.Binding) []string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return parts
}
