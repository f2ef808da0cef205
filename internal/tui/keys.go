package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit    key.Binding
	Skip      key.Binding
	Escalate  key.Binding
	Save      key.Binding
	AutoPause key.Binding
	Play      key.Binding
	Back      key.Binding
	Forward   key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "check")),
		Skip:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "skip")),
		Escalate:  key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "ask AI")),
		Save:      key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "save card")),
		AutoPause: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "auto-pause")),
		Play:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Back:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-5s")),
		Forward:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+5s")),
		Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp is shown while watching. Review keys only matter once the video paused.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Back, k.Forward, k.AutoPause, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Escalate, k.Skip, k.Save},
		k.ShortHelp(),
	}
}

func (k keyMap) reviewHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Escalate, k.Skip, k.Save, k.AutoPause, k.Quit}
}
