package view

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the screens use.
type KeyMap struct {
	Start     key.Binding
	Retry     key.Binding
	Reload    key.Binding
	Submit    key.Binding
	Chat      key.Binding
	Send      key.Binding
	Back      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var Keys = KeyMap{
	Start: key.NewBinding(
		key.WithKeys("enter", "s"),
		key.WithHelp("enter/s", "start scan"),
	),
	Retry: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "try again"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "compare"),
	),
	Chat: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "chat with us"),
	),
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	// Screens with a text field only quit on ctrl+c so q can be typed.
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

// Controls lists the bindings a screen accepts, in display order.
func Controls(s Screen) []key.Binding {
	switch s {
	case ScreenLoadFailed:
		return []key.Binding{Keys.Reload, Keys.Quit}
	case ScreenCapture:
		return []key.Binding{Keys.Start, Keys.Quit}
	case ScreenNoFace:
		return []key.Binding{Keys.Retry, Keys.Quit}
	case ScreenDetectedAge:
		return []key.Binding{Keys.Submit, Keys.ForceQuit}
	case ScreenComparison:
		return []key.Binding{Keys.Retry, Keys.Chat, Keys.Quit}
	case ScreenChat:
		return []key.Binding{Keys.Send, Keys.Back, Keys.ForceQuit}
	default:
		return []key.Binding{Keys.Quit}
	}
}
