package components

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

func RenderHelp(h help.Model, bindings []key.Binding) string {
	return h.ShortHelpView(bindings)
}
