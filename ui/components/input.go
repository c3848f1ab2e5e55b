package components

import (
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/Rorical/RoriAge/ui/styles"
)

func RenderInput(input textinput.Model, width int) string {
	inputStyle := styles.InputStyle(width)
	return inputStyle.Render(input.View())
}
