package components

import (
	"strings"

	"github.com/Rorical/RoriAge/ui/styles"
)

func RenderStatus(status, provider string, loading bool, loadingDots int, width int) string {
	statusStyle := styles.StatusStyle(width)

	statusContent := status
	if loading {
		statusContent += strings.Repeat(".", loadingDots)
	}
	if provider != "" {
		statusContent += "  ·  " + provider
	}

	return statusStyle.Render(statusContent)
}
