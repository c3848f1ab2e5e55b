package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rorical/RoriAge/internal/models"
	"github.com/Rorical/RoriAge/internal/view"
	"github.com/Rorical/RoriAge/ui/styles"
)

// RenderScreen draws the body of the current screen.
func RenderScreen(screen view.Screen, m models.AppModel) string {
	var body string
	switch screen {
	case view.ScreenLoading:
		body = renderLoading(m.LoadingDots)
	case view.ScreenLoadFailed:
		body = renderLoadFailed(m.LoaderErr)
	case view.ScreenCapture:
		body = "Look at the camera and start a scan when you are ready."
	case view.ScreenScanning:
		body = renderScanning(m.Session, m.TickInterval, m.LoadingDots)
	case view.ScreenNoFace:
		body = renderNoFace()
	case view.ScreenDetectedAge:
		body = renderDetectedAge(m)
	case view.ScreenComparison:
		body = renderComparison(m.Comparison)
	case view.ScreenChat:
		return RenderMessages(m.Chat) + RenderInput(m.ChatInput, m.Width)
	}
	return styles.PanelStyle(m.Width).Render(body)
}

func renderLoading(dots int) string {
	return "Loading face analysis models" + strings.Repeat(".", dots)
}

func renderLoadFailed(err error) string {
	var b strings.Builder
	b.WriteString(styles.ErrorStyle().Render("Could not load the face analysis models."))
	b.WriteString("\n\n")
	if err != nil {
		b.WriteString(styles.HintStyle().Render(err.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString("Check your connection and profile, then reload.")
	return b.String()
}

func renderScanning(s models.SessionSnapshot, interval time.Duration, dots int) string {
	badge := styles.BadgeStyle().Render(countdown(s.Remaining, interval))
	return fmt.Sprintf("%s  Scanning%s\n\n%s",
		badge,
		strings.Repeat(".", dots),
		styles.HintStyle().Render(fmt.Sprintf("Keep still. %d samples so far.", len(s.Samples))))
}

func renderNoFace() string {
	return styles.ErrorStyle().Render("No face detected.") + "\n\n" +
		"Make sure your face is well lit and centred, then try again."
}

func renderDetectedAge(m models.AppModel) string {
	var b strings.Builder
	b.WriteString("Estimated age: ")
	b.WriteString(styles.AgeStyle().Render(fmt.Sprintf("%d", m.Session.DetectedAge)))
	b.WriteString("\n\nHow old are you really?\n")
	b.WriteString(m.AgeInput.View())
	if m.FormError != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle().Render(m.FormError))
	}
	return b.String()
}

func renderComparison(cmp *models.ComparisonResult) string {
	if cmp == nil {
		return ""
	}
	return fmt.Sprintf("Estimated age: %s\nReal age: %s\n\n%s",
		styles.AgeStyle().Render(fmt.Sprintf("%d", cmp.DetectedAge)),
		styles.AgeStyle().Render(fmt.Sprintf("%d", cmp.RealAge)),
		styles.VerdictStyle().Render(cmp.Verdict().Message()))
}

// countdown renders the remaining ticks as time left, or as a tick count
// when the interval is unknown.
func countdown(remaining int, interval time.Duration) string {
	if interval <= 0 {
		return fmt.Sprintf("%d ticks", remaining)
	}
	return (time.Duration(remaining) * interval).String()
}
