package components

import (
	"strings"

	"github.com/Rorical/RoriAge/internal/models"
	"github.com/Rorical/RoriAge/ui/styles"
)

func RenderMessages(messages []models.Message) string {
	var b strings.Builder

	userStyle := styles.UserStyle()
	assistantStyle := styles.AssistantStyle()
	programStyle := styles.ProgramStyle()

	if len(messages) == 0 {
		b.WriteString(programStyle.Render("Say hello, we usually answer right away.") + "\n\n")
		return b.String()
	}

	for _, msg := range messages {
		switch msg.Type {
		case models.User:
			b.WriteString(userStyle.Render("You: "+msg.Content) + "\n\n")
		case models.Assistant:
			b.WriteString(assistantStyle.Render("Support: "+msg.Content) + "\n\n")
		}
	}

	return b.String()
}
