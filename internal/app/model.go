package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriAge/internal/dispatcher"
	"github.com/Rorical/RoriAge/internal/models"
	"github.com/Rorical/RoriAge/internal/update"
	"github.com/Rorical/RoriAge/internal/view"
	"github.com/Rorical/RoriAge/ui/components"
	"github.com/Rorical/RoriAge/ui/styles"
)

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
	help       help.Model
}

func newHelp() help.Model {
	h := help.New()
	h.ShortSeparator = "  ·  "
	return h
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		update.TickCmd(),
		textinput.Blink,
		m.dispatcher.ListenForCoreEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle core events and continue listening
	if coreEvent, ok := msg.(update.CoreEventMsg); ok {
		cmd := update.HandleCoreEvent(&m.appModel, coreEvent)
		return m, tea.Batch(cmd, m.dispatcher.ListenForCoreEvents())
	}

	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.help.Width = size.Width
	}

	eventBus := m.dispatcher.GetEventBus()
	cmd := update.HandleUpdateWithEventBus(&m.appModel, msg, eventBus)

	return m, cmd
}

func (m *AppModel) View() string {
	var b strings.Builder
	screen := view.Route(m.appModel)

	b.WriteString(styles.TitleStyle().Render("RoriAge"))
	b.WriteString("\n\n")
	b.WriteString(components.RenderScreen(screen, m.appModel))
	b.WriteString("\n")
	b.WriteString(components.RenderHelp(m.help, view.Controls(screen)))
	b.WriteString("\n")
	b.WriteString(components.RenderStatus(m.appModel.Status, m.appModel.Provider, m.appModel.Busy(), m.appModel.LoadingDots, m.appModel.Width))

	return b.String()
}
