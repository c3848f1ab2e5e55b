package update

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriAge/internal/eventbus"
	"github.com/Rorical/RoriAge/internal/models"
	"github.com/Rorical/RoriAge/internal/view"
)

const (
	msgAgeRequired   = "Please enter your real age"
	msgAgeNotNumber  = "Age must be a whole number"
	msgAgeOutOfRange = "Age must be between 0 and 120"
)

// HandleKeyMsgWithEventBus handles keyboard input for the current screen
func HandleKeyMsgWithEventBus(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	if key.Matches(keyMsg, view.Keys.ForceQuit) {
		return tea.Quit
	}

	switch view.Route(*appModel) {
	case view.ScreenLoadFailed:
		if key.Matches(keyMsg, view.Keys.Reload) {
			appModel.Reload = true
			appModel.Status = "Reloading"
			return tea.Quit
		}
	case view.ScreenCapture:
		if key.Matches(keyMsg, view.Keys.Start) {
			startDetection(appModel, eb)
			return nil
		}
	case view.ScreenNoFace:
		if key.Matches(keyMsg, view.Keys.Retry) {
			startDetection(appModel, eb)
			return nil
		}
	case view.ScreenDetectedAge:
		if key.Matches(keyMsg, view.Keys.Submit) {
			submitRealAge(appModel)
			return nil
		}
		var cmd tea.Cmd
		appModel.AgeInput, cmd = appModel.AgeInput.Update(keyMsg)
		return cmd
	case view.ScreenComparison:
		switch {
		case key.Matches(keyMsg, view.Keys.Retry):
			startDetection(appModel, eb)
			return nil
		case key.Matches(keyMsg, view.Keys.Chat):
			return openChat(appModel, eb)
		}
	case view.ScreenChat:
		switch {
		case key.Matches(keyMsg, view.Keys.Send):
			sendChat(appModel, eb)
			return nil
		case key.Matches(keyMsg, view.Keys.Back):
			leaveChat(appModel, eb)
			return nil
		}
		var cmd tea.Cmd
		appModel.ChatInput, cmd = appModel.ChatInput.Update(keyMsg)
		return cmd
	}

	if key.Matches(keyMsg, view.Keys.Quit) {
		return tea.Quit
	}
	return nil
}

func startDetection(appModel *models.AppModel, eb *eventbus.EventBus) {
	if err := eb.SendToCore(eventbus.StartDetectionEvent{}); err != nil {
		appModel.Status = "Error starting scan: " + err.Error()
		return
	}
	appModel.Status = "Starting scan"
}

func submitRealAge(appModel *models.AppModel) {
	raw := strings.TrimSpace(appModel.AgeInput.Value())
	if raw == "" {
		appModel.FormError = msgAgeRequired
		return
	}
	age, err := strconv.Atoi(raw)
	if err != nil {
		appModel.FormError = msgAgeNotNumber
		return
	}
	cmp, err := models.NewComparison(appModel.Session.DetectedAge, age)
	if err != nil {
		if errors.Is(err, models.ErrRealAgeOutOfRange) {
			appModel.FormError = msgAgeOutOfRange
		} else {
			appModel.FormError = err.Error()
		}
		return
	}

	appModel.Comparison = &cmp
	appModel.FormError = ""
	appModel.AgeInput.Blur()
	appModel.Status = "Ready"
}

func openChat(appModel *models.AppModel, eb *eventbus.EventBus) tea.Cmd {
	if err := eb.SendToCore(eventbus.OpenChatEvent{}); err != nil {
		appModel.Status = "Error opening chat: " + err.Error()
		return nil
	}
	appModel.InChat = true
	appModel.Chat = nil
	appModel.ChatInput.Reset()
	appModel.Status = "Chat"
	return appModel.ChatInput.Focus()
}

func leaveChat(appModel *models.AppModel, eb *eventbus.EventBus) {
	if err := eb.SendToCore(eventbus.LeaveChatEvent{}); err != nil {
		appModel.Status = "Error leaving chat: " + err.Error()
	} else {
		appModel.Status = "Ready"
	}
	appModel.InChat = false
	appModel.Chat = nil
	appModel.ChatInput.Reset()
	appModel.ChatInput.Blur()
}

func sendChat(appModel *models.AppModel, eb *eventbus.EventBus) {
	text := appModel.ChatInput.Value()
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := eb.SendToCore(eventbus.SendChatEvent{Text: text}); err != nil {
		appModel.Status = "Error sending message: " + err.Error()
		return
	}
	appModel.ChatInput.Reset()
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// HandleCoreEvent processes events from the core
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.LoaderUpdateEvent:
		appModel.Loader = event.State
		appModel.LoaderErr = event.Error
		switch event.State {
		case models.LoaderReady:
			appModel.Status = "Ready"
		case models.LoaderFailed:
			appModel.Status = "Model loading failed"
		default:
			appModel.Status = "Loading models"
		}

	case eventbus.SessionUpdateEvent:
		return applySnapshot(appModel, event.Snapshot)

	case eventbus.ChatUpdateEvent:
		if appModel.InChat {
			appModel.Chat = event.Messages
		}
	}

	return nil
}

// applySnapshot mirrors a session snapshot. A new session ID means a restart,
// so the previous comparison and form are dropped.
func applySnapshot(appModel *models.AppModel, snap models.SessionSnapshot) tea.Cmd {
	restarted := snap.ID != appModel.Session.ID
	wasSucceeded := appModel.Session.Status == models.SessionSucceeded && !restarted
	appModel.Session = snap

	if restarted {
		appModel.Comparison = nil
		appModel.FormError = ""
		appModel.AgeInput.Reset()
		appModel.AgeInput.Blur()
	}

	switch snap.Status {
	case models.SessionScanning:
		appModel.Status = "Scanning"
	case models.SessionFailed:
		appModel.Status = "No face detected"
	case models.SessionSucceeded:
		appModel.Status = "Ready"
		if !wasSucceeded {
			return appModel.AgeInput.Focus()
		}
	}
	return nil
}

// forwardToInput passes non-key messages such as cursor blinks to the
// focused text field.
func forwardToInput(appModel *models.AppModel, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch view.Route(*appModel) {
	case view.ScreenDetectedAge:
		appModel.AgeInput, cmd = appModel.AgeInput.Update(msg)
	case view.ScreenChat:
		appModel.ChatInput, cmd = appModel.ChatInput.Update(msg)
	}
	return cmd
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	// Only handle UI animations - loading dots
	if appModel.Busy() {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	}
	return TickCmd()
}
