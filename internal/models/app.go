package models

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
)

// AppModel represents the UI state - only local UI concerns. Loader, session
// and chat fields mirror the latest state pushed by the core.
type AppModel struct {
	Loader      LoaderState       // Model loading status from core
	LoaderErr   error             // Why loading failed, if it did
	Session     SessionSnapshot   // Latest detection session snapshot
	Comparison  *ComparisonResult // Set once the user submits a valid real age
	InChat      bool              // Whether the chat screen is open
	Chat        []Message         // Chat thread as last pushed by core
	AgeInput    textinput.Model   // Real-age form field
	ChatInput   textinput.Model   // Chat composer
	FormError   string            // Validation message under the real-age field
	Status      string            // Status bar text
	Provider    string            // Active estimation provider
	LoadingDots int               // Animation counter for loading dots
	Width       int               // Terminal width
	Height      int               // Terminal height
	Reload      bool              // Quit and rebuild the application

	TickInterval time.Duration // Time between detection ticks, for the countdown
}

func NewAppModel(provider string) AppModel {
	age := textinput.New()
	age.Placeholder = "Your real age"
	age.CharLimit = 3
	age.Width = 16
	age.Prompt = "› "

	chat := textinput.New()
	chat.Placeholder = "Type a message"
	chat.CharLimit = 500
	chat.Prompt = "› "

	return AppModel{
		Loader:    LoaderLoading,
		Session:   SessionSnapshot{Status: SessionIdle},
		AgeInput:  age,
		ChatInput: chat,
		Status:    "Loading models",
		Provider:  provider,
	}
}

// Busy reports whether the UI is waiting on the core.
func (m AppModel) Busy() bool {
	return m.Loader == LoaderLoading || (m.Loader == LoaderReady && m.Session.Status == SessionScanning)
}
