package models

// LoaderState is the one-shot model initialization status.
type LoaderState int

const (
	LoaderLoading LoaderState = iota
	LoaderReady
	LoaderFailed
)

func (s LoaderState) String() string {
	switch s {
	case LoaderLoading:
		return "loading"
	case LoaderReady:
		return "ready"
	case LoaderFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionStatus is the state of a detection session.
type SessionStatus int

const (
	SessionIdle SessionStatus = iota
	SessionScanning
	SessionSucceeded
	SessionFailed
)

func (s SessionStatus) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionScanning:
		return "scanning"
	case SessionSucceeded:
		return "succeeded"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sample is one rounded age estimate collected during a session.
type Sample int

// SessionSnapshot is an immutable copy of a detection session's state.
type SessionSnapshot struct {
	ID          string
	Status      SessionStatus
	Remaining   int
	Samples     []Sample
	DetectedAge int // only meaningful when Status is SessionSucceeded
}

// Resolved reports whether the session reached an outcome.
func (s SessionSnapshot) Resolved() bool {
	return s.Status == SessionSucceeded || s.Status == SessionFailed
}
