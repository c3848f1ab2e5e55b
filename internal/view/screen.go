// Package view decides which screen the terminal shows and which keys it
// accepts.
package view

import (
	"github.com/Rorical/RoriAge/internal/models"
)

type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLoadFailed
	ScreenCapture
	ScreenScanning
	ScreenNoFace
	ScreenDetectedAge
	ScreenComparison
	ScreenChat
)

func (s Screen) String() string {
	switch s {
	case ScreenLoading:
		return "loading"
	case ScreenLoadFailed:
		return "load-failed"
	case ScreenCapture:
		return "capture"
	case ScreenScanning:
		return "scanning"
	case ScreenNoFace:
		return "no-face"
	case ScreenDetectedAge:
		return "detected-age"
	case ScreenComparison:
		return "comparison"
	case ScreenChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Select derives the detection screen. It is a pure function of its inputs.
func Select(loader models.LoaderState, session models.SessionSnapshot, cmp *models.ComparisonResult) Screen {
	switch loader {
	case models.LoaderReady:
	case models.LoaderFailed:
		return ScreenLoadFailed
	default:
		return ScreenLoading
	}

	switch session.Status {
	case models.SessionScanning:
		return ScreenScanning
	case models.SessionFailed:
		return ScreenNoFace
	case models.SessionSucceeded:
		if cmp == nil {
			return ScreenDetectedAge
		}
		return ScreenComparison
	default:
		return ScreenCapture
	}
}

// Route adds navigation on top of Select: an open chat covers the detection
// screens once the models are ready.
func Route(m models.AppModel) Screen {
	if m.InChat && m.Loader == models.LoaderReady {
		return ScreenChat
	}
	return Select(m.Loader, m.Session, m.Comparison)
}
