package core

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Rorical/RoriAge/internal/models"
	"github.com/Rorical/RoriAge/internal/vision"
)

// Loader runs the backend's model load exactly once and remembers the
// outcome for the rest of the application's lifetime.
type Loader struct {
	backend  vision.ModelLoader
	log      *logrus.Entry
	onChange func(models.LoaderState, error)

	once  sync.Once
	mu    sync.RWMutex
	state models.LoaderState
	err   error
}

func NewLoader(backend vision.ModelLoader, log *logrus.Entry, onChange func(models.LoaderState, error)) *Loader {
	return &Loader{
		backend:  backend,
		log:      log,
		onChange: onChange,
		state:    models.LoaderLoading,
	}
}

// Initialize loads the models on the first call and blocks until done. Later
// calls return the settled state without touching the backend.
func (l *Loader) Initialize(ctx context.Context) models.LoaderState {
	l.once.Do(func() {
		l.log.Info("loading face analysis models")

		err := l.backend.Load(ctx)

		l.mu.Lock()
		if err != nil {
			l.state = models.LoaderFailed
			l.err = err
		} else {
			l.state = models.LoaderReady
		}
		state := l.state
		l.mu.Unlock()

		if err != nil {
			l.log.WithError(err).Error("failed to load face analysis models")
		} else {
			l.log.Info("face analysis models ready")
		}
		if l.onChange != nil {
			l.onChange(state, err)
		}
	})
	return l.State()
}

func (l *Loader) State() models.LoaderState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Loader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}
