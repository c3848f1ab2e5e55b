package app

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/Rorical/RoriAge/internal/config"
	"github.com/Rorical/RoriAge/internal/core"
	"github.com/Rorical/RoriAge/internal/dispatcher"
	"github.com/Rorical/RoriAge/internal/eventbus"
	"github.com/Rorical/RoriAge/internal/logging"
	"github.com/Rorical/RoriAge/internal/models"
	"github.com/Rorical/RoriAge/internal/vision"
)

// ErrReloadRequested is returned by Start when the user asked to retry a
// failed model load. The caller builds a fresh Application.
var ErrReloadRequested = errors.New("reload requested")

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	logger     *logrus.Logger
	logFile    io.Closer
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	controller *core.Controller
	model      *AppModel
}

func NewApplication(cfg *config.Config) (*Application, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	logger, logFile, err := logging.New(filepath.Join(dir, "logs"), cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	profile := cfg.CurrentProfile()
	backend := newBackend(profile, logger)
	frames := vision.NewFrameSource(profile, cfg.FramePath())
	logger.WithFields(logrus.Fields{
		"profile":  cfg.ActiveProfile,
		"provider": backend.Name(),
		"frames":   frames.Describe(),
	}).Info("starting roriage")

	eb := eventbus.NewEventBus()
	disp := dispatcher.NewEventDispatcher(eb)
	controller := core.NewController(cfg, eb, backend, frames, logger)

	appModel := models.NewAppModel(backend.Name())
	appModel.TickInterval = cfg.TickInterval()
	model := &AppModel{
		appModel:   appModel,
		dispatcher: disp,
		help:       newHelp(),
	}

	return &Application{
		config:     cfg,
		logger:     logger,
		logFile:    logFile,
		eventBus:   eb,
		dispatcher: disp,
		controller: controller,
		model:      model,
	}, nil
}

// newBackend never fails: configuration problems become a backend whose
// Load fails, so they surface on the load-failed screen.
func newBackend(profile config.Profile, logger *logrus.Logger) vision.Backend {
	fail := func(err error) vision.Backend {
		logger.WithError(err).WithField("provider", profile.Provider).Error("cannot build estimation backend")
		return vision.FailedBackend{Provider: profile.Provider, Err: fmt.Errorf("%w: %w", vision.ErrModelLoad, err)}
	}

	if err := profile.Ready(); err != nil {
		return fail(err)
	}
	registry := vision.NewRegistry()
	vision.RegisterBuiltinBackends(registry)
	backend, err := registry.New(profile)
	if err != nil {
		return fail(err)
	}
	return backend
}

func (app *Application) Start() error {
	// Start background services
	app.controller.Start()

	// Run UI
	p := tea.NewProgram(app.model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := final.(*AppModel); ok && m.appModel.Reload {
		return ErrReloadRequested
	}
	return nil
}

func (app *Application) Stop() {
	app.dispatcher.Stop()
	app.controller.Stop()
	app.eventBus.Close()
	app.logger.Info("roriage stopped")
	if app.logFile != nil {
		app.logFile.Close()
	}
}

// Run starts the application and rebuilds it for as long as the user asks
// for a reload. load is called before every build so edits to the config
// file are picked up.
func Run(load func() (*config.Config, error)) error {
	for {
		cfg, err := load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		application, err := NewApplication(cfg)
		if err != nil {
			return fmt.Errorf("create application: %w", err)
		}

		err = application.Start()
		application.Stop()
		if errors.Is(err, ErrReloadRequested) {
			continue
		}
		return err
	}
}
