package core

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Rorical/RoriAge/internal/config"
	"github.com/Rorical/RoriAge/internal/eventbus"
	"github.com/Rorical/RoriAge/internal/models"
	"github.com/Rorical/RoriAge/internal/vision"
)

// Controller owns the loader, the detection session and the chat thread. It
// runs UI requests on its own goroutine and pushes every state change back
// to the UI through the event bus.
type Controller struct {
	eventBus *eventbus.EventBus
	backend  vision.Backend
	loader   *Loader
	session  *DetectionSession
	chat     *ChatThread
	log      *logrus.Entry
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type controllerOptions struct {
	sessionOpts []SessionOption
	chatOpts    []ChatOption
}

type ControllerOption func(*controllerOptions)

// WithSessionOptions forwards options to the detection session.
func WithSessionOptions(opts ...SessionOption) ControllerOption {
	return func(o *controllerOptions) {
		o.sessionOpts = append(o.sessionOpts, opts...)
	}
}

// WithChatOptions forwards options to the chat thread.
func WithChatOptions(opts ...ChatOption) ControllerOption {
	return func(o *controllerOptions) {
		o.chatOpts = append(o.chatOpts, opts...)
	}
}

func NewController(cfg *config.Config, eb *eventbus.EventBus, backend vision.Backend, frames vision.FrameSource, logger *logrus.Logger, opts ...ControllerOption) *Controller {
	var o controllerOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	log := logrus.NewEntry(logger).WithField("provider", backend.Name())

	c := &Controller{
		eventBus: eb,
		backend:  backend,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}

	c.loader = NewLoader(backend, log.WithField("component", "loader"), c.pushLoader)

	sessionOpts := append([]SessionOption{WithSessionListener(c.pushSession)}, o.sessionOpts...)
	c.session = NewDetectionSession(backend, frames, SessionConfig{
		Window:   cfg.Detection.WindowTicks,
		Interval: cfg.TickInterval(),
	}, log.WithField("component", "session"), sessionOpts...)

	chatOpts := append([]ChatOption{WithChatListener(c.pushChat)}, o.chatOpts...)
	c.chat = NewChatThread(cfg.ReplyDelay(), cfg.Chat.CannedReply, log.WithField("component", "chat"), chatOpts...)

	eb.SetErrorCallback(func(e eventbus.EventBusError) {
		log.WithError(e.Err).WithField("operation", e.Operation).Warn("event bus error")
	})

	return c
}

// Start publishes the initial state, kicks off model loading and starts
// handling UI events.
func (c *Controller) Start() {
	c.pushLoader(models.LoaderLoading, nil)
	c.pushSession(c.session.Snapshot())

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.loader.Initialize(c.ctx)
	}()
	go func() {
		defer c.wg.Done()
		c.eventLoop()
	}()
}

// Stop cancels everything the controller started and waits for it. No
// session or chat callback fires after Stop returns.
func (c *Controller) Stop() {
	c.cancel()
	c.wg.Wait()
	c.session.Stop()
	c.chat.Close()
	if err := c.backend.Close(); err != nil {
		c.log.WithError(err).Warn("failed to close estimation backend")
	}
}

func (c *Controller) eventLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.eventBus.UIToCore():
			if !ok {
				return
			}
			c.handleUIEvent(event)
		}
	}
}

func (c *Controller) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.StartDetectionEvent:
		if state := c.loader.State(); state != models.LoaderReady {
			c.log.WithField("loader", state.String()).Warn("ignoring detection request before models are ready")
			return
		}
		c.session.Start(c.ctx)
	case eventbus.OpenChatEvent:
		c.chat.Reset()
		c.pushChat(nil)
	case eventbus.SendChatEvent:
		c.chat.Send(e.Text)
	case eventbus.LeaveChatEvent:
		c.chat.Reset()
	}
}

func (c *Controller) pushLoader(state models.LoaderState, err error) {
	c.send(eventbus.LoaderUpdateEvent{State: state, Error: err})
}

func (c *Controller) pushSession(snapshot models.SessionSnapshot) {
	c.send(eventbus.SessionUpdateEvent{Snapshot: snapshot})
}

func (c *Controller) pushChat(messages []models.Message) {
	c.send(eventbus.ChatUpdateEvent{Messages: messages})
}

func (c *Controller) send(event eventbus.CoreEvent) {
	if err := c.eventBus.SendToUI(event); err != nil {
		c.log.WithError(err).Debug("failed to push state to UI")
	}
}
