package eventbus

import (
	"errors"
	"sync"
	"time"

	"github.com/Rorical/RoriAge/internal/models"
)

var (
	ErrBusClosed    = errors.New("event bus is closed")
	ErrCircuitOpen  = errors.New("circuit breaker is open")
	ErrUIToCoreFull = errors.New("UI to Core channel is full")
	ErrCoreToUIFull = errors.New("Core to UI channel is full")
)

const (
	defaultBufferSize     = 100
	defaultMaxFailures    = 5
	defaultBreakerTimeout = 30 * time.Second
)

// UIEvent represents events sent from UI to Core
type UIEvent interface {
	UIEvent()
}

// CoreEvent represents events sent from Core to UI
type CoreEvent interface {
	CoreEvent()
}

// StartDetectionEvent - user starts or retries a scan
type StartDetectionEvent struct{}

func (e StartDetectionEvent) UIEvent() {}

// OpenChatEvent - user hands off to the chat screen
type OpenChatEvent struct{}

func (e OpenChatEvent) UIEvent() {}

// LeaveChatEvent - user leaves the chat screen, the thread is discarded
type LeaveChatEvent struct{}

func (e LeaveChatEvent) UIEvent() {}

// SendChatEvent - user submits a chat message
type SendChatEvent struct {
	Text string
}

func (e SendChatEvent) UIEvent() {}

// LoaderUpdateEvent - model loading settled
type LoaderUpdateEvent struct {
	State models.LoaderState
	Error error
}

func (e LoaderUpdateEvent) CoreEvent() {}

// SessionUpdateEvent - detection session changed
type SessionUpdateEvent struct {
	Snapshot models.SessionSnapshot
}

func (e SessionUpdateEvent) CoreEvent() {}

// ChatUpdateEvent - chat thread changed, carries the whole thread
type ChatUpdateEvent struct {
	Messages []models.Message
}

func (e ChatUpdateEvent) CoreEvent() {}

// EventBusError represents errors in event processing
type EventBusError struct {
	Operation string
	Err       error
	Timestamp time.Time
}

func (e EventBusError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e EventBusError) Unwrap() error {
	return e.Err
}

// CircuitBreakerState represents the state of circuit breaker
type CircuitBreakerState int

const (
	CircuitClosed CircuitBreakerState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker stops sends after repeated failures until resetTimeout has
// passed.
type CircuitBreaker struct {
	mu              sync.Mutex
	maxFailures     int
	resetTimeout    time.Duration
	failureCount    int
	lastFailureTime time.Time
	state           CircuitBreakerState
	now             func() time.Time
}

func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        CircuitClosed,
		now:          time.Now,
	}
}

func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
		cb.state = CircuitHalfOpen
	}
	return cb.state == CircuitOpen
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount = 0
	cb.state = CircuitClosed
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount++
	cb.lastFailureTime = cb.now()

	if cb.failureCount >= cb.maxFailures {
		cb.state = CircuitOpen
	}
}

func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// EventBus handles communication between UI and Core with circuit breaker
type EventBus struct {
	uiToCore       chan UIEvent
	coreToUI       chan CoreEvent
	errorCallback  func(EventBusError)
	circuitBreaker *CircuitBreaker

	mu     sync.RWMutex
	closed bool
}

func NewEventBus() *EventBus {
	return &EventBus{
		uiToCore:       make(chan UIEvent, defaultBufferSize),
		coreToUI:       make(chan CoreEvent, defaultBufferSize),
		circuitBreaker: NewCircuitBreaker(defaultMaxFailures, defaultBreakerTimeout),
	}
}

func (eb *EventBus) SetErrorCallback(callback func(EventBusError)) {
	eb.errorCallback = callback
}

func (eb *EventBus) reportError(operation string, err error) error {
	busError := EventBusError{
		Operation: operation,
		Err:       err,
		Timestamp: time.Now(),
	}

	eb.circuitBreaker.RecordFailure()

	if eb.errorCallback != nil {
		eb.errorCallback(busError)
	}
	return busError
}

func (eb *EventBus) SendToCore(event UIEvent) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return ErrBusClosed
	}
	if eb.circuitBreaker.IsOpen() {
		return eb.reportError("SendToCore", ErrCircuitOpen)
	}

	select {
	case eb.uiToCore <- event:
		eb.circuitBreaker.RecordSuccess()
		return nil
	default:
		return eb.reportError("SendToCore", ErrUIToCoreFull)
	}
}

func (eb *EventBus) SendToUI(event CoreEvent) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return ErrBusClosed
	}
	if eb.circuitBreaker.IsOpen() {
		return eb.reportError("SendToUI", ErrCircuitOpen)
	}

	select {
	case eb.coreToUI <- event:
		eb.circuitBreaker.RecordSuccess()
		return nil
	default:
		return eb.reportError("SendToUI", ErrCoreToUIFull)
	}
}

func (eb *EventBus) UIToCore() <-chan UIEvent {
	return eb.uiToCore
}

func (eb *EventBus) CoreToUI() <-chan CoreEvent {
	return eb.coreToUI
}

func (eb *EventBus) GetCircuitBreakerState() CircuitBreakerState {
	return eb.circuitBreaker.State()
}

// Close closes both directions. Later sends return ErrBusClosed.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true
	close(eb.uiToCore)
	close(eb.coreToUI)
}
