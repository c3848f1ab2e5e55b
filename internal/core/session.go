package core

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Rorical/RoriAge/internal/models"
	"github.com/Rorical/RoriAge/internal/vision"
)

type SessionConfig struct {
	Window   int           // countdown length in ticks
	Interval time.Duration // time between ticks
}

type SessionOption func(*DetectionSession)

// WithTicker replaces the wall-clock cadence source.
func WithTicker(newTicker TickerFunc) SessionOption {
	return func(s *DetectionSession) {
		s.newTicker = newTicker
	}
}

// WithSessionListener registers fn to receive every state change. fn runs
// while the session lock is held so it sees changes in order; it must not
// block or call back into the session.
func WithSessionListener(fn func(models.SessionSnapshot)) SessionOption {
	return func(s *DetectionSession) {
		s.onChange = fn
	}
}

// DetectionSession samples age estimates over a fixed window of ticks and
// reduces them to one rounded average.
type DetectionSession struct {
	estimator vision.Estimator
	frames    vision.FrameSource
	cfg       SessionConfig
	newTicker TickerFunc
	onChange  func(models.SessionSnapshot)
	log       *logrus.Entry

	mu          sync.Mutex
	id          string
	status      models.SessionStatus
	remaining   int
	samples     []models.Sample
	detectedAge int
	querying    bool
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewDetectionSession(estimator vision.Estimator, frames vision.FrameSource, cfg SessionConfig, log *logrus.Entry, opts ...SessionOption) *DetectionSession {
	s := &DetectionSession{
		estimator: estimator,
		frames:    frames,
		cfg:       cfg,
		newTicker: NewTimeTicker,
		log:       log,
		status:    models.SessionIdle,
		remaining: cfg.Window,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a new scan, discarding any previous run and its result.
func (s *DetectionSession) Start(ctx context.Context) string {
	s.halt()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.id = uuid.NewString()
	s.status = models.SessionScanning
	s.remaining = s.cfg.Window
	s.samples = nil
	s.detectedAge = 0
	s.querying = false
	s.cancel = cancel
	s.done = done
	id := s.id
	ticker := s.newTicker(s.cfg.Interval)
	s.notifyLocked()
	s.mu.Unlock()

	s.log.WithField("session_id", id).Info("detection session started")

	go s.run(runCtx, cancel, id, ticker, done)
	return id
}

// Stop tears the session down. No tick or sample is processed after it
// returns.
func (s *DetectionSession) Stop() {
	s.halt()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == models.SessionScanning {
		s.status = models.SessionIdle
		s.remaining = s.cfg.Window
		s.samples = nil
	}
}

func (s *DetectionSession) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// halt cancels the running scan, if any, and waits for it to exit.
func (s *DetectionSession) halt() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *DetectionSession) run(ctx context.Context, cancel context.CancelFunc, id string, ticker Ticker, done chan struct{}) {
	var inflight sync.WaitGroup

	defer close(done)
	defer inflight.Wait()
	defer cancel()
	defer ticker.Stop()

	log := s.log.WithField("session_id", id)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			resolved, query := s.tick(id)
			if resolved {
				return
			}
			if !query {
				log.Debug("previous estimate still running, dropping tick")
				continue
			}

			inflight.Add(1)
			go func() {
				defer inflight.Done()
				s.sample(ctx, id, log)
			}()
		}
	}
}

// tick applies the timer action and reports whether the session resolved.
// Otherwise it reports whether a sampling query may start, which is false
// while the previous one is still running.
func (s *DetectionSession) tick(id string) (resolved, query bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != id || s.status != models.SessionScanning {
		return true, false
	}

	if s.remaining > 1 {
		s.remaining--
		s.notifyLocked()
		if s.querying {
			return false, false
		}
		s.querying = true
		return false, true
	}

	s.remaining = 0
	if avg, ok := Average(s.samples); ok {
		s.status = models.SessionSucceeded
		s.detectedAge = avg
	} else {
		s.status = models.SessionFailed
	}
	s.notifyLocked()

	s.log.WithFields(logrus.Fields{
		"session_id": id,
		"samples":    len(s.samples),
		"status":     s.status.String(),
		"age":        s.detectedAge,
	}).Info("detection session resolved")
	return true, false
}

// sample runs one estimation query. Failures only skip this tick.
func (s *DetectionSession) sample(ctx context.Context, id string, log *logrus.Entry) {
	est := s.query(ctx, log)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != id {
		return
	}
	s.querying = false
	if est == nil || ctx.Err() != nil || s.status != models.SessionScanning {
		return
	}
	s.samples = append(s.samples, models.Sample(math.Round(est.Age)))
	s.notifyLocked()
}

func (s *DetectionSession) query(ctx context.Context, log *logrus.Entry) *vision.Estimate {
	frame, err := s.frames.Frame(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Warn("frame capture failed, skipping tick")
		}
		return nil
	}

	est, err := s.estimator.Detect(ctx, frame)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Warn("age estimation failed, skipping tick")
		}
		return nil
	}
	if est == nil {
		log.Debug("no face in frame")
	}
	return est
}

func (s *DetectionSession) snapshotLocked() models.SessionSnapshot {
	var samples []models.Sample
	if len(s.samples) > 0 {
		samples = make([]models.Sample, len(s.samples))
		copy(samples, s.samples)
	}
	return models.SessionSnapshot{
		ID:          s.id,
		Status:      s.status,
		Remaining:   s.remaining,
		Samples:     samples,
		DetectedAge: s.detectedAge,
	}
}

func (s *DetectionSession) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshotLocked())
	}
}

// Average is the rounded arithmetic mean of the samples. It reports false
// when there are none.
func Average(samples []models.Sample) (int, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	sum := 0
	for _, a := range samples {
		sum += int(a)
	}
	return int(math.Round(float64(sum) / float64(len(samples)))), true
}
