package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Rorical/RoriAge/internal/models"
	"github.com/Rorical/RoriAge/internal/vision"
)

var errNoCamera = errors.New("camera unavailable")

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// tickers hands out unbuffered fake tickers so each send is one consumed tick.
type tickers struct {
	mu  sync.Mutex
	all []*fakeTicker
}

func (ts *tickers) New(time.Duration) Ticker {
	t := &fakeTicker{ch: make(chan time.Time)}
	ts.mu.Lock()
	ts.all = append(ts.all, t)
	ts.mu.Unlock()
	return t
}

func (ts *tickers) last(t *testing.T) *fakeTicker {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.all) == 0 {
		t.Fatalf("no ticker created")
	}
	return ts.all[len(ts.all)-1]
}

func tick(t *testing.T, tk *fakeTicker) {
	t.Helper()
	select {
	case tk.ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatalf("tick was not consumed")
	}
}

func assertNoTick(t *testing.T, tk *fakeTicker) {
	t.Helper()
	select {
	case tk.ch <- time.Now():
		t.Fatalf("tick consumed by a finished session")
	case <-time.After(50 * time.Millisecond):
	}
}

// scriptedEstimator answers calls in order. A nil entry means no face; calls
// past the end of the script also find no face.
type scriptedEstimator struct {
	mu     sync.Mutex
	script []any
	calls  int
}

func (e *scriptedEstimator) Detect(ctx context.Context, _ vision.Frame) (*vision.Estimate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.calls
	e.calls++
	if i >= len(e.script) {
		return nil, nil
	}
	switch v := e.script[i].(type) {
	case float64:
		return &vision.Estimate{Age: v}, nil
	case error:
		return nil, v
	default:
		return nil, nil
	}
}

func (e *scriptedEstimator) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type staticFrames struct {
	err error
}

func (f staticFrames) Frame(context.Context) (vision.Frame, error) {
	if f.err != nil {
		return vision.Frame{}, f.err
	}
	return vision.Frame{Data: []byte{0xff, 0xd8, 0xff}, MIMEType: "image/jpeg", CapturedAt: time.Now()}, nil
}

func (f staticFrames) Describe() string { return "static" }

// recorder collects every snapshot a listener receives.
type recorder struct {
	mu    sync.Mutex
	snaps []models.SessionSnapshot
}

func (r *recorder) record(s models.SessionSnapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) all() []models.SessionSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SessionSnapshot, len(r.snaps))
	copy(out, r.snaps)
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func (s *DetectionSession) isQuerying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.querying
}

// tickAndSettle sends one non-final tick and waits until the query it
// started has finished.
func tickAndSettle(t *testing.T, s *DetectionSession, tk *fakeTicker, est *scriptedEstimator) {
	t.Helper()
	before := est.Calls()
	tick(t, tk)
	eventually(t, "estimator call", func() bool { return est.Calls() > before })
	eventually(t, "query to settle", func() bool { return !s.isQuerying() })
}

// finish sends the final tick and waits for the outcome.
func finish(t *testing.T, s *DetectionSession, tk *fakeTicker) models.SessionSnapshot {
	t.Helper()
	tick(t, tk)
	eventually(t, "session to resolve", func() bool { return s.Snapshot().Resolved() })
	return s.Snapshot()
}

// gatedEstimator blocks every call until release, ignoring cancellation, and
// then reports age.
type gatedEstimator struct {
	age   float64
	gate  chan struct{}
	once  sync.Once
	mu    sync.Mutex
	calls int
}

func newGatedEstimator(age float64) *gatedEstimator {
	return &gatedEstimator{age: age, gate: make(chan struct{})}
}

func (e *gatedEstimator) Detect(context.Context, vision.Frame) (*vision.Estimate, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	<-e.gate
	return &vision.Estimate{Age: e.age}, nil
}

func (e *gatedEstimator) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *gatedEstimator) release() {
	e.once.Do(func() { close(e.gate) })
}
