package core

import (
	"context"
	"testing"
	"time"

	"github.com/Rorical/RoriAge/internal/models"
)

func newTestSession(est *scriptedEstimator, frames staticFrames, window int, rec *recorder) (*DetectionSession, *tickers) {
	ts := &tickers{}
	opts := []SessionOption{WithTicker(ts.New)}
	if rec != nil {
		opts = append(opts, WithSessionListener(rec.record))
	}
	s := NewDetectionSession(est, frames, SessionConfig{Window: window, Interval: time.Second}, quietLog(), opts...)
	return s, ts
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name    string
		samples []models.Sample
		want    int
		ok      bool
	}{
		{"empty", nil, 0, false},
		{"single", []models.Sample{42}, 42, true},
		{"mean", []models.Sample{30, 31, 29, 30}, 30, true},
		{"rounds half up", []models.Sample{30, 31}, 31, true},
		{"rounds down", []models.Sample{30, 30, 31}, 30, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Average(tt.samples)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Average(%v) = %d, %v; want %d, %v", tt.samples, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSessionAveragesSamples(t *testing.T) {
	est := &scriptedEstimator{script: []any{30.2, 31.0, 28.6, 30.4}}
	s, ts := newTestSession(est, staticFrames{}, 5, nil)
	defer s.Stop()

	s.Start(context.Background())
	tk := ts.last(t)
	for i := 0; i < 4; i++ {
		tickAndSettle(t, s, tk, est)
	}
	snap := finish(t, s, tk)

	if snap.Status != models.SessionSucceeded {
		t.Fatalf("status = %v, want succeeded", snap.Status)
	}
	want := []models.Sample{30, 31, 29, 30}
	if len(snap.Samples) != len(want) {
		t.Fatalf("samples = %v, want %v", snap.Samples, want)
	}
	for i := range want {
		if snap.Samples[i] != want[i] {
			t.Fatalf("samples = %v, want %v", snap.Samples, want)
		}
	}
	if snap.DetectedAge != 30 {
		t.Fatalf("detected age = %d, want 30", snap.DetectedAge)
	}
	if snap.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", snap.Remaining)
	}
}

func TestSessionAverageIgnoresOrder(t *testing.T) {
	ages := [][]any{
		{20.0, 40.0, 33.0},
		{33.0, 20.0, 40.0},
		{40.0, 33.0, 20.0},
	}
	for _, script := range ages {
		est := &scriptedEstimator{script: script}
		s, ts := newTestSession(est, staticFrames{}, 4, nil)
		s.Start(context.Background())
		tk := ts.last(t)
		for range script {
			tickAndSettle(t, s, tk, est)
		}
		snap := finish(t, s, tk)
		s.Stop()

		if snap.DetectedAge != 31 {
			t.Fatalf("script %v: detected age = %d, want 31", script, snap.DetectedAge)
		}
	}
}

func TestSessionResolvesOnFinalTick(t *testing.T) {
	est := &scriptedEstimator{script: []any{25.0, 25.0, 25.0, 25.0, 25.0}}
	rec := &recorder{}
	s, ts := newTestSession(est, staticFrames{}, 5, rec)
	defer s.Stop()

	s.Start(context.Background())
	tk := ts.last(t)
	for i := 0; i < 4; i++ {
		tickAndSettle(t, s, tk, est)
		if snap := s.Snapshot(); snap.Resolved() || snap.Remaining != 4-i {
			t.Fatalf("after tick %d: %+v", i+1, snap)
		}
	}
	snap := finish(t, s, tk)
	if snap.Status != models.SessionSucceeded || snap.DetectedAge != 25 {
		t.Fatalf("outcome = %+v", snap)
	}
	if est.Calls() != 4 {
		t.Fatalf("the resolving tick must not sample: %d calls", est.Calls())
	}

	eventually(t, "ticker stop", tk.isStopped)
	assertNoTick(t, tk)

	snaps := rec.all()
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Remaining > snaps[i-1].Remaining {
			t.Fatalf("countdown went back up: %d then %d", snaps[i-1].Remaining, snaps[i].Remaining)
		}
	}
	if last := snaps[len(snaps)-1]; last.Status != models.SessionSucceeded {
		t.Fatalf("last published snapshot = %+v", last)
	}
}

func TestSessionFailsWithoutSamples(t *testing.T) {
	est := &scriptedEstimator{script: []any{nil, errNoCamera, nil, nil}}
	s, ts := newTestSession(est, staticFrames{}, 5, nil)
	defer s.Stop()

	s.Start(context.Background())
	tk := ts.last(t)
	for i := 0; i < 4; i++ {
		tickAndSettle(t, s, tk, est)
	}
	snap := finish(t, s, tk)
	if snap.Status != models.SessionFailed {
		t.Fatalf("status = %v, want failed", snap.Status)
	}
	if len(snap.Samples) != 0 {
		t.Fatalf("samples = %v, want none", snap.Samples)
	}
}

func TestSessionSkipsFailedTicks(t *testing.T) {
	est := &scriptedEstimator{script: []any{nil, 40.0, errNoCamera, 44.0}}
	s, ts := newTestSession(est, staticFrames{}, 5, nil)
	defer s.Stop()

	s.Start(context.Background())
	tk := ts.last(t)
	for i := 0; i < 4; i++ {
		tickAndSettle(t, s, tk, est)
	}
	snap := finish(t, s, tk)
	if snap.Status != models.SessionSucceeded || snap.DetectedAge != 42 {
		t.Fatalf("outcome = %+v, want succeeded at 42", snap)
	}
	if len(snap.Samples) != 2 {
		t.Fatalf("samples = %v, want two", snap.Samples)
	}
}

func TestSessionFrameErrorsFail(t *testing.T) {
	est := &scriptedEstimator{script: []any{30.0, 30.0}}
	s, ts := newTestSession(est, staticFrames{err: errNoCamera}, 3, nil)
	defer s.Stop()

	s.Start(context.Background())
	tk := ts.last(t)
	tick(t, tk)
	tick(t, tk)
	snap := finish(t, s, tk)
	if snap.Status != models.SessionFailed {
		t.Fatalf("status = %v, want failed", snap.Status)
	}
	if est.Calls() != 0 {
		t.Fatalf("estimator called %d times without a frame", est.Calls())
	}
}

func TestSessionRestartClearsPreviousRun(t *testing.T) {
	est := &scriptedEstimator{script: []any{70.0, 70.0, 20.0, 20.0}}
	s, ts := newTestSession(est, staticFrames{}, 3, nil)
	defer s.Stop()

	first := s.Start(context.Background())
	tk := ts.last(t)
	tickAndSettle(t, s, tk, est)
	tickAndSettle(t, s, tk, est)
	if snap := finish(t, s, tk); snap.DetectedAge != 70 {
		t.Fatalf("first run = %+v", snap)
	}

	second := s.Start(context.Background())
	if second == first {
		t.Fatalf("restart reused session id %q", first)
	}
	snap := s.Snapshot()
	if snap.Status != models.SessionScanning || snap.Remaining != 3 || len(snap.Samples) != 0 || snap.DetectedAge != 0 {
		t.Fatalf("restart did not reset state: %+v", snap)
	}

	tk = ts.last(t)
	tickAndSettle(t, s, tk, est)
	tickAndSettle(t, s, tk, est)
	if snap := finish(t, s, tk); snap.DetectedAge != 20 {
		t.Fatalf("second run = %+v, samples leaked from first run", snap)
	}
}

func TestSessionRestartMidScan(t *testing.T) {
	est := &scriptedEstimator{script: []any{80.0, 20.0, 20.0}}
	s, ts := newTestSession(est, staticFrames{}, 5, nil)
	defer s.Stop()

	s.Start(context.Background())
	old := ts.last(t)
	tickAndSettle(t, s, old, est)

	s.Start(context.Background())
	if !old.isStopped() {
		t.Fatalf("old ticker still running after restart")
	}
	assertNoTick(t, old)

	tk := ts.last(t)
	for i := 0; i < 4; i++ {
		tickAndSettle(t, s, tk, est)
	}
	if snap := finish(t, s, tk); snap.DetectedAge != 20 {
		t.Fatalf("outcome = %+v", snap)
	}
}

func TestSessionStopSilencesListener(t *testing.T) {
	est := &scriptedEstimator{script: []any{30.0}}
	rec := &recorder{}
	s, ts := newTestSession(est, staticFrames{}, 5, rec)

	s.Start(context.Background())
	tk := ts.last(t)
	tickAndSettle(t, s, tk, est)

	s.Stop()
	n := rec.count()
	assertNoTick(t, tk)
	if rec.count() != n {
		t.Fatalf("listener called after Stop")
	}
	if snap := s.Snapshot(); snap.Status != models.SessionIdle {
		t.Fatalf("status after Stop = %v, want idle", snap.Status)
	}
}

func TestSessionParentCancelStopsRun(t *testing.T) {
	est := &scriptedEstimator{}
	s, ts := newTestSession(est, staticFrames{}, 5, nil)
	defer s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	tk := ts.last(t)
	cancel()

	eventually(t, "ticker stop", tk.isStopped)
	assertNoTick(t, tk)
}

func TestSessionDropsTicksWhileQuerying(t *testing.T) {
	est := newGatedEstimator(30)
	rec := &recorder{}
	ts := &tickers{}
	s := NewDetectionSession(est, staticFrames{}, SessionConfig{Window: 5, Interval: time.Second}, quietLog(),
		WithTicker(ts.New), WithSessionListener(rec.record))
	defer s.Stop()
	defer est.release()

	s.Start(context.Background())
	tk := ts.last(t)
	for i := 0; i < 4; i++ {
		tick(t, tk)
	}
	eventually(t, "first estimator call", func() bool { return est.Calls() == 1 })
	if !s.isQuerying() {
		t.Fatalf("query finished while the estimator was blocked")
	}
	if got := s.Snapshot().Remaining; got != 1 {
		t.Fatalf("remaining = %d, want 1; dropped ticks must still count down", got)
	}

	snap := finish(t, s, tk)
	if snap.Status != models.SessionFailed {
		t.Fatalf("status = %v, want failed", snap.Status)
	}
	n := rec.count()

	est.release()
	eventually(t, "late query to settle", func() bool { return !s.isQuerying() })

	if est.Calls() != 1 {
		t.Fatalf("estimator called %d times, want 1", est.Calls())
	}
	snap = s.Snapshot()
	if snap.Status != models.SessionFailed || len(snap.Samples) != 0 {
		t.Fatalf("late result changed the outcome: %+v", snap)
	}
	if rec.count() != n {
		t.Fatalf("listener notified after resolution")
	}
}
