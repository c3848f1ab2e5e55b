package eventbus

import (
	"errors"
	"testing"
	"time"
)

func TestSendAndReceive(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	if err := eb.SendToCore(SendChatEvent{Text: "hello"}); err != nil {
		t.Fatalf("SendToCore: %v", err)
	}
	ev := <-eb.UIToCore()
	if got, ok := ev.(SendChatEvent); !ok || got.Text != "hello" {
		t.Fatalf("received %#v", ev)
	}

	if err := eb.SendToUI(SessionUpdateEvent{}); err != nil {
		t.Fatalf("SendToUI: %v", err)
	}
	if _, ok := (<-eb.CoreToUI()).(SessionUpdateEvent); !ok {
		t.Fatalf("expected SessionUpdateEvent")
	}
}

func TestFullChannelTripsBreaker(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	var reported []EventBusError
	eb.SetErrorCallback(func(e EventBusError) { reported = append(reported, e) })

	for i := 0; i < defaultBufferSize; i++ {
		if err := eb.SendToUI(ChatUpdateEvent{}); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	for i := 0; i < defaultMaxFailures; i++ {
		if err := eb.SendToUI(ChatUpdateEvent{}); !errors.Is(err, ErrCoreToUIFull) {
			t.Fatalf("overflow send %d: err = %v", i, err)
		}
	}
	if eb.GetCircuitBreakerState() != CircuitOpen {
		t.Fatalf("breaker should be open after %d failures", defaultMaxFailures)
	}
	if err := eb.SendToCore(StartDetectionEvent{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if len(reported) != defaultMaxFailures+1 {
		t.Fatalf("reported %d errors, want %d", len(reported), defaultMaxFailures+1)
	}
}

func TestCircuitBreakerHalfOpensAfterTimeout(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(1, time.Second)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	if !cb.IsOpen() {
		t.Fatalf("breaker should open after one failure")
	}
	now = now.Add(2 * time.Second)
	if cb.IsOpen() || cb.State() != CircuitHalfOpen {
		t.Fatalf("breaker should be half-open, state=%v", cb.State())
	}
	cb.RecordSuccess()
	if cb.State() != CircuitClosed {
		t.Fatalf("breaker should close after success")
	}
}

func TestSendAfterClose(t *testing.T) {
	eb := NewEventBus()
	eb.Close()
	eb.Close()

	if err := eb.SendToCore(StartDetectionEvent{}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("SendToCore err = %v", err)
	}
	if err := eb.SendToUI(ChatUpdateEvent{}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("SendToUI err = %v", err)
	}
}
