package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// stubPublisher collects written messages; optional gate blocks writes so
// tests can fill the queue deterministically.
type stubPublisher struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	gate   chan struct{}
	err    error
	closed bool
}

func (s *stubPublisher) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *stubPublisher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubPublisher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestEmit_PublishesEvent(t *testing.T) {
	pub := &stubPublisher{}
	e := NewEmitter(pub, 8, 1, time.Second)

	e.Emit("/messages", "POST", "success", "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if pub.count() != 1 {
		t.Fatalf("expected 1 published message, got %d", pub.count())
	}
	var ev Event
	if err := json.Unmarshal(pub.msgs[0].Value, &ev); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if ev.Endpoint != "/messages" || ev.Method != "POST" || ev.Status != "success" || ev.UserID != "alice" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if want := "alice called POST /messages (success)"; ev.Message != want {
		t.Fatalf("summary = %q, want %q", ev.Message, want)
	}
	if ev.Time().IsZero() {
		t.Fatalf("timestamp did not round-trip: %q", ev.Timestamp)
	}
}

func TestEmit_DropsWhenQueueFull(t *testing.T) {
	pub := &stubPublisher{gate: make(chan struct{})}
	e := NewEmitter(pub, 1, 1, time.Second)

	// First event is picked up by the worker and blocks on the gate, the
	// second fills the queue, everything after that must be dropped without
	// blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			e.Emit("/messages", "GET", "success", "alice")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Emit blocked on a full queue")
	}

	close(pub.gate)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if n := pub.count(); n < 1 || n > 2 {
		t.Fatalf("expected 1-2 delivered events, got %d", n)
	}
}

func TestClose_DrainsQueueAndClosesPublisher(t *testing.T) {
	pub := &stubPublisher{}
	e := NewEmitter(pub, 16, 2, time.Second)

	for i := 0; i < 10; i++ {
		e.Emit("/messages", "GET", "success", "bob")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if pub.count() != 10 {
		t.Fatalf("expected all 10 events drained, got %d", pub.count())
	}
	if !pub.closed {
		t.Fatalf("expected publisher closed")
	}

	// Second close is a no-op.
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestEmit_AfterCloseIsSilentDrop(t *testing.T) {
	pub := &stubPublisher{}
	e := NewEmitter(pub, 4, 1, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Must not panic or publish, regardless of shutdown ordering elsewhere.
	e.Emit("/messages", "POST", "success", "alice")
	if pub.count() != 0 {
		t.Fatalf("expected no publishes after close, got %d", pub.count())
	}
}

func TestClose_DeadlineWhileWorkerStuck(t *testing.T) {
	pub := &stubPublisher{gate: make(chan struct{})}
	e := NewEmitter(pub, 4, 1, 10*time.Second)
	defer close(pub.gate)

	e.Emit("/messages", "GET", "success", "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := e.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close err = %v, want deadline exceeded", err)
	}
}

func TestPublish_FailureIsSwallowed(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	e := NewEmitter(pub, 4, 1, time.Second)

	e.Emit("/messages", "POST", "error", "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close after failed publish: %v", err)
	}
}

func TestNewEvent_SummaryShape(t *testing.T) {
	ev := NewEvent("/logs/kafka", "GET", "success", "carol")
	if !strings.HasPrefix(ev.Message, "carol called GET /logs/kafka") {
		t.Fatalf("summary = %q", ev.Message)
	}
	if _, err := time.Parse(time.RFC3339Nano, ev.Timestamp); err != nil {
		t.Fatalf("timestamp: %v", err)
	}
}
