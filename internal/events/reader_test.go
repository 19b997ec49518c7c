package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/aksdemo/go-msg-backend/internal/config"
)

// stubReader replays a fixed set of payloads, then returns io.EOF.
type stubReader struct {
	payloads [][]byte
	idx      int
	closed   bool
	err      error
}

func (s *stubReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if s.err != nil {
		return kafka.Message{}, s.err
	}
	if s.idx >= len(s.payloads) {
		return kafka.Message{}, io.EOF
	}
	m := kafka.Message{Value: s.payloads[s.idx]}
	s.idx++
	return m, nil
}

func (s *stubReader) Close() error {
	s.closed = true
	return nil
}

func withStubReader(t *testing.T, r messageReader) {
	t.Helper()
	prev := newReader
	t.Cleanup(func() { newReader = prev })
	newReader = func(config.KafkaConfig) messageReader { return r }
}

func eventPayload(t *testing.T, ts time.Time, endpoint string) []byte {
	t.Helper()
	raw, err := json.Marshal(Event{
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
		Endpoint:  endpoint,
		Method:    "GET",
		Status:    "success",
		UserID:    "alice",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func pollCfg(max int) config.KafkaConfig {
	return config.KafkaConfig{PollTimeout: time.Second, PollMax: max}
}

func TestFetchRecent_SortsNewestFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubReader{payloads: [][]byte{
		eventPayload(t, base, "/a"),
		eventPayload(t, base.Add(2*time.Minute), "/c"),
		eventPayload(t, base.Add(time.Minute), "/b"),
	}}
	withStubReader(t, stub)

	out, err := FetchRecent(context.Background(), pollCfg(100))
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 events, got %d", len(out))
	}
	for i, want := range []string{"/c", "/b", "/a"} {
		if out[i].Endpoint != want {
			t.Fatalf("event %d = %q, want %q", i, out[i].Endpoint, want)
		}
	}
	if !stub.closed {
		t.Fatalf("expected reader closed after the poll")
	}
}

func TestFetchRecent_StopsAtPollMax(t *testing.T) {
	base := time.Now().UTC()
	var payloads [][]byte
	for i := 0; i < 10; i++ {
		payloads = append(payloads, eventPayload(t, base.Add(time.Duration(i)*time.Second), "/x"))
	}
	withStubReader(t, &stubReader{payloads: payloads})

	out, err := FetchRecent(context.Background(), pollCfg(4))
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected PollMax events, got %d", len(out))
	}
}

func TestFetchRecent_SkipsUndecodable(t *testing.T) {
	base := time.Now().UTC()
	withStubReader(t, &stubReader{payloads: [][]byte{
		[]byte("not-json"),
		eventPayload(t, base, "/ok"),
	}})

	out, err := FetchRecent(context.Background(), pollCfg(100))
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}
	if len(out) != 1 || out[0].Endpoint != "/ok" {
		t.Fatalf("expected one decodable event, got %+v", out)
	}
}

func TestFetchRecent_DeadlineReturnsPartial(t *testing.T) {
	base := time.Now().UTC()
	stub := &stubReader{payloads: [][]byte{eventPayload(t, base, "/partial")}}
	// After the seeded payload the stub returns io.EOF, which ends the
	// poll the same way an expired budget does.
	withStubReader(t, stub)

	out, err := FetchRecent(context.Background(), pollCfg(100))
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected the partial batch, got %d events", len(out))
	}
}

func TestFetchRecent_PropagatesHardErrors(t *testing.T) {
	withStubReader(t, &stubReader{err: errors.New("sasl authentication failed")})

	if _, err := FetchRecent(context.Background(), pollCfg(100)); err == nil {
		t.Fatalf("expected broker error to surface")
	}
}
