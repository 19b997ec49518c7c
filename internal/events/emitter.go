package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	kafka "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/aksdemo/go-msg-backend/internal/config"
)

var (
	// eventsEnqueued counts events accepted onto the bounded queue.
	eventsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "api_events_enqueued_total",
		Help: "Total number of API-call events accepted for publishing.",
	})

	// eventsDropped counts events discarded because the queue was full.
	eventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "api_events_dropped_total",
		Help: "Total number of API-call events dropped due to a full queue.",
	})

	// eventsFailed counts publish attempts that returned an error.
	eventsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "api_events_publish_failures_total",
		Help: "Total number of API-call event publish failures.",
	})
)

func init() {
	prometheus.MustRegister(eventsEnqueued, eventsDropped, eventsFailed)
}

// Publisher is the subset of kafka.Writer the emitter depends on.
// *kafka.Writer satisfies it; tests substitute a stub.
type Publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Emitter publishes API-call events without ever blocking the HTTP response
// path. Emit enqueues onto a bounded channel; a small fixed pool of workers
// drains it and writes to Kafka. When the queue is full the event is dropped
// and counted. Publish failures are logged and swallowed. No ordering or
// delivery guarantee is offered to callers.
type Emitter struct {
	pub          Publisher
	queue        chan Event
	writeTimeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once

	// mu serializes Emit against Close so no send can race the channel
	// close; closed makes Emit a counted drop afterwards.
	mu     sync.RWMutex
	closed bool
}

// NewEmitter starts workers draining a queue of the given size into pub.
// queueSize and workers are coerced to at least 1.
func NewEmitter(pub Publisher, queueSize, workers int, writeTimeout time.Duration) *Emitter {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	e := &Emitter{
		pub:          pub,
		queue:        make(chan Event, queueSize),
		writeTimeout: writeTimeout,
	}
	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker()
	}
	return e
}

// NewKafkaEmitter wires an Emitter to a kafka.Writer built from cfg.
func NewKafkaEmitter(cfg config.KafkaConfig) *Emitter {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		// The pipeline is fire-and-forget; block only inside the worker.
		Async: false,
	}
	if cfg.Username != "" {
		w.Transport = &kafka.Transport{
			SASL: plain.Mechanism{Username: cfg.Username, Password: cfg.Password},
		}
	}
	return NewEmitter(w, cfg.QueueSize, cfg.Workers, cfg.WriteTimeout)
}

// Emit enqueues an API-call event. It never blocks: when the queue is full
// the event is dropped, counted, and logged at debug level. Emitting after
// Close is a no-op drop.
func (e *Emitter) Emit(endpoint, method, status, actor string) {
	ev := NewEvent(endpoint, method, status, actor)
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		eventsDropped.Inc()
		return
	}
	select {
	case e.queue <- ev:
		eventsEnqueued.Inc()
	default:
		eventsDropped.Inc()
		log.Debug().
			Str("endpoint", endpoint).
			Str("method", method).
			Msg("event queue full, dropping api-call event")
	}
}

// worker drains the queue until it is closed.
func (e *Emitter) worker() {
	defer e.wg.Done()
	for ev := range e.queue {
		e.publish(ev)
	}
}

func (e *Emitter) publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		eventsFailed.Inc()
		log.Error().Err(err).Msg("api-call event marshal failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.writeTimeout)
	defer cancel()
	if err := e.pub.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		eventsFailed.Inc()
		log.Error().Err(err).
			Str("endpoint", ev.Endpoint).
			Str("status", ev.Status).
			Msg("api-call event publish failed")
	}
}

// Close stops accepting events, waits for the workers to drain the queue
// (bounded by ctx), then closes the underlying publisher. Safe to call more
// than once.
func (e *Emitter) Close(ctx context.Context) error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		close(e.queue)
		e.mu.Unlock()
		done := make(chan struct{})
		go func() {
			e.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
		if cerr := e.pub.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
