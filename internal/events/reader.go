package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	kafka "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/aksdemo/go-msg-backend/internal/config"
)

// messageReader is the subset of kafka.Reader the poll depends on.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// newReader builds a fresh consumer per poll. Declared as a variable so
// tests can substitute an in-memory reader.
var newReader = func(cfg config.KafkaConfig) messageReader {
	rc := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MaxWait:     time.Second,
	}
	if cfg.Username != "" {
		rc.Dialer = &kafka.Dialer{
			Timeout:       10 * time.Second,
			DualStack:     true,
			SASLMechanism: plain.Mechanism{Username: cfg.Username, Password: cfg.Password},
		}
	}
	return kafka.NewReader(rc)
}

// FetchRecent performs one short bounded poll of the event topic: it reads
// until cfg.PollMax events are collected or cfg.PollTimeout elapses, closes
// its reader, and returns the events sorted by timestamp descending. This is
// an at-most-once read, not a durable subscription; undecodable payloads are
// skipped.
func FetchRecent(ctx context.Context, cfg config.KafkaConfig) ([]Event, error) {
	r := newReader(cfg)
	defer func() {
		if err := r.Close(); err != nil {
			log.Warn().Err(err).Msg("event reader close failed")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, cfg.PollTimeout)
	defer cancel()

	out := make([]Event, 0, cfg.PollMax)
	for len(out) < cfg.PollMax {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			// The poll budget running out is the normal way a short read
			// ends; everything collected so far is still returned.
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		var ev Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Warn().Err(err).Msg("skipping undecodable api-call event")
			continue
		}
		out = append(out, ev)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time().After(out[j].Time())
	})
	return out, nil
}
