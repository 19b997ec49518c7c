// Package events implements the asynchronous API-call event side channel:
// a Kafka producer behind a bounded in-process queue with a fixed worker
// pool, and a bounded poll reader used by the log-viewing endpoint.
package events

import (
	"fmt"
	"time"
)

// Event is one API-call record published to the queue. Consumed only by the
// polling log viewer; nothing in the request path ever reads it back.
type Event struct {
	Timestamp string `json:"timestamp"`
	Endpoint  string `json:"endpoint"`
	Method    string `json:"method"`
	Status    string `json:"status"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
}

// NewEvent stamps the current time and builds the human-readable summary.
func NewEvent(endpoint, method, status, actor string) Event {
	return Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Endpoint:  endpoint,
		Method:    method,
		Status:    status,
		UserID:    actor,
		Message:   fmt.Sprintf("%s called %s %s (%s)", actor, method, endpoint, status),
	}
}

// Time parses the event timestamp, returning the zero time when the payload
// carries an unparseable value.
func (e Event) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
