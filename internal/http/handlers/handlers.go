// Handler wiring and service contracts.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses. All dependencies are
// abstract interfaces so the HTTP layer stays decoupled from GORM, Redis,
// and Kafka.
package handlers

import (
	"context"

	"github.com/aksdemo/go-msg-backend/internal/cache"
	"github.com/aksdemo/go-msg-backend/internal/domain"
	"github.com/aksdemo/go-msg-backend/internal/events"
)

// AuthService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Register creates a new account from raw credentials.
	Register(ctx context.Context, username, password string) (*domain.User, error)
	// Login verifies credentials and mirrors the session best-effort.
	Login(ctx context.Context, username, password string) (*domain.User, error)
	// Logout drops the mirrored session entry; never fails.
	Logout(ctx context.Context, username string)
}

// MessageService defines message persistence and read operations.
type MessageService interface {
	// Save inserts a message attributed to userID.
	Save(ctx context.Context, userID uint, actor, body string) (*domain.Message, error)
	// SaveLegacy inserts a message without an author (legacy /db/message).
	SaveLegacy(ctx context.Context, actor, body string) (*domain.Message, error)
	// List returns all attributed messages, newest first.
	List(ctx context.Context, actor string) ([]domain.MessageView, error)
	// Search filters by body substring and optional author substring.
	Search(ctx context.Context, actor, q, userFilter string) ([]domain.MessageView, error)
	// ByUser returns the named author's messages, newest first.
	ByUser(ctx context.Context, actor, username string) ([]domain.MessageView, error)
}

// ActivityReader reads the capped recent-activity list from the cache.
type ActivityReader interface {
	RecentActivity(ctx context.Context) ([]cache.ActivityEntry, error)
}

// EventPoller performs one bounded poll of the API-call event topic.
// limit <= 0 keeps the configured maximum.
type EventPoller func(ctx context.Context, limit int) ([]events.Event, error)

// HealthDeps carries the dependency probes reported by GET /health.
// Nil probes are reported as "disabled".
type HealthDeps struct {
	DB          func(ctx context.Context) error
	Cache       func(ctx context.Context) error
	OtelEnabled bool
	OtelReady   func() bool
}

// Handlers groups the HTTP endpoints for auth, messages, and log viewing.
type Handlers struct {
	authSvc    AuthService
	msgSvc     MessageService
	activity   ActivityReader
	pollEvents EventPoller
	health     HealthDeps
}

// New constructs a Handlers instance bound to the given services.
func New(authSvc AuthService, msgSvc MessageService, activity ActivityReader, poll EventPoller, health HealthDeps) *Handlers {
	return &Handlers{
		authSvc:    authSvc,
		msgSvc:     msgSvc,
		activity:   activity,
		pollEvents: poll,
		health:     health,
	}
}
