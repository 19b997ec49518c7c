// Package services – MessageService
//
// This file implements message persistence and the read queries behind the
// list, search, and per-user endpoints. Every operation additionally feeds
// the two observability side channels: a capped activity entry in the cache
// and an asynchronous API-call event on the queue. Both are strictly
// non-fatal; the database result alone decides the outcome.
package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/aksdemo/go-msg-backend/internal/domain"
	"github.com/aksdemo/go-msg-backend/internal/repo"
)

// Endpoint constants used for activity and event records.
const (
	endpointMessages       = "/messages"
	endpointMessagesSearch = "/messages/search"
	endpointMessagesByUser = "/messages/user"
	endpointLegacyMessage  = "/db/message"
	endpointLegacyList     = "/db/messages"
)

// ActivityLogger is the cache contract for the capped recent-activity list.
type ActivityLogger interface {
	LogActivity(ctx context.Context, action, details string)
}

// EventEmitter is the queue contract for asynchronous API-call events.
// Emit must never block the caller.
type EventEmitter interface {
	Emit(endpoint, method, status, actor string)
}

// MessageService persists messages and serves the joined read models.
type MessageService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Activity receives capped activity entries; may be nil in tests.
	Activity ActivityLogger
	// Events receives async API-call events; may be nil in tests.
	Events EventEmitter
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *gorm.DB, activity ActivityLogger, events EventEmitter) *MessageService {
	return &MessageService{DB: db, Activity: activity, Events: events}
}

// Save inserts a message authored by userID. An empty (or all-whitespace)
// body is rejected before touching the database. Success and failure both
// produce an activity entry and an async event.
func (s *MessageService) Save(ctx context.Context, userID uint, actor, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}

	m, err := repo.CreateMessage(ctx, s.DB, userID, body)
	if err != nil {
		s.logActivity(ctx, "db_insert_error", err.Error())
		s.emit(endpointMessages, "POST", "error", actor)
		return nil, err
	}

	s.logActivity(ctx, "db_insert", fmt.Sprintf("Message saved: %s", clip(body, 30)))
	s.emit(endpointMessages, "POST", "success", actor)
	return m, nil
}

// SaveLegacy inserts a message without an author reference (the original
// /db/message surface). Same side-channel behavior as Save.
func (s *MessageService) SaveLegacy(ctx context.Context, actor, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}

	m, err := repo.CreateLegacyMessage(ctx, s.DB, body)
	if err != nil {
		s.logActivity(ctx, "db_insert_error", err.Error())
		s.emit(endpointLegacyMessage, "POST", "error", actor)
		return nil, err
	}

	s.logActivity(ctx, "db_insert", fmt.Sprintf("Message saved: %s", clip(body, 30)))
	s.emit(endpointLegacyMessage, "POST", "success", actor)
	return m, nil
}

// List returns every attributed message, newest first.
func (s *MessageService) List(ctx context.Context, actor string) ([]domain.MessageView, error) {
	out, err := repo.ListMessages(ctx, s.DB)
	s.report(ctx, endpointMessages, "GET", actor, err,
		fmt.Sprintf("Listed %d messages", len(out)))
	return out, err
}

// Search returns messages whose body contains q, optionally restricted to
// authors whose name contains userFilter; both case-insensitive, AND-combined.
func (s *MessageService) Search(ctx context.Context, actor, q, userFilter string) ([]domain.MessageView, error) {
	out, err := repo.SearchMessages(ctx, s.DB, q, userFilter)
	s.report(ctx, endpointMessagesSearch, "GET", actor, err,
		fmt.Sprintf("Search q=%q user=%q hits=%d", q, userFilter, len(out)))
	return out, err
}

// ByUser returns the named author's messages, newest first.
func (s *MessageService) ByUser(ctx context.Context, actor, username string) ([]domain.MessageView, error) {
	out, err := repo.ListUserMessages(ctx, s.DB, username)
	s.report(ctx, endpointMessagesByUser, "GET", actor, err,
		fmt.Sprintf("Listed %d messages for %s", len(out), username))
	return out, err
}

// report records the side-channel entries for a read operation.
func (s *MessageService) report(ctx context.Context, endpoint, method, actor string, err error, detail string) {
	if err != nil {
		s.logActivity(ctx, "db_read_error", err.Error())
		s.emit(endpoint, method, "error", actor)
		return
	}
	s.logActivity(ctx, "db_read", detail)
	s.emit(endpoint, method, "success", actor)
}

func (s *MessageService) logActivity(ctx context.Context, action, details string) {
	if s.Activity != nil {
		s.Activity.LogActivity(ctx, action, details)
	}
}

func (s *MessageService) emit(endpoint, method, status, actor string) {
	if s.Events != nil {
		s.Events.Emit(endpoint, method, status, actor)
	}
}

// clip truncates a body for activity log details, appending an ellipsis.
func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
