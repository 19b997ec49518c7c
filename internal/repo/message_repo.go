// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model, including the joined list/search queries used by the read endpoints.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/aksdemo/go-msg-backend/internal/domain"
)

// viewColumns is the SELECT list shared by all joined read queries.
const viewColumns = "m.id, m.message, m.created_at, u.username"

// CreateMessage inserts a message row attributed to userID.
func CreateMessage(ctx context.Context, db *gorm.DB, userID uint, body string) (*domain.Message, error) {
	m := &domain.Message{
		UserID:    &userID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	return m, db.WithContext(ctx).Create(m).Error
}

// CreateLegacyMessage inserts a message row without an author reference.
// Kept for the legacy /db/message path.
func CreateLegacyMessage(ctx context.Context, db *gorm.DB, body string) (*domain.Message, error) {
	m := &domain.Message{
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	return m, db.WithContext(ctx).Create(m).Error
}

// ListMessages returns every attributed message joined with its author,
// ordered by creation time descending.
func ListMessages(ctx context.Context, db *gorm.DB) ([]domain.MessageView, error) {
	var out []domain.MessageView
	err := db.WithContext(ctx).
		Table("messages AS m").
		Select(viewColumns).
		Joins("JOIN users u ON m.user_id = u.id").
		Order("m.created_at DESC").
		Scan(&out).Error
	return out, err
}

// SearchMessages returns attributed messages whose body contains q
// (case-insensitive). A non-empty userFilter additionally restricts the
// result to authors whose username contains it; both filters combine with
// AND. Ordered by creation time descending.
func SearchMessages(ctx context.Context, db *gorm.DB, q, userFilter string) ([]domain.MessageView, error) {
	var out []domain.MessageView
	tx := db.WithContext(ctx).
		Table("messages AS m").
		Select(viewColumns).
		Joins("JOIN users u ON m.user_id = u.id").
		Where("LOWER(m.message) LIKE LOWER(?)", "%"+q+"%")
	if userFilter != "" {
		tx = tx.Where("LOWER(u.username) LIKE LOWER(?)", "%"+userFilter+"%")
	}
	err := tx.Order("m.created_at DESC").Scan(&out).Error
	return out, err
}

// ListUserMessages returns all messages authored by the exact username,
// ordered by creation time descending.
func ListUserMessages(ctx context.Context, db *gorm.DB, username string) ([]domain.MessageView, error) {
	var out []domain.MessageView
	err := db.WithContext(ctx).
		Table("messages AS m").
		Select(viewColumns).
		Joins("JOIN users u ON m.user_id = u.id").
		Where("u.username = ?", username).
		Order("m.created_at DESC").
		Scan(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM messages").Scan(&total).Error
	return total, err
}
