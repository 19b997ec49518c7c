// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/aksdemo/go-msg-backend/internal/domain"
)

// CreateUser inserts a new user row with an already-hashed password.
func CreateUser(ctx context.Context, db *gorm.DB, username, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	return u, db.WithContext(ctx).Create(u).Error
}

// GetUserByUsername fetches a user (including the password hash) by username.
// Returns gorm.ErrRecordNotFound when no such user exists.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UsernameTaken reports whether a username already exists. A raw COUNT is
// used so a missing table surfaces as an error rather than "not taken".
func UsernameTaken(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM users WHERE username = ?", username).
		Scan(&n).Error
	return n > 0, err
}
