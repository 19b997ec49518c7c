// Package services – AuthService
//
// This file implements registration, login, and logout. Passwords are
// bcrypt-hashed before storage and verified with a hash comparison, never a
// plaintext compare. Login failures return the same error for an unknown
// username and a wrong password so responses cannot leak account existence.
// On login the session is mirrored best-effort into the cache with a fixed
// expiry; mirror failures never fail the login.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/aksdemo/go-msg-backend/internal/domain"
	"github.com/aksdemo/go-msg-backend/internal/repo"
)

// SessionMirror is the cache contract used to shadow login state.
// Implementations must be best-effort and never block on failure paths.
type SessionMirror interface {
	// StoreSession mirrors a fresh login with the fixed expiry.
	StoreSession(ctx context.Context, userID uint, username string)
	// DeleteSession drops the mirrored entry on logout.
	DeleteSession(ctx context.Context, username string)
}

// AuthService provides account registration and session establishment.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Mirror shadows sessions into the cache; may be nil in tests.
	Mirror SessionMirror
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, mirror SessionMirror) *AuthService {
	return &AuthService{DB: db, Mirror: mirror}
}

// Register validates the credentials, checks username uniqueness, hashes the
// password, and inserts the new user. Returns ErrDuplicateUsername when the
// name is taken.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	taken, err := repo.UsernameTaken(ctx, s.DB, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return repo.CreateUser(ctx, s.DB, username, string(hash))
}

// Login verifies the credentials and, on success, mirrors the session into
// the cache. An unknown username and a wrong password both return
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := repo.GetUserByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if s.Mirror != nil {
		s.Mirror.StoreSession(ctx, u.ID, u.Username)
	}
	return u, nil
}

// Logout drops the mirrored cache entry. It always succeeds: logging out
// without a session is not an error.
func (s *AuthService) Logout(ctx context.Context, username string) {
	if s.Mirror != nil && username != "" {
		s.Mirror.DeleteSession(ctx, username)
	}
}
