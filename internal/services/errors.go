// Package services defines the business logic for registration, login, and
// message persistence. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; mapping
// to HTTP statuses and user-facing messages happens at the handler layer.
package services

import "errors"

var (
	// ErrMissingCredentials is returned when a registration or login request
	// lacks a username or password.
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrDuplicateUsername is returned when registering a username that
	// already exists.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password, deliberately without distinguishing the two.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmptyMessage is returned when a message save request has no body.
	ErrEmptyMessage = errors.New("message body is required")
)
