// Package common defines shared constants and sentinel errors used across
// mediadrop components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors (missing file part, bad form input).
	ErrorValidation = errors.New("validation error")

	// Auth errors (invalid or malformed stream token).
	ErrInvalidToken = errors.New("invalid token")

	// Session lifecycle errors.
	ErrSessionExpired = errors.New("session expired")
)
