// Package common defines shared constants and sentinel errors used across
// client and server layers of the portal. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// One-time code errors.
	ErrInvalidCode     = errors.New("token has expired or is invalid")
	ErrResendThrottled = errors.New("resend throttled")
)

// MessageError pairs a sentinel with a message meant for the end user.
type MessageError struct {
	Kind    error
	Message string
}

func (e *MessageError) Error() string { return e.Message }

func (e *MessageError) Unwrap() error { return e.Kind }

// WithMessage returns an error that matches kind under errors.Is and reads
// as msg.
func WithMessage(kind error, msg string) error {
	return &MessageError{Kind: kind, Message: msg}
}
