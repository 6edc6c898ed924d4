// Package models holds the client-side view of the backend documents.
package models

import "time"

// Identity is the authenticated user as returned by the auth service. It is
// never built from user input.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession pairs an Identity with the tokens that prove it.
type AuthSession struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the session carries an access token that has not
// expired at now. A zero ExpiresAt never expires locally.
func (s *AuthSession) Valid(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
