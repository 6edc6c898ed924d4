package models

import "time"

// RefreshToken is a stored refresh credential. Only the hash of the token
// is persisted; SessionID groups rotations of one login.
type RefreshToken struct {
	ID        string
	UserID    string
	SessionID string
	TokenHash string
	Expires   time.Time
	CreatedAt time.Time
}
