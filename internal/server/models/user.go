package models

import "time"

// User is an account identified by its email address.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
