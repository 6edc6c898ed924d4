package models

import "time"

// Kind names what an enrollment is for.
type Kind string

const (
	KindEvent       Kind = "event"
	KindGig         Kind = "gig"
	KindOpportunity Kind = "opportunity"
)

// Enrollment is a submitted sign-up form.
type Enrollment struct {
	ID          string            `json:"id,omitempty"`
	Kind        Kind              `json:"kind"`
	TargetID    string            `json:"target_id"`
	TargetTitle string            `json:"target_title"`
	FullName    string            `json:"full_name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Message     string            `json:"message"`
	Details     map[string]string `json:"details,omitempty"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
}
