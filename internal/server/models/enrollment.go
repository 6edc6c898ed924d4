package models

import "time"

// Enrollment kinds.
const (
	EnrollmentEvent       = "event"
	EnrollmentGig         = "gig"
	EnrollmentOpportunity = "opportunity"
)

// Enrollment is a sign-up for an event, gig or opportunity. Details holds
// the kind-specific form answers (availability, experience, ...).
type Enrollment struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Kind        string            `json:"kind"`
	TargetID    string            `json:"target_id"`
	TargetTitle string            `json:"target_title"`
	FullName    string            `json:"full_name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Message     string            `json:"message"`
	Details     map[string]string `json:"details,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
