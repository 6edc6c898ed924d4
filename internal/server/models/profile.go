package models

import "time"

// Profile is the per-user document keyed by UserID. Empty strings stand for
// unset values; Username is stored as NULL when empty.
type Profile struct {
	UserID           string    `json:"user_id"`
	FullName         string    `json:"full_name"`
	Username         string    `json:"username"`
	Phone            string    `json:"phone"`
	DateOfBirth      string    `json:"date_of_birth"`
	Gender           string    `json:"gender"`
	AvatarURL        string    `json:"avatar_url"`
	Street           string    `json:"street"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	Country          string    `json:"country"`
	PostalCode       string    `json:"postal_code"`
	Bio              string    `json:"bio"`
	Skills           []string  `json:"skills"`
	Interests        []string  `json:"interests"`
	ProfileCompleted bool      `json:"profile_completed"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProfilePatch is a partial update. Nil fields are left untouched.
type ProfilePatch struct {
	FullName    *string   `json:"full_name,omitempty"`
	Username    *string   `json:"username,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	DateOfBirth *string   `json:"date_of_birth,omitempty"`
	Gender      *string   `json:"gender,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Street      *string   `json:"street,omitempty"`
	City        *string   `json:"city,omitempty"`
	State       *string   `json:"state,omitempty"`
	Country     *string   `json:"country,omitempty"`
	PostalCode  *string   `json:"postal_code,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	Skills      *[]string `json:"skills,omitempty"`
	Interests   *[]string `json:"interests,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.FullName == nil && p.Username == nil && p.Phone == nil &&
		p.DateOfBirth == nil && p.Gender == nil && p.AvatarURL == nil &&
		p.Street == nil && p.City == nil && p.State == nil && p.Country == nil &&
		p.PostalCode == nil && p.Bio == nil && p.Skills == nil && p.Interests == nil
}
