package models

// Profile is the per-identity document. Empty strings mean unset.
type Profile struct {
	UserID           string   `json:"user_id"`
	FullName         string   `json:"full_name"`
	Username         string   `json:"username"`
	Phone            string   `json:"phone"`
	DateOfBirth      string   `json:"date_of_birth"`
	Gender           string   `json:"gender"`
	AvatarURL        string   `json:"avatar_url"`
	Street           string   `json:"street"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	Country          string   `json:"country"`
	PostalCode       string   `json:"postal_code"`
	Bio              string   `json:"bio"`
	Skills           []string `json:"skills"`
	Interests        []string `json:"interests"`
	ProfileCompleted bool     `json:"profile_completed"`
}

// IsNew reports whether p should open in setup mode: there is no record,
// or it has never been completed and both name and phone are blank.
func (p *Profile) IsNew() bool {
	if p == nil {
		return true
	}
	return !p.ProfileCompleted && p.FullName == "" && p.Phone == ""
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Skills = append([]string(nil), p.Skills...)
	c.Interests = append([]string(nil), p.Interests...)
	return &c
}

// ProfilePatch is a partial update; nil fields are not sent.
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

// FullPatch returns a patch that writes every editable field of p.
func FullPatch(p *Profile) ProfilePatch {
	s := func(v string) *string { return &v }
	skills := append([]string{}, p.Skills...)
	interests := append([]string{}, p.Interests...)
	return ProfilePatch{
		FullName:    s(p.FullName),
		Username:    s(p.Username),
		Phone:       s(p.Phone),
		DateOfBirth: s(p.DateOfBirth),
		Gender:      s(p.Gender),
		AvatarURL:   s(p.AvatarURL),
		Street:      s(p.Street),
		City:        s(p.City),
		State:       s(p.State),
		Country:     s(p.Country),
		PostalCode:  s(p.PostalCode),
		Bio:         s(p.Bio),
		Skills:      &skills,
		Interests:   &interests,
	}
}
