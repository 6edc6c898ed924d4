package profile

import (
	"strings"

	"github.com/dmitrijs2005/impacthands/internal/client/models"
)

// Form is the edit buffer. Skills and Interests hold the raw
// comma-separated input; Email is shown but never saved.
type Form struct {
	Email       string
	FullName    string
	Username    string
	Phone       string
	DateOfBirth string
	Gender      string
	AvatarURL   string
	Street      string
	City        string
	State       string
	Country     string
	PostalCode  string
	Bio         string
	Skills      string
	Interests   string
}

func formFrom(p *models.Profile, email string) Form {
	if p == nil {
		return Form{Email: email}
	}
	return Form{
		Email:       email,
		FullName:    p.FullName,
		Username:    p.Username,
		Phone:       p.Phone,
		DateOfBirth: p.DateOfBirth,
		Gender:      p.Gender,
		AvatarURL:   p.AvatarURL,
		Street:      p.Street,
		City:        p.City,
		State:       p.State,
		Country:     p.Country,
		PostalCode:  p.PostalCode,
		Bio:         p.Bio,
		Skills:      strings.Join(p.Skills, ", "),
		Interests:   strings.Join(p.Interests, ", "),
	}
}

// record converts the buffer into the profile that will be stored.
func (f Form) record(userID string) *models.Profile {
	return &models.Profile{
		UserID:           userID,
		FullName:         strings.TrimSpace(f.FullName),
		Username:         strings.ToLower(strings.TrimSpace(f.Username)),
		Phone:            strings.TrimSpace(f.Phone),
		DateOfBirth:      strings.TrimSpace(f.DateOfBirth),
		Gender:           strings.TrimSpace(f.Gender),
		AvatarURL:        f.AvatarURL,
		Street:           strings.TrimSpace(f.Street),
		City:             strings.TrimSpace(f.City),
		State:            strings.TrimSpace(f.State),
		Country:          strings.TrimSpace(f.Country),
		PostalCode:       strings.TrimSpace(f.PostalCode),
		Bio:              f.Bio,
		Skills:           SplitList(f.Skills),
		Interests:        SplitList(f.Interests),
		ProfileCompleted: true,
	}
}

// SplitList splits comma-separated input, trims each entry and drops empty
// ones. Order and duplicates are kept.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
