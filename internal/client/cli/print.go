package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/impacthands/internal/client/models"
	"github.com/dmitrijs2005/impacthands/internal/client/profile"
)

func printRecord(w io.Writer, email string, p *models.Profile) {
	if p == nil {
		return
	}
	line := func(label, v string) {
		if v != "" {
			fmt.Fprintf(w, "%-14s %s\n", label+":", v)
		}
	}
	line("Name", p.FullName)
	line("Email", email)
	if p.Username != "" {
		line("Username", "@"+p.Username)
	}
	line("Phone", p.Phone)
	line("Born", p.DateOfBirth)
	line("Gender", p.Gender)
	line("Avatar", p.AvatarURL)
	line("Address", joinNonEmpty(", ", p.Street, p.City, p.State, p.PostalCode, p.Country))
	line("Bio", p.Bio)
	line("Skills", strings.Join(p.Skills, ", "))
	line("Interests", strings.Join(p.Interests, ", "))
}

func printForm(w io.Writer, f profile.Form) {
	for _, kv := range [][2]string{
		{"Email", f.Email},
		{"Full name", f.FullName},
		{"Username", f.Username},
		{"Phone", f.Phone},
		{"Date of birth", f.DateOfBirth},
		{"Gender", f.Gender},
		{"Avatar", f.AvatarURL},
		{"Street", f.Street},
		{"City", f.City},
		{"State", f.State},
		{"Country", f.Country},
		{"Postal code", f.PostalCode},
		{"Bio", f.Bio},
		{"Skills", f.Skills},
		{"Interests", f.Interests},
	} {
		fmt.Fprintf(w, "%-14s %s\n", kv[0]+":", kv[1])
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
