package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/logging"
	"github.com/dmitrijs2005/impacthands/internal/server/models"
	"github.com/dmitrijs2005/impacthands/internal/server/repositories/repomanager"
)

const (
	maxFullNameLen  = 200
	maxFieldLen     = 500
	maxBioLen       = 2000
	maxAvatarURLLen = 2048
	maxListItems    = 50
	maxListItemLen  = 100
)

var usernameRe = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

// ProfileService reads and partially updates profile documents.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ProfileService {
	return &ProfileService{db: db, repomanager: m, log: log.With("module", "profiles")}
}

// Get returns the profile of userID or common.ErrorNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.repomanager.Profiles(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return p, nil
}

// Update writes the supplied fields of patch. An empty patch changes nothing.
func (s *ProfileService) Update(ctx context.Context, userID string, patch models.ProfilePatch) error {
	if patch.IsEmpty() {
		return nil
	}
	if err := validatePatch(&patch); err != nil {
		return err
	}

	err := s.repomanager.Profiles(s.db).Update(ctx, userID, patch)
	switch {
	case err == nil:
		s.log.Debug(ctx, "profile updated", "user_id", userID)
		return nil
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorConflict):
		return err
	default:
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
}

// validatePatch checks field limits and normalises the values in place.
func validatePatch(p *models.ProfilePatch) error {
	if p.FullName != nil {
		v := strings.TrimSpace(*p.FullName)
		if utf8.RuneCountInString(v) > maxFullNameLen {
			return common.WithMessage(common.ErrorValidation,
				fmt.Sprintf("full name must be at most %d characters", maxFullNameLen))
		}
		p.FullName = &v
	}
	if p.Username != nil {
		v := strings.ToLower(strings.TrimSpace(*p.Username))
		if v != "" && !usernameRe.MatchString(v) {
			return common.WithMessage(common.ErrorValidation,
				"username must be 3-30 characters of lowercase letters, digits, dots or underscores")
		}
		p.Username = &v
	}
	if p.DateOfBirth != nil {
		v := strings.TrimSpace(*p.DateOfBirth)
		if v != "" {
			if _, err := time.Parse(time.DateOnly, v); err != nil {
				return common.WithMessage(common.ErrorValidation, "date of birth must be YYYY-MM-DD")
			}
		}
		p.DateOfBirth = &v
	}
	if p.AvatarURL != nil && len(*p.AvatarURL) > maxAvatarURLLen {
		return common.WithMessage(common.ErrorValidation, "avatar url is too long")
	}
	if p.Bio != nil && utf8.RuneCountInString(*p.Bio) > maxBioLen {
		return common.WithMessage(common.ErrorValidation,
			fmt.Sprintf("bio must be at most %d characters", maxBioLen))
	}

	for name, v := range map[string]*string{
		"phone": p.Phone, "gender": p.Gender, "street": p.Street, "city": p.City,
		"state": p.State, "country": p.Country, "postal code": p.PostalCode,
	} {
		if v != nil && utf8.RuneCountInString(*v) > maxFieldLen {
			return common.WithMessage(common.ErrorValidation,
				fmt.Sprintf("%s must be at most %d characters", name, maxFieldLen))
		}
	}

	if err := validateList("skills", p.Skills); err != nil {
		return err
	}
	return validateList("interests", p.Interests)
}

func validateList(name string, list *[]string) error {
	if list == nil {
		return nil
	}
	if *list == nil {
		*list = []string{}
	}
	if len(*list) > maxListItems {
		return common.WithMessage(common.ErrorValidation,
			fmt.Sprintf("%s may hold at most %d entries", name, maxListItems))
	}
	for _, item := range *list {
		if utf8.RuneCountInString(item) > maxListItemLen {
			return common.WithMessage(common.ErrorValidation,
				fmt.Sprintf("%s entries must be at most %d characters", name, maxListItemLen))
		}
	}
	return nil
}
