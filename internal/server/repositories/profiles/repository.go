package profiles

import (
	"context"

	"github.com/dmitrijs2005/impacthands/internal/server/models"
)

type Repository interface {
	// Get returns the profile of userID or common.ErrorNotFound.
	Get(ctx context.Context, userID string) (*models.Profile, error)
	// CreateEmpty inserts a blank profile row; an existing row is kept.
	CreateEmpty(ctx context.Context, userID string) error
	// Update writes only the non-nil fields of patch.
	Update(ctx context.Context, userID string, patch models.ProfilePatch) error
}
