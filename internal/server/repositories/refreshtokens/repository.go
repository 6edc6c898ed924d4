package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/server/models"
)

// Repository stores refresh tokens by hash.
type Repository interface {
	// Create stores tokenHash for userID within sessionID, expiring at now+validity.
	Create(ctx context.Context, userID, sessionID, tokenHash string, validity time.Duration) error

	// Find returns the row for tokenHash or common.ErrorNotFound.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete removes one token. A missing token is not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByUser removes every token of userID and returns how many went.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
