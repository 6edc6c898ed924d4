package enrollments

import (
	"context"

	"github.com/dmitrijs2005/impacthands/internal/server/models"
)

type Repository interface {
	// Create inserts e and fills its ID and CreatedAt.
	Create(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error)
	// ListByUser returns the user's enrollments, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error)
}
