package users

import (
	"context"

	"github.com/dmitrijs2005/impacthands/internal/server/models"
)

type Repository interface {
	// FindOrCreateByEmail returns the user with the given normalised email,
	// inserting it first when absent. created reports whether it was inserted.
	FindOrCreateByEmail(ctx context.Context, email string) (user *models.User, created bool, err error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
