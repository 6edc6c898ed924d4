package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/client/models"
)

// AuthService is the passwordless sign-in contract.
type AuthService interface {
	SendCode(ctx context.Context, email, redirectTo string) error
	VerifyCode(ctx context.Context, email, code string) (models.AuthSession, error)
	SignOut(ctx context.Context) error
	GetUser(ctx context.Context) (models.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (models.AuthSession, error)
}

// DataStore reads and writes per-user documents.
type DataStore interface {
	// GetProfile returns nil without error when the user has no profile.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	// UpdateProfile changes only the fields set in patch.
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error
	CreateEnrollment(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error)
	ListEnrollments(ctx context.Context) ([]*models.Enrollment, error)
}

// BlobStore stores avatars.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string, overwrite bool) error
	PublicURL(path string) string
}

// TokenSource supplies and rotates the bearer tokens of the current
// session. *session.Manager implements it.
type TokenSource interface {
	AccessToken() string
	// Valid reports whether the access token is still unexpired at now.
	Valid(now time.Time) bool
	RefreshToken() string
	UpdateTokens(access, refresh string, expiresAt time.Time)
	Expire()
}
