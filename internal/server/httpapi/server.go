// Package httpapi exposes the services over a BaaS-shaped JSON API:
// /auth/v1 for sign-in, /rest/v1 for documents and /storage/v1 for objects.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/logging"
	"github.com/dmitrijs2005/impacthands/internal/server/auth"
	"github.com/dmitrijs2005/impacthands/internal/server/blob"
	"github.com/dmitrijs2005/impacthands/internal/server/metrics"
	"github.com/dmitrijs2005/impacthands/internal/server/models"
	"github.com/dmitrijs2005/impacthands/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type AuthService interface {
	Authenticator
	SendCode(ctx context.Context, email, redirectTo string) error
	VerifyCode(ctx context.Context, email, code string) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	SignOut(ctx context.Context, claims *auth.Claims) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, patch models.ProfilePatch) error
}

type StorageService interface {
	Upload(ctx context.Context, userID, key string, data []byte, contentType string, upsert bool) error
	Open(ctx context.Context, key string) (*blob.Object, error)
}

type EnrollmentService interface {
	Create(ctx context.Context, userID string, e *models.Enrollment) (*models.Enrollment, error)
	List(ctx context.Context, userID string) ([]*models.Enrollment, error)
}

// Server holds the handlers and their collaborators.
type Server struct {
	auth        AuthService
	profiles    ProfileService
	storage     StorageService
	enrollments EnrollmentService
	metrics     *metrics.Metrics
	log         logging.Logger

	publicBaseURL string
}

// NewServer builds the API. publicBaseURL prefixes the object URLs it hands
// out and should be the address clients reach this server on.
func NewServer(a AuthService, p ProfileService, s StorageService, e EnrollmentService,
	met *metrics.Metrics, log logging.Logger, publicBaseURL string) *Server {
	return &Server{
		auth:        a,
		profiles:    p,
		storage:     s,
		enrollments: e,
		metrics:     met,
		log:         log.With("module", "httpapi"),

		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(instrument(s.metrics))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	requireAuth := RequireAuth(s.auth, s.log)

	r.Route("/auth/v1", func(r chi.Router) {
		r.Post("/otp", s.handleSendCode)
		r.Post("/verify", s.handleVerify)
		r.Post("/token", s.handleToken)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", s.handleLogout)
			r.Get("/user", s.handleUser)
		})
	})

	r.Route("/rest/v1", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/profiles/{userID}", s.handleGetProfile)
		r.Patch("/profiles/{userID}", s.handlePatchProfile)
		r.Post("/enrollments", s.handleCreateEnrollment)
		r.Get("/enrollments", s.handleListEnrollments)
	})

	r.Route("/storage/v1/object", func(r chi.Router) {
		r.Get("/public/{bucket}/*", s.handleGetObject)
		r.With(requireAuth).Put("/{bucket}/*", s.handlePutObject)
	})

	return r
}
