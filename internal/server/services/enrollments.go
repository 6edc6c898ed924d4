package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/logging"
	"github.com/dmitrijs2005/impacthands/internal/server/metrics"
	"github.com/dmitrijs2005/impacthands/internal/server/models"
	"github.com/dmitrijs2005/impacthands/internal/server/repositories/repomanager"
)

// EnrollmentService records sign-ups for events, gigs and opportunities.
type EnrollmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	metrics     *metrics.Metrics
	log         logging.Logger
}

func NewEnrollmentService(db *sql.DB, m repomanager.RepositoryManager, met *metrics.Metrics, log logging.Logger) *EnrollmentService {
	return &EnrollmentService{db: db, repomanager: m, metrics: met, log: log.With("module", "enrollments")}
}

// Create stores e for userID. Any UserID set on e is overwritten.
func (s *EnrollmentService) Create(ctx context.Context, userID string, e *models.Enrollment) (*models.Enrollment, error) {
	switch e.Kind {
	case models.EnrollmentEvent, models.EnrollmentGig, models.EnrollmentOpportunity:
	default:
		return nil, common.WithMessage(common.ErrorValidation, fmt.Sprintf("unknown enrollment kind %q", e.Kind))
	}
	e.TargetID = strings.TrimSpace(e.TargetID)
	e.FullName = strings.TrimSpace(e.FullName)
	e.Phone = strings.TrimSpace(e.Phone)
	if e.TargetID == "" {
		return nil, common.WithMessage(common.ErrorValidation, "target is required")
	}
	if e.FullName == "" {
		return nil, common.WithMessage(common.ErrorValidation, "full name is required")
	}
	email, err := NormalizeEmail(e.Email)
	if err != nil {
		return nil, err
	}
	e.Email = email
	e.UserID = userID

	out, err := s.repomanager.Enrollments(s.db).Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	s.metrics.Enrollments.WithLabelValues(e.Kind).Inc()
	s.log.Info(ctx, "enrollment created", "user_id", userID, "kind", e.Kind, "target_id", e.TargetID)
	return out, nil
}

// List returns the enrollments of userID, newest first.
func (s *EnrollmentService) List(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	list, err := s.repomanager.Enrollments(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return list, nil
}
