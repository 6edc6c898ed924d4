// Package enroll signs the current user up for events, gigs and
// opportunities.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/impacthands/internal/client/catalog"
	"github.com/dmitrijs2005/impacthands/internal/client/client"
	"github.com/dmitrijs2005/impacthands/internal/client/models"
	"github.com/dmitrijs2005/impacthands/internal/client/notify"
	"github.com/dmitrijs2005/impacthands/internal/logging"
)

var (
	ErrNotAuthenticated = errors.New("sign in to enroll")
	ErrNameRequired     = errors.New("full name is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrBusy             = errors.New("enrollment already in progress")
)

// Store is the enrollment part of the data store.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	CreateEnrollment(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error)
	ListEnrollments(ctx context.Context) ([]*models.Enrollment, error)
}

// Identities reports who is signed in.
type Identities interface {
	Identity() (models.Identity, bool)
}

// Form holds the contact fields of a sign-up. Details carries the
// kind-specific answers such as availability.
type Form struct {
	FullName string
	Email    string
	Phone    string
	Message  string
	Details  map[string]string
}

type Service struct {
	store    Store
	sessions Identities
	notifier notify.Notifier
	log      logging.Logger

	mu       sync.Mutex
	inflight bool
}

func NewService(store Store, sessions Identities, n notify.Notifier, log logging.Logger) *Service {
	return &Service{store: store, sessions: sessions, notifier: n, log: log.With("module", "enroll")}
}

// Prefill returns a form with the identity email and, when a profile
// exists, its name and phone. A failed profile read is not an error.
func (s *Service) Prefill(ctx context.Context) (Form, error) {
	id, ok := s.sessions.Identity()
	if !ok {
		return Form{}, ErrNotAuthenticated
	}
	f := Form{Email: id.Email}
	p, err := s.store.GetProfile(ctx, id.ID)
	if err != nil {
		s.log.Warn(ctx, "prefill: fetch profile failed", "user_id", id.ID, "error", err)
		return f, nil
	}
	if p != nil {
		f.FullName = p.FullName
		f.Phone = p.Phone
	}
	return f, nil
}

// Submit records an enrollment in target.
func (s *Service) Submit(ctx context.Context, target catalog.Item, f Form) (*models.Enrollment, error) {
	if _, ok := s.sessions.Identity(); !ok {
		return nil, ErrNotAuthenticated
	}
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	if f.FullName == "" {
		s.notifier.Notify(notify.Toast{Kind: notify.Error, Title: "Error", Message: "Full name is required."})
		return nil, ErrNameRequired
	}
	if f.Email == "" {
		s.notifier.Notify(notify.Toast{Kind: notify.Error, Title: "Error", Message: "Email is required."})
		return nil, ErrEmailRequired
	}

	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.inflight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight = false
		s.mu.Unlock()
	}()

	out, err := s.store.CreateEnrollment(ctx, &models.Enrollment{
		Kind:        target.Kind,
		TargetID:    target.TargetID(),
		TargetTitle: target.Title,
		FullName:    f.FullName,
		Email:       f.Email,
		Phone:       strings.TrimSpace(f.Phone),
		Message:     f.Message,
		Details:     f.Details,
	})
	if err != nil {
		s.log.Warn(ctx, "enrollment failed", "kind", target.Kind, "target_id", target.TargetID(), "error", err)
		s.notifier.Notify(notify.Toast{Kind: notify.Error, Title: "Error", Message: client.Message(err)})
		return nil, err
	}

	s.notifier.Notify(confirmation(target))
	return out, nil
}

// List returns the current user's enrollments.
func (s *Service) List(ctx context.Context) ([]*models.Enrollment, error) {
	if _, ok := s.sessions.Identity(); !ok {
		return nil, ErrNotAuthenticated
	}
	return s.store.ListEnrollments(ctx)
}

func confirmation(target catalog.Item) notify.Toast {
	switch target.Kind {
	case models.KindEvent:
		return notify.Toast{Kind: notify.Success, Title: "Registration Successful!",
			Message: fmt.Sprintf("You've been registered for %q. We'll send confirmation details to your email.", target.Title)}
	case models.KindGig:
		return notify.Toast{Kind: notify.Success, Title: "Enrollment Successful!",
			Message: fmt.Sprintf("You've been enrolled for %q. We'll send confirmation details to your email.", target.Title)}
	default:
		return notify.Toast{Kind: notify.Success, Title: "Application Submitted!",
			Message: "Thank you for applying! We'll review your application and get back to you soon."}
	}
}
