// Package services holds the business logic of the backend. This file
// implements AuthService: passwordless sign-in with emailed one-time codes,
// JWT access tokens and rotating refresh tokens stored server-side.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/cryptox"
	"github.com/dmitrijs2005/impacthands/internal/dbx"
	"github.com/dmitrijs2005/impacthands/internal/logging"
	"github.com/dmitrijs2005/impacthands/internal/server/auth"
	"github.com/dmitrijs2005/impacthands/internal/server/codes"
	"github.com/dmitrijs2005/impacthands/internal/server/config"
	"github.com/dmitrijs2005/impacthands/internal/server/mailer"
	"github.com/dmitrijs2005/impacthands/internal/server/metrics"
	"github.com/dmitrijs2005/impacthands/internal/server/models"
	"github.com/dmitrijs2005/impacthands/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// CodeStore keeps pending one-time codes and the resend window.
type CodeStore interface {
	Save(ctx context.Context, email, hash string, ttl time.Duration) error
	Consume(ctx context.Context, email string, matches func(hash string) bool, maxAttempts int) error
	Reserve(ctx context.Context, email string, window time.Duration) (ok bool, retryAfter time.Duration, err error)
	Release(ctx context.Context, email string) error
}

// RevocationList remembers signed-out access tokens.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Session is what a successful verify or refresh hands back to the client.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	ExpiresAt    time.Time
	User         *models.User
}

// AuthService issues and ends sessions.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codes       CodeStore
	revoked     RevocationList
	mail        mailer.Sender
	redirects   *RedirectPolicy
	issuer      *auth.Issuer
	metrics     *metrics.Metrics
	log         logging.Logger

	refreshValidity time.Duration
	codeValidity    time.Duration
	resendWindow    time.Duration
	maxAttempts     int

	now         func() time.Time
	newCode     func(digits int) (string, error)
	hashCode    func(code string) (string, error)
	compareCode func(hash, code string) bool
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, codeStore CodeStore, revoked RevocationList,
	sender mailer.Sender, cfg *config.Config, met *metrics.Metrics, log logging.Logger) *AuthService {
	return &AuthService{
		db:              db,
		repomanager:     m,
		codes:           codeStore,
		revoked:         revoked,
		mail:            sender,
		redirects:       NewRedirectPolicy(cfg.SiteURL, cfg.RedirectAllowList),
		issuer:          auth.NewIssuer([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
		metrics:         met,
		log:             log.With("module", "auth"),
		refreshValidity: cfg.RefreshTokenValidityDuration,
		codeValidity:    cfg.OTPValidityDuration,
		resendWindow:    cfg.OTPResendWindow,
		maxAttempts:     cfg.OTPMaxAttempts,
		now:             time.Now,
		newCode:         cryptox.NewOTP,
		hashCode:        cryptox.HashCode,
		compareCode:     cryptox.CompareCode,
	}
}

// NormalizeEmail trims and lower-cases an address and checks its syntax.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", common.WithMessage(common.ErrorValidation, "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", common.WithMessage(common.ErrorValidation, "unable to validate email address: invalid format")
	}
	return email, nil
}

// SendCode emails a fresh one-time code to email, creating the account on
// first use. Requests inside the resend window are refused.
func (s *AuthService) SendCode(ctx context.Context, email, redirectTo string) (err error) {
	defer func() { s.metrics.CodesSent.WithLabelValues(sendResult(err)).Inc() }()

	email, err = NormalizeEmail(email)
	if err != nil {
		return err
	}

	ok, retryAfter, err := s.codes.Reserve(ctx, email, s.resendWindow)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		secs := int(math.Ceil(retryAfter.Seconds()))
		return common.WithMessage(common.ErrResendThrottled,
			fmt.Sprintf("For security purposes, you can only request this after %d seconds.", secs))
	}

	if err := s.sendCode(ctx, email, redirectTo); err != nil {
		if rerr := s.codes.Release(ctx, email); rerr != nil {
			s.log.Warn(ctx, "release resend window", "email", email, "error", rerr)
		}
		return err
	}
	return nil
}

func (s *AuthService) sendCode(ctx context.Context, email, redirectTo string) error {
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, created, err := s.repomanager.Users(tx).FindOrCreateByEmail(ctx, email)
		if err != nil {
			return err
		}
		if created {
			s.log.Info(ctx, "user created", "user_id", user.ID)
			return s.repomanager.Profiles(tx).CreateEmpty(ctx, user.ID)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	code, err := s.newCode(common.OTPLength)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	hash, err := s.hashCode(code)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if err := s.codes.Save(ctx, email, hash, s.codeValidity); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	target, ok := s.redirects.Resolve(redirectTo)
	if !ok {
		s.log.Warn(ctx, "redirect target not allowed, using site url", "email", email, "redirect_to", redirectTo)
	}
	if err := s.mail.SendCode(ctx, email, code, target); err != nil {
		s.log.Error(ctx, "send code email", "email", email, "error", err)
		return common.WithMessage(common.ErrorInternal, "Error sending magic link email")
	}
	return nil
}

// VerifyCode exchanges a valid code for a new session. Any failure of the
// code itself is reported as common.ErrInvalidCode.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (session *Session, err error) {
	defer func() { s.metrics.CodeVerifications.WithLabelValues(metrics.Result(err)).Inc() }()

	email, err = NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if !isDigits(code, common.OTPLength) {
		return nil, common.ErrInvalidCode
	}

	err = s.codes.Consume(ctx, email, func(hash string) bool { return s.compareCode(hash, code) }, s.maxAttempts)
	switch {
	case errors.Is(err, codes.ErrNotFound), errors.Is(err, codes.ErrMismatch), errors.Is(err, codes.ErrAttemptsExceeded):
		return nil, common.ErrInvalidCode
	case err != nil:
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, _, err := s.repomanager.Users(tx).FindOrCreateByEmail(ctx, email)
		if err != nil {
			return err
		}
		if err := s.repomanager.Profiles(tx).CreateEmpty(ctx, user.ID); err != nil {
			return err
		}
		session, err = s.newSession(ctx, tx, user, uuid.NewString())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	s.metrics.TokensIssued.WithLabelValues("otp").Inc()
	return session, nil
}

// Refresh rotates a refresh token: the presented token is deleted and a new
// pair is issued in the same login session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, common.ErrInvalidToken
	}
	hash := cryptox.HashToken(refreshToken)

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if token.Expires.Before(s.now()) {
		if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, hash); err != nil {
			s.log.Warn(ctx, "delete expired refresh token", "error", err)
		}
		return nil, common.ErrRefreshTokenExpired
	}

	var session *Session
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, hash); err != nil {
			return err
		}
		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		session, err = s.newSession(ctx, tx, user, token.SessionID)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	s.metrics.TokensIssued.WithLabelValues("refresh_token").Inc()
	return session, nil
}

// Authenticate validates an access token and rejects signed-out ones.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.issuer.Parse(accessToken)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if revoked {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// SignOut revokes the presented access token and every refresh token of
// the user.
func (s *AuthService) SignOut(ctx context.Context, claims *auth.Claims) error {
	if err := s.revoked.Revoke(ctx, claims.ID, claims.TTL(s.now())); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	n, err := s.repomanager.RefreshTokens(s.db).DeleteByUser(ctx, claims.UserID())
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	s.log.Info(ctx, "signed out", "user_id", claims.UserID(), "refresh_tokens", n)
	return nil
}

// GetUser returns the account of userID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return user, nil
}

func (s *AuthService) newSession(ctx context.Context, tx dbx.DBTX, user *models.User, sessionID string) (*Session, error) {
	access, claims, err := s.issuer.Issue(user.ID, user.Email, sessionID)
	if err != nil {
		return nil, err
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, sessionID, cryptox.HashToken(refresh), s.refreshValidity); err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.issuer.Validity(),
		ExpiresAt:    claims.ExpiresAt.Time,
		User:         user,
	}, nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func sendResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrResendThrottled):
		return "throttled"
	case errors.Is(err, common.ErrorValidation):
		return "invalid"
	default:
		return "error"
	}
}
