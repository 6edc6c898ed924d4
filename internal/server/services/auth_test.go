package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/cryptox"
	"github.com/dmitrijs2005/impacthands/internal/logging"
	"github.com/dmitrijs2005/impacthands/internal/server/codes"
	"github.com/dmitrijs2005/impacthands/internal/server/config"
	"github.com/dmitrijs2005/impacthands/internal/server/metrics"
	"github.com/dmitrijs2005/impacthands/internal/server/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	svc     *AuthService
	mock    sqlmock.Sqlmock
	rm      *fakeRepoManager
	codes   *fakeCodeStore
	revoked *fakeRevocation
	mail    *fakeMailer
	met     *metrics.Metrics
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 24 * time.Hour,
		OTPValidityDuration:          10 * time.Minute,
		OTPMaxAttempts:               5,
		OTPResendWindow:              time.Minute,
		SiteURL:                      "http://localhost:5173",
		RedirectAllowList:            []string{"http://localhost"},
	}
	f := &authFixture{
		mock:    mock,
		rm:      newFakeRepoManager(),
		codes:   newFakeCodeStore(),
		revoked: newFakeRevocation(),
		mail:    &fakeMailer{},
		met:     metrics.New(),
	}
	f.svc = NewAuthService(db, f.rm, f.codes, f.revoked, f.mail, cfg, f.met, logging.NewNopLogger())
	f.svc.newCode = func(int) (string, error) { return "123456", nil }
	f.svc.hashCode = func(code string) (string, error) { return "h:" + code, nil }
	f.svc.compareCode = func(hash, code string) bool { return hash == "h:"+code }
	return f
}

func (f *authFixture) signIn(t *testing.T, email string) *Session {
	t.Helper()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	require.NoError(t, f.svc.SendCode(context.Background(), email, "http://localhost/dashboard"))
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	s, err := f.svc.VerifyCode(context.Background(), email, "123456")
	require.NoError(t, err)
	return s
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "  Ana@Example.COM ", want: "ana@example.com"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "not-an-email", wantErr: true},
		{in: "Ana <ana@example.com>", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeEmail(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrorValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSendCode_CreatesUserAndMailsCode(t *testing.T) {
	f := newAuthFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	err := f.svc.SendCode(context.Background(), " Ana@Example.com", "http://localhost:5173/dashboard")
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", f.mail.LastEmail)
	assert.Equal(t, "123456", f.mail.LastCode)
	assert.Equal(t, "http://localhost:5173/dashboard", f.mail.LastRedirect)
	assert.Equal(t, "h:123456", f.codes.hashes["ana@example.com"])
	assert.Equal(t, []string{"u1"}, f.rm.u.created)
	assert.Equal(t, []string{"u1"}, f.rm.p.emptyCreated)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.CodesSent.WithLabelValues("ok")))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSendCode_ForeignRedirectFallsBackToSite(t *testing.T) {
	f := newAuthFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	require.NoError(t, f.svc.SendCode(context.Background(), "ana@example.com", "https://evil.example/login"))
	assert.Equal(t, "http://localhost:5173", f.mail.LastRedirect)
	assert.Equal(t, "123456", f.mail.LastCode)
}

func TestSendCode_RedirectIsReencoded(t *testing.T) {
	f := newAuthFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	require.NoError(t, f.svc.SendCode(context.Background(), "ana@example.com", `http://localhost:5173/"><script>`))
	assert.Equal(t, "http://localhost:5173/%22%3E%3Cscript%3E", f.mail.LastRedirect)
}

func TestSendCode_ExistingUserKeepsProfile(t *testing.T) {
	f := newAuthFixture(t)
	f.rm.u.users["u7"] = &models.User{ID: "u7", Email: "ana@example.com"}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	require.NoError(t, f.svc.SendCode(context.Background(), "ana@example.com", ""))
	assert.Empty(t, f.rm.u.created)
	assert.Empty(t, f.rm.p.emptyCreated)
}

func TestSendCode_InvalidEmail(t *testing.T) {
	f := newAuthFixture(t)
	err := f.svc.SendCode(context.Background(), "nope", "")
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, f.codes.sent)
	assert.Zero(t, f.mail.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.CodesSent.WithLabelValues("invalid")))
}

func TestSendCode_Throttled(t *testing.T) {
	f := newAuthFixture(t)
	f.codes.throttle = 41500 * time.Millisecond

	err := f.svc.SendCode(context.Background(), "ana@example.com", "")
	require.ErrorIs(t, err, common.ErrResendThrottled)
	assert.Equal(t, "For security purposes, you can only request this after 42 seconds.", err.Error())
	assert.Zero(t, f.mail.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.CodesSent.WithLabelValues("throttled")))
}

func TestSendCode_MailFailureReleasesWindow(t *testing.T) {
	f := newAuthFixture(t)
	f.mail.err = errBoom{}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	err := f.svc.SendCode(context.Background(), "ana@example.com", "")
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.Equal(t, "Error sending magic link email", err.Error())
	assert.Equal(t, []string{"ana@example.com"}, f.codes.released)
	assert.False(t, f.codes.sent["ana@example.com"])
}

func TestSendCode_DBFailureRollsBack(t *testing.T) {
	f := newAuthFixture(t)
	f.rm.u.createErr = errBoom{}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	err := f.svc.SendCode(context.Background(), "ana@example.com", "")
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.Zero(t, f.mail.calls)
	assert.Equal(t, []string{"ana@example.com"}, f.codes.released)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyCode_IssuesSession(t *testing.T) {
	f := newAuthFixture(t)
	s := f.signIn(t, "ana@example.com")

	require.NotNil(t, s.User)
	assert.Equal(t, "ana@example.com", s.User.Email)
	assert.NotEmpty(t, s.AccessToken)
	assert.Len(t, s.RefreshToken, 64)
	assert.Equal(t, time.Hour, s.ExpiresIn)

	stored, ok := f.rm.r.byHash[cryptox.HashToken(s.RefreshToken)]
	require.True(t, ok, "refresh token must be stored hashed")
	assert.Equal(t, s.User.ID, stored.UserID)
	assert.NotEmpty(t, stored.SessionID)

	claims, err := f.svc.Authenticate(context.Background(), s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, claims.UserID())
	assert.Equal(t, stored.SessionID, claims.SessionID)

	assert.Empty(t, f.codes.hashes, "code is single use")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.TokensIssued.WithLabelValues("otp")))
}

func TestVerifyCode_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		prepare func(f *authFixture)
	}{
		{name: "short", code: "12345"},
		{name: "letters", code: "12a456"},
		{name: "wrong", code: "654321", prepare: func(f *authFixture) { f.codes.hashes["ana@example.com"] = "h:123456" }},
		{name: "missing", code: "123456"},
		{name: "exhausted", code: "123456", prepare: func(f *authFixture) { f.codes.consumeErr = codes.ErrAttemptsExceeded }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			if tt.prepare != nil {
				tt.prepare(f)
			}
			_, err := f.svc.VerifyCode(context.Background(), "ana@example.com", tt.code)
			require.ErrorIs(t, err, common.ErrInvalidCode)
			assert.Empty(t, f.rm.r.byHash)
			require.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestVerifyCode_StoreFailureIsInternal(t *testing.T) {
	f := newAuthFixture(t)
	f.codes.consumeErr = errBoom{}
	_, err := f.svc.VerifyCode(context.Background(), "ana@example.com", "123456")
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.CodeVerifications.WithLabelValues("error")))
}

func TestRefresh_RotatesWithinSession(t *testing.T) {
	f := newAuthFixture(t)
	first := f.signIn(t, "ana@example.com")
	oldHash := cryptox.HashToken(first.RefreshToken)
	sessionID := f.rm.r.byHash[oldHash].SessionID

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	next, err := f.svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, next.RefreshToken)
	assert.NotContains(t, f.rm.r.byHash, oldHash)
	stored := f.rm.r.byHash[cryptox.HashToken(next.RefreshToken)]
	require.NotNil(t, stored)
	assert.Equal(t, sessionID, stored.SessionID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.TokensIssued.WithLabelValues("refresh_token")))

	_, err = f.svc.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "a rotated token cannot be reused")
}

func TestRefresh_Expired(t *testing.T) {
	f := newAuthFixture(t)
	f.rm.r.byHash[cryptox.HashToken("r")] = &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(-time.Minute)}

	_, err := f.svc.Refresh(context.Background(), "r")
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)
	assert.Equal(t, []string{cryptox.HashToken("r")}, f.rm.r.deleted)
}

func TestRefresh_Errors(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = f.svc.Refresh(context.Background(), "unknown")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	f.rm.r.findErr = errBoom{}
	_, err = f.svc.Refresh(context.Background(), "any")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRefresh_DeleteFailureRollsBack(t *testing.T) {
	f := newAuthFixture(t)
	f.rm.r.byHash[cryptox.HashToken("r")] = &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(time.Hour)}
	f.rm.r.deleteErr = errBoom{}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Refresh(context.Background(), "r")
	require.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSignOut_RevokesAccessAndRefreshTokens(t *testing.T) {
	f := newAuthFixture(t)
	s := f.signIn(t, "ana@example.com")

	claims, err := f.svc.Authenticate(context.Background(), s.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.svc.SignOut(context.Background(), claims))

	ttl, ok := f.revoked.revoked[claims.ID]
	require.True(t, ok)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.Empty(t, f.rm.r.byHash)

	_, err = f.svc.Authenticate(context.Background(), s.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSignOut_RevocationFailure(t *testing.T) {
	f := newAuthFixture(t)
	s := f.signIn(t, "ana@example.com")
	claims, err := f.svc.Authenticate(context.Background(), s.AccessToken)
	require.NoError(t, err)

	f.revoked.revokeErr = errBoom{}
	err = f.svc.SignOut(context.Background(), claims)
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestAuthenticate_Errors(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	s := f.signIn(t, "ana@example.com")
	f.revoked.checkErr = errBoom{}
	_, err = f.svc.Authenticate(context.Background(), s.AccessToken)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestGetUser(t *testing.T) {
	f := newAuthFixture(t)
	f.rm.u.users["u1"] = &models.User{ID: "u1", Email: "ana@example.com"}

	u, err := f.svc.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)

	_, err = f.svc.GetUser(context.Background(), "u2")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	f.rm.u.getErr = errBoom{}
	_, err = f.svc.GetUser(context.Background(), "u1")
	assert.True(t, errors.Is(err, common.ErrorInternal))
}
