package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/dbx"
	"github.com/dmitrijs2005/impacthands/internal/server/blob"
	"github.com/dmitrijs2005/impacthands/internal/server/codes"
	"github.com/dmitrijs2005/impacthands/internal/server/models"
	enrollmentsrepo "github.com/dmitrijs2005/impacthands/internal/server/repositories/enrollments"
	profilesrepo "github.com/dmitrijs2005/impacthands/internal/server/repositories/profiles"
	refreshtokensrepo "github.com/dmitrijs2005/impacthands/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/impacthands/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- repositories ---

type fakeUsersRepo struct {
	users     map[string]*models.User
	createErr error
	getErr    error
	created   []string
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) FindOrCreateByEmail(_ context.Context, email string) (*models.User, bool, error) {
	if f.createErr != nil {
		return nil, false, f.createErr
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, false, nil
		}
	}
	u := &models.User{ID: fmt.Sprintf("u%d", len(f.users)+1), Email: email, CreatedAt: time.Now()}
	f.users[u.ID] = u
	f.created = append(f.created, u.ID)
	return u, true, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeProfilesRepo struct {
	profiles map[string]*models.Profile

	getErr    error
	createErr error
	updateErr error

	LastUpdateUser  string
	LastUpdatePatch *models.ProfilePatch
	emptyCreated    []string
}

func newFakeProfilesRepo() *fakeProfilesRepo {
	return &fakeProfilesRepo{profiles: map[string]*models.Profile{}}
}

func (f *fakeProfilesRepo) Get(_ context.Context, userID string) (*models.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakeProfilesRepo) CreateEmpty(_ context.Context, userID string) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.profiles[userID]; !ok {
		f.profiles[userID] = &models.Profile{UserID: userID}
		f.emptyCreated = append(f.emptyCreated, userID)
	}
	return nil
}

func (f *fakeProfilesRepo) Update(_ context.Context, userID string, patch models.ProfilePatch) error {
	f.LastUpdateUser = userID
	f.LastUpdatePatch = &patch
	return f.updateErr
}

type fakeRefreshRepo struct {
	byHash map[string]*models.RefreshToken

	findErr    error
	deleteErr  error
	createErr  error
	deleteUser error

	deleted        []string
	deletedForUser []string
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{byHash: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, sessionID, tokenHash string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byHash[tokenHash] = &models.RefreshToken{
		UserID: userID, SessionID: sessionID, TokenHash: tokenHash, Expires: time.Now().Add(validity),
	}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	t, ok := f.byHash[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, tokenHash string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byHash, tokenHash)
	f.deleted = append(f.deleted, tokenHash)
	return nil
}

func (f *fakeRefreshRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	if f.deleteUser != nil {
		return 0, f.deleteUser
	}
	var n int64
	for h, t := range f.byHash {
		if t.UserID == userID {
			delete(f.byHash, h)
			n++
		}
	}
	f.deletedForUser = append(f.deletedForUser, userID)
	return n, nil
}

type fakeEnrollmentsRepo struct {
	createErr error
	listErr   error
	list      []*models.Enrollment
	LastIn    *models.Enrollment
}

func (f *fakeEnrollmentsRepo) Create(_ context.Context, e *models.Enrollment) (*models.Enrollment, error) {
	f.LastIn = e
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *e
	out.ID = "e1"
	out.CreatedAt = time.Now()
	return &out, nil
}

func (f *fakeEnrollmentsRepo) ListByUser(_ context.Context, userID string) ([]*models.Enrollment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Enrollment
	for _, e := range f.list {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakeProfilesRepo
	r *fakeRefreshRepo
	e *fakeEnrollmentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(),
		p: newFakeProfilesRepo(),
		r: newFakeRefreshRepo(),
		e: &fakeEnrollmentsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error         { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profilesrepo.Repository           { return m.p }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Enrollments(dbx.DBTX) enrollmentsrepo.Repository     { return m.e }

// --- redis-backed collaborators ---

type fakeCodeStore struct {
	mu sync.Mutex

	hashes map[string]string
	sent   map[string]bool

	saveErr    error
	consumeErr error
	reserveErr error
	throttle   time.Duration

	released []string
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{hashes: map[string]string{}, sent: map[string]bool{}}
}

func (f *fakeCodeStore) Save(_ context.Context, email, hash string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.hashes[email] = hash
	return nil
}

func (f *fakeCodeStore) Consume(_ context.Context, email string, matches func(string) bool, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consumeErr != nil {
		return f.consumeErr
	}
	h, ok := f.hashes[email]
	if !ok {
		return codes.ErrNotFound
	}
	if !matches(h) {
		return codes.ErrMismatch
	}
	delete(f.hashes, email)
	return nil
}

func (f *fakeCodeStore) Reserve(_ context.Context, email string, _ time.Duration) (bool, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return false, 0, f.reserveErr
	}
	if f.throttle > 0 {
		return false, f.throttle, nil
	}
	f.sent[email] = true
	return true, 0, nil
}

func (f *fakeCodeStore) Release(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sent, email)
	f.released = append(f.released, email)
	return nil
}

type fakeRevocation struct {
	revoked   map[string]time.Duration
	revokeErr error
	checkErr  error
}

func newFakeRevocation() *fakeRevocation {
	return &fakeRevocation{revoked: map[string]time.Duration{}}
}

func (f *fakeRevocation) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked[jti] = ttl
	return nil
}

func (f *fakeRevocation) IsRevoked(_ context.Context, jti string) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	_, ok := f.revoked[jti]
	return ok, nil
}

type fakeMailer struct {
	err          error
	LastEmail    string
	LastCode     string
	LastRedirect string
	calls        int
}

func (f *fakeMailer) SendCode(_ context.Context, email, code, redirectTo string) error {
	f.calls++
	f.LastEmail, f.LastCode, f.LastRedirect = email, code, redirectTo
	return f.err
}

// --- blob ---

type fakeBlobStore struct {
	objects map[string]*fakeObject
	putErr  error
	getErr  error
	puts    int
}

type fakeObject struct {
	data        []byte
	contentType string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string]*fakeObject{}}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = &fakeObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (f *fakeBlobStore) Get(_ context.Context, key string) (*blob.Object, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	o, ok := f.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &blob.Object{
		Body:        io.NopCloser(bytes.NewReader(o.data)),
		ContentType: o.contentType,
		Size:        int64(len(o.data)),
	}, nil
}
