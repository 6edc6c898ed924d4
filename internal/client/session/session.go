// Package session holds the authenticated session of the client as an
// explicit object. Controllers receive a *Manager instead of reading
// ambient state, and learn about the end of a session through OnEnd.
package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/client/models"
)

// ErrNoSession is returned when an operation needs a session and there is none.
var ErrNoSession = errors.New("no active session")

// EndReason tells listeners why a session ended.
type EndReason int

const (
	// SignedOut means the user asked to leave.
	SignedOut EndReason = iota
	// Expired means the backend no longer accepts the session.
	Expired
)

func (r EndReason) String() string {
	if r == Expired {
		return "expired"
	}
	return "signed out"
}

// Manager owns the current AuthSession. It is safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	current   *models.AuthSession
	listeners []func(EndReason)
}

func NewManager() *Manager {
	return &Manager{}
}

// Establish installs s as the current session, replacing any previous one.
func (m *Manager) Establish(s models.AuthSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &s
}

// Current returns a copy of the current session.
func (m *Manager) Current() (models.AuthSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return models.AuthSession{}, false
	}
	return *m.current, true
}

// Identity returns the identity of the current session.
func (m *Manager) Identity() (models.Identity, bool) {
	s, ok := m.Current()
	return s.Identity, ok
}

// Active reports whether a session is established.
func (m *Manager) Active() bool {
	_, ok := m.Current()
	return ok
}

// Valid reports whether a session is established and its access token has
// not expired at now.
func (m *Manager) Valid(now time.Time) bool {
	s, ok := m.Current()
	return ok && s.Valid(now)
}

// AccessToken returns the bearer token to send, or "" without a session.
func (m *Manager) AccessToken() string {
	s, _ := m.Current()
	return s.AccessToken
}

// RefreshToken returns the refresh token of the current session.
func (m *Manager) RefreshToken() string {
	s, _ := m.Current()
	return s.RefreshToken
}

// UpdateTokens replaces the tokens of the current session after a refresh.
// It does nothing when the session has already ended.
func (m *Manager) UpdateTokens(access, refresh string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	m.current.AccessToken = access
	m.current.RefreshToken = refresh
	m.current.ExpiresAt = expiresAt
}

// OnEnd registers fn to run after the session is destroyed or expires.
func (m *Manager) OnEnd(fn func(EndReason)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Destroy ends the session on the user's request.
func (m *Manager) Destroy() { m.end(SignedOut) }

// Expire ends the session because the backend rejected it.
func (m *Manager) Expire() { m.end(Expired) }

// end clears the session and notifies listeners outside the lock. Ending an
// already ended session is a no-op.
func (m *Manager) end(reason EndReason) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return
	}
	m.current = nil
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(reason)
	}
}
