package internal

import (
	"fmt"
	"sync"
	"time"
)

// SessionState is the authentication state of the client process
type SessionState int

const (
	// StateUnknown is the initial state, before storage has been consulted
	StateUnknown SessionState = iota
	StateAnonymous
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session is the authenticated identity held by the client.
// ExpiresAt always comes from the token's exp claim.
type Session struct {
	Token     string
	User      User
	ExpiresAt time.Time
}

// CredentialHolder receives the credential to attach to outbound requests.
// An empty token detaches it.
type CredentialHolder interface {
	SetToken(token string)
}

// SessionOption configures a SessionManager
type SessionOption func(*SessionManager)

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// SessionManager owns the in-memory authentication state
type SessionManager struct {
	mu        sync.Mutex
	store     TokenStore
	creds     CredentialHolder
	now       func() time.Time
	state     SessionState
	session   *Session
	listeners []func(SessionState)
}

// NewSessionManager creates a manager in StateUnknown
func NewSessionManager(store TokenStore, creds CredentialHolder, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		store: store,
		creds: creds,
		now:   time.Now,
		state: StateUnknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnChange registers a listener called (without locks held) after every state change
func (m *SessionManager) OnChange(fn func(SessionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Restore consults the token store and validates the persisted token.
// Any decode failure, missing exp claim or past expiry ends in StateAnonymous
// with the store cleared.
func (m *SessionManager) Restore() SessionState {
	m.mu.Lock()
	before := m.state

	stored, err := m.store.Get()
	if err != nil {
		LogWarn("Failed to read stored credentials: %v", err)
		stored = nil
	}

	if stored == nil {
		LogDebug("No stored session found")
		m.logoutLocked()
		return m.unlockAndNotify(before)
	}

	claims, err := DecodeToken(stored.Token)
	if err != nil {
		LogWarn("Stored token rejected: %v", err)
		m.logoutLocked()
		return m.unlockAndNotify(before)
	}
	if claims.Expired(m.now()) {
		LogInfo("Stored session expired at %s", claims.ExpiresAt.Format(time.RFC3339))
		m.logoutLocked()
		return m.unlockAndNotify(before)
	}

	m.session = &Session{Token: stored.Token, User: stored.User, ExpiresAt: claims.ExpiresAt}
	m.state = StateAuthenticated
	m.creds.SetToken(stored.Token)
	LogDebug("Restored session for %s (expires %s)", stored.User.Email, claims.ExpiresAt.Format(time.RFC3339))
	return m.unlockAndNotify(before)
}

// Login establishes a session from a fresh register/login payload.
// The expiry is read from the token but not checked.
func (m *SessionManager) Login(auth AuthResponse) error {
	claims, err := DecodeToken(auth.Token)
	if err != nil {
		return fmt.Errorf("cannot establish session: %w", err)
	}

	user := auth.User()

	m.mu.Lock()
	before := m.state
	if err := m.store.Set(auth.Token, user); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to persist session: %w", err)
	}
	m.session = &Session{Token: auth.Token, User: user, ExpiresAt: claims.ExpiresAt}
	m.state = StateAuthenticated
	m.creds.SetToken(auth.Token)
	m.unlockAndNotify(before)

	LogInfo("Logged in as %s", user.Email)
	return nil
}

// Logout drops the session, clears the token store and detaches the credential.
// It is safe to call in any state.
func (m *SessionManager) Logout() {
	m.mu.Lock()
	before := m.state
	m.logoutLocked()
	m.unlockAndNotify(before)
}

// HandleUnauthorized is the HTTP client's callback for 401 responses
func (m *SessionManager) HandleUnauthorized() {
	LogWarn("Backend rejected the session credential, logging out")
	m.Logout()
}

// State returns the current state, expiring the session if its exp has passed
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	before := m.state
	m.expireLocked()
	return m.unlockAndNotify(before)
}

// IsAuthenticated reports whether a non-expired session is held
func (m *SessionManager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// Current returns a copy of the held session
func (m *SessionManager) Current() (Session, bool) {
	m.mu.Lock()
	before := m.state
	m.expireLocked()
	var current Session
	ok := m.session != nil
	if ok {
		current = *m.session
	}
	m.unlockAndNotify(before)
	return current, ok
}

func (m *SessionManager) expireLocked() {
	if m.state == StateAuthenticated && m.session != nil && (TokenClaims{ExpiresAt: m.session.ExpiresAt}).Expired(m.now()) {
		LogInfo("Session expired at %s", m.session.ExpiresAt.Format(time.RFC3339))
		m.logoutLocked()
	}
}

func (m *SessionManager) logoutLocked() {
	m.session = nil
	m.state = StateAnonymous
	if err := m.store.Clear(); err != nil {
		LogError("Failed to clear stored credentials: %v", err)
	}
	m.creds.SetToken("")
}

// unlockAndNotify releases the lock and notifies listeners if the state moved
func (m *SessionManager) unlockAndNotify(before SessionState) SessionState {
	after := m.state
	var listeners []func(SessionState)
	if after != before {
		listeners = append(listeners, m.listeners...)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(after)
	}
	return after
}
