package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/studiowebux/postcli/internal/api"
	"github.com/studiowebux/postcli/internal/logging"
	"github.com/studiowebux/postcli/internal/storage"
	"github.com/studiowebux/postcli/internal/types"
)

// MsgLoggedOut is returned by Logout
const MsgLoggedOut = "Logged out successfully."

// State is the authentication state of the client
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// EndReason tells listeners why a session ended
type EndReason int

const (
	// EndLogout is a user-requested logout
	EndLogout EndReason = iota
	// EndExpired is a 401/403 answer from the backend
	EndExpired
)

func (r EndReason) String() string {
	if r == EndExpired {
		return "expired"
	}
	return "logout"
}

// Authenticator is the part of the backend client used for authentication
type Authenticator interface {
	Login(ctx context.Context, creds types.Credentials) (*types.AuthResponse, error)
	Register(ctx context.Context, creds types.Credentials) (*types.AuthResponse, error)
}

// ErrEmptyToken is returned when the backend accepts credentials without issuing a token
var ErrEmptyToken = errors.New("backend returned an empty token")

// AuthError is a failed login or register. Error returns the text to show the user.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return api.AuthMessage(e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Manager owns the session: the in-memory copy and its persisted counterpart
type Manager struct {
	mu        sync.RWMutex
	current   types.Session
	store     storage.Store
	auth      Authenticator
	listeners []func(EndReason)
	logger    *slog.Logger
}

// NewManager creates a session manager. Call Restore to load a persisted session.
func NewManager(store storage.Store, auth Authenticator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		store:  store,
		auth:   auth,
		logger: logger,
	}
}

// Restore loads the persisted session. A token without a username (or the
// reverse) is discarded and the client starts anonymous.
func (m *Manager) Restore() error {
	token, hasToken, err := m.store.Get(storage.KeyToken)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	username, hasUser, err := m.store.Get(storage.KeyUsername)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	restored := types.Session{Token: token, Username: username}
	if !hasToken || !hasUser || !restored.Valid() {
		if hasToken || hasUser {
			m.logger.Warn("discarding incomplete persisted session")
			if err := m.store.Delete(storage.KeyToken, storage.KeyUsername); err != nil {
				return fmt.Errorf("failed to clean up session: %w", err)
			}
		}
		restored = types.Session{}
	}

	m.mu.Lock()
	m.current = restored
	m.mu.Unlock()

	if restored.Valid() {
		m.logger.Info("session restored", "username", restored.Username)
	}
	return nil
}

// Login authenticates with the backend and returns its message on success.
// On failure the current session is left untouched.
func (m *Manager) Login(ctx context.Context, username, password string) (string, error) {
	return m.authenticate(ctx, username, password, m.auth.Login)
}

// Register creates an account and signs in with it
func (m *Manager) Register(ctx context.Context, username, password string) (string, error) {
	return m.authenticate(ctx, username, password, m.auth.Register)
}

func (m *Manager) authenticate(
	ctx context.Context,
	username, password string,
	call func(context.Context, types.Credentials) (*types.AuthResponse, error),
) (string, error) {
	resp, err := call(ctx, types.Credentials{Username: username, Password: password})
	if err != nil {
		return "", &AuthError{Err: err}
	}
	if resp.Token == "" {
		return "", &AuthError{Err: ErrEmptyToken}
	}

	// The submitted username is kept, the backend does not echo it
	next := types.Session{Token: resp.Token, Username: username}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.persist(next); err != nil {
		return "", err
	}
	m.current = next

	m.logger.Info("signed in", "username", username)
	return resp.Message, nil
}

// persist writes both halves of the session, rolling back on partial failure.
// Must be called with mu held.
func (m *Manager) persist(s types.Session) error {
	if err := m.store.Set(storage.KeyToken, s.Token); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := m.store.Set(storage.KeyUsername, s.Username); err != nil {
		if m.current.Valid() {
			_ = m.store.Set(storage.KeyToken, m.current.Token)
		} else {
			_ = m.store.Delete(storage.KeyToken)
		}
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Logout ends the session and returns the informational message. It never fails.
func (m *Manager) Logout() string {
	m.end(EndLogout)
	return MsgLoggedOut
}

// Expire ends the session after the backend rejected the token
func (m *Manager) Expire() {
	m.end(EndExpired)
}

func (m *Manager) end(reason EndReason) {
	m.mu.Lock()
	was := m.current
	m.current = types.Session{}
	if err := m.store.Delete(storage.KeyToken, storage.KeyUsername); err != nil {
		m.logger.Error("failed to clear persisted session", "error", err)
	}
	listeners := make([]func(EndReason), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	m.logger.Info("session ended", "reason", reason.String(), "username", was.Username)

	for _, fn := range listeners {
		fn(reason)
	}
}

// OnEnd registers fn to run every time the session ends, by logout or expiry
func (m *Manager) OnEnd(fn func(EndReason)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// State returns the current authentication state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current.Valid() {
		return Authenticated
	}
	return Anonymous
}

// Token returns the bearer token, empty when anonymous
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}

// Username returns the signed-in username, empty when anonymous
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Username
}

// Current returns a copy of the session
func (m *Manager) Current() types.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}
