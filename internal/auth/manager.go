// Package auth owns the client-side authentication state: the current
// session (user + token pair), its persistence across runs, and the
// transitions between guest and authenticated that drive cart syncing.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/aethershop/aether/internal/api"
	"github.com/aethershop/aether/pkg/storefront"
)

// Manager tracks the session for one profile. It is safe for concurrent use.
//
// State changes (login, logout, restore) are pushed to registered listeners
// so dependents like the cart sync orchestrator can react to transitions
// instead of polling.
type Manager struct {
	api   *api.Client
	store *storefront.Client
	log   *logrus.Entry

	mu        sync.RWMutex
	session   *storefront.Session
	listeners []func(authenticated bool)
}

// NewManager creates a session manager over the API client and local store.
func NewManager(apiClient *api.Client, store *storefront.Client, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		api:   apiClient,
		store: store,
		log:   log.WithField("component", "auth"),
	}
}

// OnChange registers a listener invoked after every auth-state change with
// the new authenticated flag. Listeners are called synchronously, in
// registration order.
func (m *Manager) OnChange(fn func(authenticated bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Session returns a copy of the current session, or nil when logged out.
func (m *Manager) Session() *storefront.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	clone := *m.session
	return &clone
}

// Authenticated reports whether a session with an access token is active.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Authenticated()
}

// Restore loads a previously persisted session, if any, and installs its
// token on the API client. A missing session is not an error - the profile
// simply stays a guest.
func (m *Manager) Restore(ctx context.Context) error {
	session, err := m.store.LoadSession(ctx)
	if storefront.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	m.install(session)
	m.log.WithField("email", session.Email).Debug("session restored")
	return nil
}

// Login authenticates with the API, persists the session, and notifies
// listeners of the guest -> authenticated transition.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	resp, err := m.api.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return m.adopt(ctx, resp)
}

// Register creates an account and adopts the returned session.
func (m *Manager) Register(ctx context.Context, email, password, name string) error {
	resp, err := m.api.Register(ctx, api.RegisterRequest{Email: email, Password: password, Name: name})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return m.adopt(ctx, resp)
}

// Refresh exchanges the stored refresh token for a new token pair.
func (m *Manager) Refresh(ctx context.Context) error {
	session := m.Session()
	if session == nil || session.RefreshToken == "" {
		return fmt.Errorf("no refresh token available")
	}

	resp, err := m.api.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	return m.adopt(ctx, resp)
}

// Logout ends the session. It is fail-open: the local session is cleared and
// listeners are notified even when the server-side logout call fails, so a
// broken network can never leave the client stuck authenticated.
func (m *Manager) Logout(ctx context.Context) error {
	session := m.Session()
	if session == nil {
		return nil
	}

	if session.RefreshToken != "" {
		if err := m.api.Logout(ctx, session.RefreshToken); err != nil {
			m.log.WithError(err).Warn("server logout failed, clearing local session anyway")
		}
	}

	if err := m.store.ClearSession(ctx); err != nil {
		m.log.WithError(err).Warn("failed to clear persisted session")
	}

	m.api.SetToken("")
	m.mu.Lock()
	m.session = nil
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(false)
	}
	return nil
}

// adopt persists and installs a fresh session from an auth response.
func (m *Manager) adopt(ctx context.Context, resp *api.AuthResponse) error {
	session := &storefront.Session{
		UserID:       resp.User.ID,
		Email:        resp.User.Email,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}

	if err := m.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	m.install(session)
	return nil
}

// install sets the session, wires the API token, and notifies listeners.
func (m *Manager) install(session *storefront.Session) {
	m.api.SetToken(session.AccessToken)

	m.mu.Lock()
	m.session = session
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(session.Authenticated())
	}
}
