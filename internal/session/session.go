package session

import (
	"context"
	"errors"
	"sync"

	"github.com/EO-DataHub/eodhp-activity-signup/internal/apiclient"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/authn"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/notify"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/store"
	"github.com/EO-DataHub/eodhp-activity-signup/internal/view"
	"github.com/EO-DataHub/eodhp-activity-signup/models"
	"github.com/rs/zerolog/log"
)

const (
	MsgLoginSuccess  = "Login successful!"
	MsgLoginFailed   = "Login failed"
	MsgLoginNetwork  = "Login failed. Please try again."
	MsgLogoutSuccess = "Logged out successfully"
)

type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged-in"
	}
	return "logged-out"
}

// AuthClient is the part of the API the session needs.
type AuthClient interface {
	GetCurrentUser(ctx context.Context, token string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
}

// Manager owns the auth token and the current user. The token is persisted
// in the store so it survives restarts.
type Manager struct {
	mu       sync.RWMutex
	api      AuthClient
	store    store.Store
	view     *view.View
	messages *notify.Notifier

	token string
	user  *models.User
	// epoch increases on every transition; a restore that started in an
	// older epoch is not applied.
	epoch uint64
}

// NewManager creates a Manager in the LoggedOut state.
func NewManager(api AuthClient, st store.Store, v *view.View, messages *notify.Notifier) *Manager {
	return &Manager{
		api:      api,
		store:    st,
		view:     v,
		messages: messages,
	}
}

// State returns LoggedIn when a validated user is present.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user != nil {
		return LoggedIn
	}
	return LoggedOut
}

// Token returns the current bearer token, empty when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the logged in user.
func (m *Manager) User() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return models.User{}, false
	}
	return *m.user, true
}

// Claims decodes the current token without verifying it.
func (m *Manager) Claims() (authn.Claims, error) {
	return authn.ParseClaims(m.Token())
}

// RestoreSession validates a persisted token against the server. Any
// failure clears the persisted token and leaves the session logged out
// without showing a message.
func (m *Manager) RestoreSession(ctx context.Context) State {
	token, err := m.store.Get(store.TokenKey)
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Msg("failed to read persisted token")
		}
		m.mu.Lock()
		if m.token == "" {
			m.setLoggedOutLocked()
		}
		m.mu.Unlock()
		return m.State()
	}

	m.mu.Lock()
	m.token = token
	m.epoch++
	epoch := m.epoch
	m.mu.Unlock()

	if claims, err := authn.ParseClaims(token); err == nil {
		log.Debug().Str("subject", claims.Subject).Time("expires", claims.Expiry()).
			Msg("validating persisted token")
	}

	user, err := m.api.GetCurrentUser(ctx, token)

	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch {
		log.Debug().Msg("session changed while restoring, discarding result")
		return m.stateLocked()
	}

	if err != nil {
		log.Warn().Err(err).Msg("persisted token rejected, clearing session")
		m.removeTokenLocked()
		m.setLoggedOutLocked()
		return LoggedOut
	}

	m.setLoggedInLocked(token, user)
	log.Info().Str("username", user.Username).Msg("session restored")
	return LoggedIn
}

// Login submits credentials. On success the token is persisted and the
// session moves to LoggedIn. The returned error is already reported to the
// user through the message notifier.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.view.FillLoginForm(username)

	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		if apiclient.IsRejected(err) {
			detail := apiclient.Detail(err)
			if detail == "" {
				detail = MsgLoginFailed
			}
			m.messages.Error(detail)
		} else {
			m.messages.Error(MsgLoginNetwork)
		}
		log.Error().Err(err).Str("username", username).Msg("login failed")
		return err
	}

	m.mu.Lock()
	if err := m.store.Set(store.TokenKey, resp.AccessToken); err != nil {
		log.Error().Err(err).Msg("failed to persist token")
	}
	user := resp.User
	m.setLoggedInLocked(resp.AccessToken, &user)
	m.mu.Unlock()

	m.messages.Success(MsgLoginSuccess)
	m.view.ResetLoginForm()
	m.view.CloseAuthMenu()

	log.Info().Str("username", user.Username).Msg("logged in")
	return nil
}

// Logout clears the persisted token unconditionally. No request is made.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.removeTokenLocked()
	m.setLoggedOutLocked()
	m.mu.Unlock()

	m.messages.Success(MsgLogoutSuccess)
	log.Info().Msg("logged out")
}

func (m *Manager) stateLocked() State {
	if m.user != nil {
		return LoggedIn
	}
	return LoggedOut
}

func (m *Manager) removeTokenLocked() {
	if err := m.store.Remove(store.TokenKey); err != nil {
		log.Error().Err(err).Msg("failed to clear persisted token")
	}
}

func (m *Manager) setLoggedInLocked(token string, user *models.User) {
	m.token = token
	m.user = user
	m.epoch++
	m.view.ShowLoggedIn(user.Username)
}

func (m *Manager) setLoggedOutLocked() {
	m.token = ""
	m.user = nil
	m.epoch++
	m.view.ShowLoggedOut()
}
