package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"journal/internal/api"
	"journal/internal/core"
	"journal/internal/log"
)

// Policy selects how Validate decides whether the stored token is usable.
type Policy string

const (
	// PolicyPresence accepts any stored token that is not an expired JWT.
	// No request is made; the server still authorizes every call.
	PolicyPresence Policy = "presence"
	// PolicyProbe calls an authenticated endpoint and drops the session when
	// the server rejects it.
	PolicyProbe Policy = "probe"
)

// ErrNoToken is returned by Login when a successful response carries no token.
var ErrNoToken = errors.New("login response did not include a token")

// Remote is the part of the API client the session needs.
type Remote interface {
	Login(ctx context.Context, username, password string) (api.LoginResponse, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
}

// Manager owns the session token. It implements api.TokenSource.
type Manager struct {
	mu     sync.RWMutex
	token  string
	store  Store
	remote Remote
	policy Policy
	now    func() time.Time
	logger *log.Logger
}

// NewManager loads any stored token into memory.
func NewManager(ctx context.Context, store Store, remote Remote, policy Policy, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if policy == "" {
		policy = PolicyPresence
	}
	token, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session token: %w", err)
	}
	return &Manager{
		token:  token,
		store:  store,
		remote: remote,
		policy: policy,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentSession),
	}, nil
}

// Token returns the in-memory token or "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// HasToken reports whether a token is held.
func (m *Manager) HasToken() bool {
	return m.Token() != ""
}

func (m *Manager) Policy() Policy {
	return m.policy
}

// Login posts the credentials and stores the returned token in memory and in
// the durable store. A failed durable write is logged and does not fail the
// login. The raw response is returned to the caller.
func (m *Manager) Login(ctx context.Context, username, password string) (api.LoginResponse, error) {
	resp, err := m.remote.Login(ctx, username, password)
	if err != nil {
		m.logger.WarnContext(ctx, "Login failed",
			log.FieldOperation, log.OpLogin,
			log.FieldErrorKind, string(api.KindOf(err)),
			log.FieldError, err)
		return resp, err
	}
	if resp.Token == "" {
		return resp, ErrNoToken
	}

	m.mu.Lock()
	m.token = resp.Token
	m.mu.Unlock()

	if err := m.store.Save(ctx, resp.Token); err != nil {
		// the session stays open in memory; only a restart loses it
		m.logger.WarnContext(ctx, "Failed to persist session token", log.FieldOperation, log.OpLogin, log.FieldError, err)
	}
	m.logger.InfoContext(ctx, "Logged in", log.FieldOperation, log.OpLogin)
	return resp, nil
}

// Logout clears the token from memory and from the durable store.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	m.logger.InfoContext(ctx, "Logged out", log.FieldOperation, log.OpLogout)
	return nil
}

// Validate reports whether the session may enter the main view, according to
// the configured policy. Invalid sessions are cleared.
func (m *Manager) Validate(ctx context.Context) (bool, error) {
	token := m.Token()
	if token == "" {
		return false, nil
	}

	switch m.policy {
	case PolicyProbe:
		_, err := m.remote.ListCategories(ctx)
		if err == nil {
			return true, nil
		}
		if api.IsUnauthorized(err) {
			m.logger.InfoContext(ctx, "Session rejected by server", log.FieldOperation, log.OpValidate)
			return false, m.Logout(ctx)
		}
		// server trouble is not a reason to drop the session
		m.logger.WarnContext(ctx, "Session probe failed", log.FieldOperation, log.OpValidate, log.FieldError, err)
		return true, nil
	default:
		if expired(token, m.now()) {
			m.logger.InfoContext(ctx, "Stored token expired", log.FieldOperation, log.OpValidate)
			return false, m.Logout(ctx)
		}
		return true, nil
	}
}

// expired reports whether token is a JWT whose exp claim is before now.
// Opaque tokens never expire here.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now)
}
