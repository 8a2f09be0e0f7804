package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/model"
)

// ErrNotLoggedIn is returned by operations that need a session.
var ErrNotLoggedIn = errors.New("not logged in")

// TokenExpiry decodes the exp claim of a JWT without verifying its signature.
// ok is false when the token carries no exp claim.
func TokenExpiry(token string) (exp time.Time, ok bool, err error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("decode token: %w", err)
	}
	date, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("decode exp claim: %w", err)
	}
	if date == nil {
		return time.Time{}, false, nil
	}
	return date.Time, true, nil
}

// Manager owns the current login. It replaces ambient browser storage with an
// explicit object that the console and the API client share.
type Manager struct {
	mu    sync.RWMutex
	store Store
	now   func() time.Time
	log   zerolog.Logger

	current *Record
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		now:   time.Now,
		log:   log.With().Str("component", "session").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore loads a persisted login. An expired or undecodable token is cleared
// locally without contacting the backend and reported as not logged in.
func (m *Manager) Restore(ctx context.Context) (model.User, bool, error) {
	rec, ok, err := m.store.Load(ctx)
	if err != nil {
		return model.User{}, false, err
	}
	if !ok {
		return model.User{}, false, nil
	}

	if m.expired(rec.Token) {
		m.log.Info().Int("user_id", rec.User.ID).Msg("Stored session expired, clearing")
		if err := m.store.Clear(ctx); err != nil {
			return model.User{}, false, err
		}
		return model.User{}, false, nil
	}

	m.mu.Lock()
	m.current = &rec
	m.mu.Unlock()
	return rec.User, true, nil
}

// Login records a fresh token and user and persists them.
func (m *Manager) Login(ctx context.Context, token string, user model.User) error {
	if token == "" {
		return errors.New("empty access token")
	}
	rec := Record{Token: token, User: user}
	if exp, ok, err := TokenExpiry(token); err == nil && ok {
		rec.ExpiresAt = exp
	}

	if err := m.store.Save(ctx, rec); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = &rec
	m.mu.Unlock()

	m.log.Info().Int("user_id", user.ID).Str("role", string(user.Role)).Msg("Logged in")
	return nil
}

// Logout discards the login locally and in the store.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return m.store.Clear(ctx)
}

// Current returns the signed-in user.
func (m *Manager) Current() (model.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return model.User{}, false
	}
	return m.current.User, true
}

// Token returns the bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// IsExpired reports whether the current token's exp claim has passed.
// It is false when nobody is logged in.
func (m *Manager) IsExpired() bool {
	token := m.Token()
	if token == "" {
		return false
	}
	return m.expired(token)
}

// expired treats undecodable tokens as expired; tokens without exp never expire.
func (m *Manager) expired(token string) bool {
	exp, ok, err := TokenExpiry(token)
	if err != nil {
		return true
	}
	if !ok {
		return false
	}
	return !m.now().Before(exp)
}
