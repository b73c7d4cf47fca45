// Package session issues and resolves server-side login sessions.
//
// A session id is an opaque 256-bit value carried in the campus_session
// cookie. Backends are keyed by the id's fingerprint, so a leaked session
// table or redis dump cannot be replayed as cookies.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

var ErrSessionNotFound = errors.New("session: not found")

// Backend persists sessions by key. Load returns ErrSessionNotFound for a
// key it does not hold; expiry is enforced by the Manager.
type Backend interface {
	Save(ctx context.Context, key string, s domain.Session) error
	Load(ctx context.Context, key string) (domain.Session, error)
	Delete(ctx context.Context, key string) error
}

type Manager struct {
	Backend Backend
	TTL     time.Duration
	Now     func() time.Time

	// CookieSecure sets the Secure attribute on issued cookies.
	CookieSecure bool
}

// NewManager returns a Manager with ttl, defaulting to domain.SessionTTL.
func NewManager(backend Backend, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = domain.SessionTTL
	}
	return &Manager{Backend: backend, TTL: ttl}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) ttl() time.Duration {
	if m.TTL <= 0 {
		return domain.SessionTTL
	}
	return m.TTL
}

// Create starts a session for p with a fixed lifetime. The returned
// Session.ID is the only copy of the raw id.
func (m *Manager) Create(ctx context.Context, p domain.Principal) (domain.Session, error) {
	id, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := m.now().UTC()
	s := domain.Session{
		ID:        id,
		Principal: p,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl()),
	}
	if err := m.Backend.Save(ctx, cryptox.FingerprintToken(id), s); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Get resolves id. Absent and expired sessions both yield ErrSessionNotFound;
// an expired one is also removed from the backend.
func (m *Manager) Get(ctx context.Context, id string) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, ErrSessionNotFound
	}

	key := cryptox.FingerprintToken(id)
	s, err := m.Backend.Load(ctx, key)
	if err != nil {
		return domain.Session{}, err
	}
	if s.Expired(m.now()) {
		if err := m.Backend.Delete(ctx, key); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete expired session", slog.Any("error", err))
		}
		return domain.Session{}, ErrSessionNotFound
	}

	s.ID = id
	return s, nil
}

// Destroy removes the session. Destroying an unknown id is not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.Backend.Delete(ctx, cryptox.FingerprintToken(id))
}
