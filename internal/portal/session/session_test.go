package session_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/aussiebroadwan/campus/internal/portal/session"
	"github.com/aussiebroadwan/campus/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/campus/pkg/idx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newSQLBackend(t *testing.T) (session.Backend, domain.Principal) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	u := domain.User{
		ID:           idx.New().String(),
		Name:         "Ada",
		Email:        "ada@x.com",
		PasswordHash: "h",
		Role:         domain.RoleUser,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return session.StoreBackend{Store: st}, u.Principal()
}

func newRedisBackend(t *testing.T) (session.Backend, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.RedisBackend{Client: client}, mr
}

func TestManagerLifecycle(t *testing.T) {
	sqlBackend, principal := newSQLBackend(t)
	redisBackend, _ := newRedisBackend(t)

	backends := map[string]session.Backend{
		"database": sqlBackend,
		"redis":    redisBackend,
	}

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Now().UTC()}
			m := session.NewManager(backend, 0)
			m.Now = c.Now

			s, err := m.Create(ctx, principal)
			require.NoError(t, err)
			require.NotEmpty(t, s.ID)
			require.Equal(t, domain.SessionTTL, s.ExpiresAt.Sub(s.CreatedAt))

			got, err := m.Get(ctx, s.ID)
			require.NoError(t, err)
			require.Equal(t, principal, got.Principal)
			require.Equal(t, s.ID, got.ID)

			_, err = m.Get(ctx, "not-a-session")
			require.ErrorIs(t, err, session.ErrSessionNotFound)

			// No sliding expiry: reads do not extend the lifetime.
			c.t = c.t.Add(domain.SessionTTL)
			_, err = m.Get(ctx, s.ID)
			require.ErrorIs(t, err, session.ErrSessionNotFound)
		})
	}
}

func TestManagerDestroy(t *testing.T) {
	ctx := context.Background()
	backend, principal := newSQLBackend(t)
	m := session.NewManager(backend, time.Hour)

	s, err := m.Create(ctx, principal)
	require.NoError(t, err)
	require.Equal(t, time.Hour, s.ExpiresAt.Sub(s.CreatedAt))

	require.NoError(t, m.Destroy(ctx, s.ID))
	_, err = m.Get(ctx, s.ID)
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	require.NoError(t, m.Destroy(ctx, s.ID))
	require.NoError(t, m.Destroy(ctx, ""))
}

func TestRedisBackendExpiresKeys(t *testing.T) {
	ctx := context.Background()
	backend, mr := newRedisBackend(t)
	m := session.NewManager(backend, time.Minute)

	s, err := m.Create(ctx, domain.Principal{UserID: "u1", Name: "Ada", Email: "ada@x.com", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 1)

	mr.FastForward(2 * time.Minute)
	require.Empty(t, mr.Keys())

	_, err = m.Get(ctx, s.ID)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestLoadPrincipalAndGuards(t *testing.T) {
	ctx := context.Background()
	backend, principal := newSQLBackend(t)
	m := session.NewManager(backend, 0)

	s, err := m.Create(ctx, principal)
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := session.PrincipalFromContext(r.Context())
		_, _ = w.Write([]byte(p.Email))
	})

	userOnly := m.LoadPrincipal(session.RequireUser(ok))
	adminOnly := m.LoadPrincipal(session.RequireUser(session.RequireAdmin(ok)))

	withCookie := func(id string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/home", nil)
		if id != "" {
			req.AddCookie(&http.Cookie{Name: session.CookieName, Value: id})
		}
		return req
	}

	t.Run("anonymous is sent to login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		userOnly.ServeHTTP(rec, withCookie(""))
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("unknown cookie is anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		userOnly.ServeHTTP(rec, withCookie("forged"))
		require.Equal(t, http.StatusFound, rec.Code)
	})

	t.Run("session principal reaches handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		userOnly.ServeHTTP(rec, withCookie(s.ID))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ada@x.com", rec.Body.String())
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		adminOnly.ServeHTTP(rec, withCookie(s.ID))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "Access denied. Admin only.")
	})
}

func TestCookieAttributes(t *testing.T) {
	m := session.NewManager(nil, 0)
	m.CookieSecure = true

	rec := httptest.NewRecorder()
	m.SetCookie(rec, domain.Session{ID: "abc"})
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	c := cookies[0]
	require.Equal(t, session.CookieName, c.Name)
	require.Equal(t, "abc", c.Value)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)
	require.Equal(t, http.SameSiteLaxMode, c.SameSite)
	require.Equal(t, int(domain.SessionTTL.Seconds()), c.MaxAge)

	rec = httptest.NewRecorder()
	m.ClearCookie(rec)
	require.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

// stuckBackend holds sessions in memory and refuses to delete them.
type stuckBackend struct {
	sessions map[string]domain.Session
}

func (b *stuckBackend) Save(_ context.Context, key string, s domain.Session) error {
	b.sessions[key] = s
	return nil
}

func (b *stuckBackend) Load(_ context.Context, key string) (domain.Session, error) {
	s, ok := b.sessions[key]
	if !ok {
		return domain.Session{}, session.ErrSessionNotFound
	}
	return s, nil
}

func (b *stuckBackend) Delete(context.Context, string) error {
	return errors.New("backend unavailable")
}

func TestManagerLogsFailedExpiryDelete(t *testing.T) {
	var buf bytes.Buffer
	ctx := slogx.WithContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	c := &clock{t: time.Now().UTC()}
	m := session.NewManager(&stuckBackend{sessions: map[string]domain.Session{}}, time.Minute)
	m.Now = c.Now

	s, err := m.Create(ctx, domain.Principal{UserID: "u1", Role: domain.RoleUser})
	require.NoError(t, err)

	c.t = c.t.Add(time.Minute + time.Second)
	_, err = m.Get(ctx, s.ID)
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	require.Contains(t, buf.String(), `"level":"WARN"`)
	require.Contains(t, buf.String(), "failed to delete expired session")
	require.Contains(t, buf.String(), "backend unavailable")
}
