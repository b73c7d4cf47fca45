package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/aussiebroadwan/campus/internal/portal/store"
	"github.com/aussiebroadwan/campus/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/campus/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st store.Store, email string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Name:         "Ada",
		Email:        email,
		PasswordHash: "hash",
		Role:         domain.RoleUser,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	u := seedUser(t, st, "ada@x.com")

	t.Run("lookup by exact email", func(t *testing.T) {
		got, err := st.Users().GetUserByEmail(ctx, "ada@x.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, domain.RoleUser, got.Role)
		require.False(t, got.Verified)
		require.Nil(t, got.LastLoginAt)

		_, err = st.Users().GetUserByEmail(ctx, "ADA@x.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := st.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Name: "Other", Email: "ada@x.com", PasswordHash: "h",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("mutations", func(t *testing.T) {
		require.NoError(t, st.Users().MarkVerified(ctx, u.ID))
		require.NoError(t, st.Users().UpdatePasswordHash(ctx, u.ID, "new-hash"))
		at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
		require.NoError(t, st.Users().TouchLastLogin(ctx, u.ID, at))

		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.Verified)
		require.Equal(t, "new-hash", got.PasswordHash)
		require.NotNil(t, got.LastLoginAt)
		require.True(t, at.Equal(*got.LastLoginAt))

		require.NoError(t, st.Users().PromoteToAdmin(ctx, u.ID))
		got, err = st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, got.Role)
	})

	t.Run("unknown id", func(t *testing.T) {
		require.ErrorIs(t, st.Users().MarkVerified(ctx, "missing"), store.ErrNotFound)
	})
}

func TestVerificationTokenSingleUse(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	u := seedUser(t, st, "ada@x.com")

	now := time.Now().UTC().Truncate(time.Second)
	tok := domain.EmailVerificationToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: "fingerprint",
		ExpiresAt: now.Add(domain.EmailVerificationTTL),
		CreatedAt: now,
	}
	require.NoError(t, st.VerificationTokens().CreateVerificationToken(ctx, tok))

	got, err := st.VerificationTokens().GetVerificationTokenByHash(ctx, "fingerprint")
	require.NoError(t, err)
	require.Equal(t, tok.ID, got.ID)
	require.False(t, got.Used)
	require.True(t, tok.ExpiresAt.Equal(got.ExpiresAt))

	// First mark wins, the second observes the conflict.
	require.NoError(t, st.VerificationTokens().MarkVerificationTokenUsed(ctx, tok.ID))
	require.ErrorIs(t, st.VerificationTokens().MarkVerificationTokenUsed(ctx, tok.ID), store.ErrConflict)

	got, err = st.VerificationTokens().GetVerificationTokenByHash(ctx, "fingerprint")
	require.NoError(t, err)
	require.True(t, got.Used)

	_, err = st.VerificationTokens().GetVerificationTokenByHash(ctx, "unknown")
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err := st.VerificationTokens().ListVerificationTokensByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestResetTokenSingleUse(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	u := seedUser(t, st, "ada@x.com")

	now := time.Now().UTC()
	for i := range 2 {
		require.NoError(t, st.ResetTokens().CreateResetToken(ctx, domain.PasswordResetToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: []string{"a", "b"}[i],
			ExpiresAt: now.Add(domain.PasswordResetTTL),
			CreatedAt: now,
		}))
	}

	list, err := st.ResetTokens().ListResetTokensByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	tok, err := st.ResetTokens().GetResetTokenByHash(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, st.ResetTokens().MarkResetTokenUsed(ctx, tok.ID))
	require.ErrorIs(t, st.ResetTokens().MarkResetTokenUsed(ctx, tok.ID), store.ErrConflict)

	other, err := st.ResetTokens().GetResetTokenByHash(ctx, "a")
	require.NoError(t, err)
	require.False(t, other.Used)
}

func TestTokenRequiresOwningUser(t *testing.T) {
	st := newStore(t)
	err := st.VerificationTokens().CreateVerificationToken(context.Background(), domain.EmailVerificationToken{
		ID:        idx.New().String(),
		UserID:    "nobody",
		TokenHash: "orphan",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	})
	require.Error(t, err)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	err := st.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Name: "Ghost", Email: "ghost@x.com", PasswordHash: "h",
		}))
		return store.ErrConflict
	})
	require.ErrorIs(t, err, store.ErrConflict)

	_, err = st.Users().GetUserByEmail(ctx, "ghost@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNestedWithTxJoinsOuter(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	err := st.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Tx(ctx)
		require.ErrorIs(t, err, sql.ErrTxDone)

		require.NoError(t, tx.WithTx(ctx, func(inner store.Tx) error {
			return inner.Users().CreateUser(ctx, domain.User{
				ID: idx.New().String(), Name: "Inner", Email: "inner@x.com", PasswordHash: "h",
			})
		}))
		return store.ErrConflict
	})
	require.ErrorIs(t, err, store.ErrConflict)

	_, err = st.Users().GetUserByEmail(ctx, "inner@x.com")
	require.ErrorIs(t, err, store.ErrNotFound, "inner writes roll back with the outer transaction")
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	u := seedUser(t, st, "ada@x.com")

	now := time.Now().UTC()
	live := store.SessionRecord{
		IDHash:    "live",
		Principal: u.Principal(),
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionTTL),
	}
	stale := store.SessionRecord{
		IDHash:    "stale",
		Principal: u.Principal(),
		CreatedAt: now.Add(-48 * time.Hour),
		ExpiresAt: now.Add(-24 * time.Hour),
	}
	require.NoError(t, st.Sessions().CreateSession(ctx, live))
	require.NoError(t, st.Sessions().CreateSession(ctx, stale))

	got, err := st.Sessions().GetSessionByHash(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, u.Principal(), got.Principal)

	n, err := st.Sessions().DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = st.Sessions().GetSessionByHash(ctx, "stale")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.Sessions().DeleteSession(ctx, "live"))
	_, err = st.Sessions().GetSessionByHash(ctx, "live")
	require.ErrorIs(t, err, store.ErrNotFound)
}
