package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/stretchr/testify/require"
)

func TestRequestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email is silent", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.recovery().RequestReset(ctx, "ghost@x.com"))
		require.Empty(t, f.notifier.resets)
	})

	t.Run("empty email", func(t *testing.T) {
		f := newFixture(t)
		require.ErrorIs(t, f.recovery().RequestReset(ctx, ""), ErrMissingFields)
	})

	t.Run("known email gets a one hour token", func(t *testing.T) {
		f := newFixture(t)
		u := f.seedUser(t, "ada@x.com", "old", true, domain.RoleUser)

		require.NoError(t, f.recovery().RequestReset(ctx, "ada@x.com"))
		require.Len(t, f.notifier.resets, 1)
		require.Equal(t, sentMail{To: "ada@x.com", Token: f.notifier.resets[0].Token, Name: "Ada"}, f.notifier.resets[0])
		require.Regexp(t, hexToken, f.notifier.resets[0].Token)

		tokens, err := f.store.ResetTokens().ListResetTokensByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		require.True(t, tokens[0].ExpiresAt.Equal(f.now.Add(time.Hour)))
	})

	t.Run("delivery failure is hidden", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "ada@x.com", "old", true, domain.RoleUser)
		f.notifier.err = errors.New("smtp down")

		require.NoError(t, f.recovery().RequestReset(ctx, "ada@x.com"))
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	issue := func(t *testing.T, f *fixture) string {
		t.Helper()
		require.NoError(t, f.recovery().RequestReset(ctx, "ada@x.com"))
		return f.notifier.resets[len(f.notifier.resets)-1].Token
	}

	t.Run("works exactly once", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "ada@x.com", "old", true, domain.RoleUser)
		token := issue(t, f)

		require.NoError(t, f.recovery().ResetPassword(ctx, token, "new", "new"))
		require.NoError(t, f.hasher.Verify("new", f.user(t, "ada@x.com").PasswordHash))

		require.ErrorIs(t, f.recovery().ResetPassword(ctx, token, "newer", "newer"), ErrResetTokenExpiredOrUsed)
		require.NoError(t, f.hasher.Verify("new", f.user(t, "ada@x.com").PasswordHash))
	})

	t.Run("validation mutates nothing", func(t *testing.T) {
		f := newFixture(t)
		u := f.seedUser(t, "ada@x.com", "old", true, domain.RoleUser)
		token := issue(t, f)
		svc := f.recovery()

		require.ErrorIs(t, svc.ResetPassword(ctx, "", "a", "a"), ErrMissingToken)
		require.ErrorIs(t, svc.ResetPassword(ctx, token, "", "a"), ErrMissingFields)
		require.ErrorIs(t, svc.ResetPassword(ctx, token, "a", "b"), ErrPasswordMismatch)

		require.Equal(t, u.PasswordHash, f.user(t, "ada@x.com").PasswordHash)
		tokens, err := f.store.ResetTokens().ListResetTokensByUser(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, tokens[0].Used)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newFixture(t)
		require.ErrorIs(t, f.recovery().ResetPassword(ctx, "nope", "a", "a"), ErrInvalidResetToken)
	})

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "ada@x.com", "old", true, domain.RoleUser)
		token := issue(t, f)

		f.now = f.now.Add(domain.PasswordResetTTL + time.Second)
		require.ErrorIs(t, f.recovery().ResetPassword(ctx, token, "new", "new"), ErrResetTokenExpiredOrUsed)
	})

	t.Run("weak password", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "ada@x.com", "old", true, domain.RoleUser)
		token := issue(t, f)
		svc := f.recovery()
		svc.MinPasswordEntropy = 60

		require.ErrorIs(t, svc.ResetPassword(ctx, token, "abc", "abc"), ErrWeakPassword)
	})
}

func TestResetPasswordConcurrentUseHasOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, "ada@x.com", "old", true, domain.RoleUser)
	require.NoError(t, f.recovery().RequestReset(ctx, "ada@x.com"))
	token := f.notifier.resets[0].Token

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pw := fmt.Sprintf("new-%d", i)
			errs[i] = f.recovery().ResetPassword(ctx, token, pw, pw)
		}()
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "more than one reset succeeded")
			winner = i
			continue
		}
		require.ErrorIs(t, err, ErrResetTokenExpiredOrUsed)
	}
	require.NotEqual(t, -1, winner, "no reset succeeded")

	require.NoError(t, f.hasher.Verify(fmt.Sprintf("new-%d", winner), f.user(t, "ada@x.com").PasswordHash))
}
