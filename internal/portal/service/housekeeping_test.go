package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/aussiebroadwan/campus/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingCleanup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.seedUser(t, "ada@x.com", "pw", true, domain.RoleUser)

	sessions := f.sessions()
	_, err := sessions.Create(ctx, u.Principal())
	require.NoError(t, err)

	f.now = f.now.Add(domain.SessionTTL / 2)
	live, err := sessions.Create(ctx, u.Principal())
	require.NoError(t, err)

	f.now = f.now.Add(domain.SessionTTL/2 + time.Minute)

	hk := NewHousekeepingService(f.store, slogx.Discard(), 0)
	hk.Now = f.clock
	require.Equal(t, time.Hour, hk.Interval)
	require.EqualValues(t, 1, hk.Cleanup(ctx))

	_, err = sessions.Get(ctx, live.ID)
	require.NoError(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	f := newFixture(t)
	hk := NewHousekeepingService(f.store, slogx.Discard(), time.Millisecond)
	hk.Start()
	time.Sleep(5 * time.Millisecond)
	hk.Stop()
}
