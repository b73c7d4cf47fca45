package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/aussiebroadwan/campus/internal/portal/session"
	"github.com/aussiebroadwan/campus/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/idx"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	To, Token, Name string
}

// fakeNotifier records every delivery and optionally fails them.
type fakeNotifier struct {
	mu            sync.Mutex
	err           error
	verifications []sentMail
	resets        []sentMail
}

func (n *fakeNotifier) SendVerification(_ context.Context, to, token, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verifications = append(n.verifications, sentMail{to, token, name})
	return n.err
}

func (n *fakeNotifier) SendPasswordReset(_ context.Context, to, token, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, sentMail{to, token, name})
	return n.err
}

type fixture struct {
	store    *sqlite.Store
	notifier *fakeNotifier
	hasher   *cryptox.PasswordHasher
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	return &fixture{
		store:    st,
		notifier: &fakeNotifier{},
		hasher:   &cryptox.PasswordHasher{Pepper: "test-pepper"},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) sessions() *session.Manager {
	m := session.NewManager(session.StoreBackend{Store: f.store}, 0)
	m.Now = f.clock
	return m
}

func (f *fixture) auth(admin AdminCredentials) *AuthService {
	return &AuthService{
		Store:    f.store,
		Sessions: f.sessions(),
		Admin:    admin,
		Hasher:   f.hasher,
		Now:      f.clock,
	}
}

func (f *fixture) registration() *RegistrationService {
	return &RegistrationService{Store: f.store, Notifier: f.notifier, Hasher: f.hasher, Now: f.clock}
}

func (f *fixture) verification() *VerificationService {
	return &VerificationService{Store: f.store, Now: f.clock}
}

func (f *fixture) recovery() *RecoveryService {
	return &RecoveryService{Store: f.store, Notifier: f.notifier, Hasher: f.hasher, Now: f.clock}
}

// seedUser inserts a user directly with a hashed password.
func (f *fixture) seedUser(t *testing.T, email, password string, verified bool, role domain.Role) domain.User {
	t.Helper()

	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Name:         "Ada",
		Email:        email,
		PasswordHash: hash,
		Verified:     verified,
		Role:         role,
	}
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))
	return u
}

func (f *fixture) user(t *testing.T, email string) domain.User {
	t.Helper()
	u, err := f.store.Users().GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}
