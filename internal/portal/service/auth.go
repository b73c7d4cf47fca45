package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/aussiebroadwan/campus/internal/portal/session"
	"github.com/aussiebroadwan/campus/internal/portal/store"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/idx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

const (
	adminName          = "Administrator"
	adminFallbackEmail = "admin@system.local"
)

// Emails accepted on the admin-role path in place of the configured one.
var adminAliases = []string{"admin", "admin@123", "admin@123.com", "admin@gmail.com"}

// AdminCredentials is the operator-configured admin login. Both values are
// normalised on use: email trimmed and lower-cased, password trimmed.
type AdminCredentials struct {
	Email    string
	Password string
}

func (c AdminCredentials) email() string    { return strings.ToLower(strings.TrimSpace(c.Email)) }
func (c AdminCredentials) password() string { return strings.TrimSpace(c.Password) }

// AuthService authenticates logins and opens sessions.
type AuthService struct {
	Store    store.Store
	Sessions *session.Manager
	Admin    AdminCredentials
	Hasher   *cryptox.PasswordHasher
	Now      func() time.Time
}

// Login authenticates email/password and returns a new session.
//
// The configured admin pair always wins, whatever role was selected. With
// role "admin" the configured password is checked against the configured
// email or one of the admin aliases. Every other login is an ordinary
// lookup that requires a verified account and a matching password.
//
// Errors: ErrMissingFields, ErrInvalidAdminCredentials, ErrUserNotFound,
// ErrNotVerified, ErrInvalidPassword, or a wrapped store error.
func (s *AuthService) Login(ctx context.Context, email, password, role string) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	if email == "" || password == "" {
		return domain.Session{}, ErrMissingFields
	}

	inputEmail := strings.ToLower(strings.TrimSpace(email))
	inputPassword := strings.TrimSpace(password)
	adminEmail, adminPassword := s.Admin.email(), s.Admin.password()

	if adminEmail != "" && adminPassword != "" &&
		inputEmail == adminEmail && secureEqual(inputPassword, adminPassword) {
		log.Info("admin override login", slog.String("email", adminEmail))
		return s.adminSession(ctx, adminEmail, adminPassword)
	}

	if domain.Role(role) == domain.RoleAdmin {
		emailMatches := adminEmail == "" || inputEmail == adminEmail || slices.Contains(adminAliases, inputEmail)
		if adminPassword == "" || !secureEqual(inputPassword, adminPassword) || !emailMatches {
			log.Warn("admin login rejected", slog.String("email", inputEmail))
			return domain.Session{}, ErrInvalidAdminCredentials
		}

		effective := adminEmail
		if effective == "" {
			effective = inputEmail
		}
		if effective == "" {
			effective = adminFallbackEmail
		}
		return s.adminSession(ctx, effective, adminPassword)
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrUserNotFound
		}
		return domain.Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.Verified {
		return domain.Session{}, ErrNotVerified
	}
	if err := s.Hasher.Verify(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Error("stored password hash unusable", slog.String("user_id", user.ID), slog.Any("error", err))
		}
		return domain.Session{}, ErrInvalidPassword
	}

	if err := s.Store.Users().TouchLastLogin(ctx, user.ID, clock(s.Now)); err != nil {
		return domain.Session{}, fmt.Errorf("stamp last login: %w", err)
	}

	sess, err := s.Sessions.Create(ctx, user.Principal())
	if err != nil {
		return domain.Session{}, err
	}
	log.Info("user logged in", slog.String("user_id", user.ID))
	return sess, nil
}

func (s *AuthService) adminSession(ctx context.Context, email, password string) (domain.Session, error) {
	admin, err := s.EnsureAdmin(ctx, email, password)
	if err != nil {
		return domain.Session{}, err
	}
	return s.Sessions.Create(ctx, admin.Principal())
}

// EnsureAdmin makes sure a verified admin account exists for email and that
// password logs into it. The account is created if missing; otherwise its
// role and verified flag are forced and the hash is rewritten only when it
// no longer matches password. It is safe to call on every admin login.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (domain.User, error) {
	var admin domain.User

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByEmail(ctx, email)
		switch {
		case errors.Is(err, store.ErrNotFound):
			hash, err := s.Hasher.Hash(password)
			if err != nil {
				return err
			}
			now := clock(s.Now)
			admin = domain.User{
				ID:           idx.New().String(),
				Name:         adminName,
				Email:        email,
				PasswordHash: hash,
				Verified:     true,
				Role:         domain.RoleAdmin,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			return tx.Users().CreateUser(ctx, admin)

		case err != nil:
			return err
		}

		if u.Role != domain.RoleAdmin || !u.Verified {
			if err := tx.Users().PromoteToAdmin(ctx, u.ID); err != nil {
				return err
			}
			u.Role, u.Verified = domain.RoleAdmin, true
		}

		if s.Hasher.Verify(password, u.PasswordHash) != nil {
			hash, err := s.Hasher.Hash(password)
			if err != nil {
				return err
			}
			if err := tx.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
				return err
			}
			u.PasswordHash = hash
		}

		admin = u
		return nil
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("ensure admin: %w", err)
	}
	return admin, nil
}

// BootstrapAdmin runs EnsureAdmin for the configured credentials. It does
// nothing when either value is empty.
func (s *AuthService) BootstrapAdmin(ctx context.Context) error {
	email, password := s.Admin.email(), s.Admin.password()
	if email == "" || password == "" {
		return nil
	}

	admin, err := s.EnsureAdmin(ctx, email, password)
	if err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("admin account ensured", slog.String("user_id", admin.ID))
	return nil
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
