package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/aussiebroadwan/campus/internal/portal/mail"
	"github.com/aussiebroadwan/campus/internal/portal/store"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/idx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

// RegistrationService creates unverified accounts and mails their
// verification link.
type RegistrationService struct {
	Store    store.Store
	Notifier mail.Notifier
	Hasher   *cryptox.PasswordHasher
	Now      func() time.Time

	// MinPasswordEntropy enables the strength check when positive.
	MinPasswordEntropy float64
}

// Register creates the account and its verification token together, then
// hands the raw token to the notifier. When delivery fails the account is
// kept and ErrEmailDeliveryFailed is returned.
func (s *RegistrationService) Register(ctx context.Context, name, email, password, confirmPassword string) error {
	log := slogx.FromContext(ctx)

	if name == "" || email == "" || password == "" || confirmPassword == "" {
		return ErrMissingFields
	}
	if password != confirmPassword {
		return ErrPasswordMismatch
	}
	if err := checkStrength(password, s.MinPasswordEntropy); err != nil {
		return err
	}

	_, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	raw, tokenHash, err := newLinkToken()
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}

	now := clock(s.Now)
	user := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	token := domain.EmailVerificationToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(domain.EmailVerificationTTL),
		CreatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.VerificationTokens().CreateVerificationToken(ctx, token)
	})
	if err != nil {
		// Lost a race with a concurrent signup for the same address.
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	log.Info("user registered", slog.String("user_id", user.ID))

	if err := s.Notifier.SendVerification(ctx, email, raw, name); err != nil {
		log.Error("verification email failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return ErrEmailDeliveryFailed
	}
	return nil
}
