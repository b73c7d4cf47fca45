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

// RecoveryService handles forgotten passwords.
type RecoveryService struct {
	Store    store.Store
	Notifier mail.Notifier
	Hasher   *cryptox.PasswordHasher
	Now      func() time.Time

	MinPasswordEntropy float64
}

// RequestReset mails a reset link when email belongs to an account. Unknown
// addresses and delivery failures both return nil so callers cannot tell
// which accounts exist.
func (s *RecoveryService) RequestReset(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	if email == "" {
		return ErrMissingFields
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("password reset for unknown email")
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	raw, hash, err := newLinkToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	now := clock(s.Now)
	err = s.Store.ResetTokens().CreateResetToken(ctx, domain.PasswordResetToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(domain.PasswordResetTTL),
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	if err := s.Notifier.SendPasswordReset(ctx, user.Email, raw, user.Name); err != nil {
		log.Error("password reset email failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil
	}
	log.Info("password reset requested", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword consumes a reset token and replaces its owner's password.
// Validation errors leave the token untouched.
func (s *RecoveryService) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	if token == "" {
		return ErrMissingToken
	}
	if password == "" || confirmPassword == "" {
		return ErrMissingFields
	}
	if password != confirmPassword {
		return ErrPasswordMismatch
	}
	if err := checkStrength(password, s.MinPasswordEntropy); err != nil {
		return err
	}

	tok, err := s.Store.ResetTokens().GetResetTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if tok.Used || tok.Expired(clock(s.Now)) {
		return ErrResetTokenExpiredOrUsed
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.ResetTokens().MarkResetTokenUsed(ctx, tok.ID); err != nil {
			return err
		}
		return tx.Users().UpdatePasswordHash(ctx, tok.UserID, hash)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrResetTokenExpiredOrUsed
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	slogx.FromContext(ctx).Info("password reset", slog.String("user_id", tok.UserID))
	return nil
}
