package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/store"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

type VerificationService struct {
	Store store.Store
	Now   func() time.Time
}

// VerifyEmail consumes a verification token and marks its owner verified.
// Expiry is reported ahead of prior use, so an old consumed link reads as
// expired.
func (s *VerificationService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidLink
	}

	tok, err := s.Store.VerificationTokens().GetVerificationTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidLink
		}
		return fmt.Errorf("lookup verification token: %w", err)
	}

	if tok.Expired(clock(s.Now)) {
		return ErrTokenExpired
	}
	if tok.Used {
		return ErrTokenAlreadyUsed
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.VerificationTokens().MarkVerificationTokenUsed(ctx, tok.ID); err != nil {
			return err
		}
		return tx.Users().MarkVerified(ctx, tok.UserID)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrTokenAlreadyUsed
		}
		return fmt.Errorf("consume verification token: %w", err)
	}

	slogx.FromContext(ctx).Info("email verified", slog.String("user_id", tok.UserID))
	return nil
}
