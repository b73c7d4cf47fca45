package session

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/aussiebroadwan/campus/internal/portal/store"
)

// StoreBackend keeps sessions in the relational sessions table.
type StoreBackend struct {
	Store store.Store
}

func (b StoreBackend) Save(ctx context.Context, key string, s domain.Session) error {
	return b.Store.Sessions().CreateSession(ctx, store.SessionRecord{
		IDHash:    key,
		Principal: s.Principal,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	})
}

func (b StoreBackend) Load(ctx context.Context, key string) (domain.Session, error) {
	rec, err := b.Store.Sessions().GetSessionByHash(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	return domain.Session{
		Principal: rec.Principal,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func (b StoreBackend) Delete(ctx context.Context, key string) error {
	return b.Store.Sessions().DeleteSession(ctx, key)
}
