package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "campus:session:"

// RedisBackend stores each session as a JSON value that redis expires on
// its own, so no housekeeping is needed for it.
type RedisBackend struct {
	Client redis.UniversalClient
}

type redisSession struct {
	Principal domain.Principal `json:"principal"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

func (b RedisBackend) key(k string) string { return redisKeyPrefix + k }

func (b RedisBackend) Save(ctx context.Context, key string, s domain.Session) error {
	ttl := s.ExpiresAt.Sub(s.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired at creation")
	}

	encoded, err := json.Marshal(redisSession{
		Principal: s.Principal,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	})
	if err != nil {
		return err
	}
	return b.Client.Set(ctx, b.key(key), encoded, ttl).Err()
}

func (b RedisBackend) Load(ctx context.Context, key string) (domain.Session, error) {
	raw, err := b.Client.Get(ctx, b.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}

	var rs redisSession
	if err := json.Unmarshal(raw, &rs); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return domain.Session{
		Principal: rs.Principal,
		CreatedAt: rs.CreatedAt,
		ExpiresAt: rs.ExpiresAt,
	}, nil
}

func (b RedisBackend) Delete(ctx context.Context, key string) error {
	return b.Client.Del(ctx, b.key(key)).Err()
}
