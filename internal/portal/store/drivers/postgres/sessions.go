package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
	"github.com/aussiebroadwan/campus/internal/portal/store"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s store.SessionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id_hash, user_id, name, email, role, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.IDHash, s.Principal.UserID, s.Principal.Name, s.Principal.Email, string(s.Principal.Role),
		s.CreatedAt.UTC(), s.ExpiresAt.UTC(),
	)
	return mapWriteErr(err)
}

func (r *sessionsRepo) GetSessionByHash(ctx context.Context, idHash string) (store.SessionRecord, error) {
	var (
		s    store.SessionRecord
		role string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id_hash, user_id, name, email, role, created_at, expires_at FROM sessions WHERE id_hash = $1`,
		idHash,
	).Scan(&s.IDHash, &s.Principal.UserID, &s.Principal.Name, &s.Principal.Email, &role, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return store.SessionRecord{}, mapNotFound(err)
	}
	s.Principal.Role = domain.ParseRole(role)
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, idHash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id_hash = $1`, idHash)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
