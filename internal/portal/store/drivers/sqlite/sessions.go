package sqlite

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
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.IDHash, s.Principal.UserID, s.Principal.Name, s.Principal.Email, string(s.Principal.Role),
		utc(s.CreatedAt), utc(s.ExpiresAt),
	)
	return mapWriteErr(err)
}

func (r *sessionsRepo) GetSessionByHash(ctx context.Context, idHash string) (store.SessionRecord, error) {
	var (
		s    store.SessionRecord
		role string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id_hash, user_id, name, email, role, created_at, expires_at FROM sessions WHERE id_hash = ?`,
		idHash,
	).Scan(&s.IDHash, &s.Principal.UserID, &s.Principal.Name, &s.Principal.Email, &role, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return store.SessionRecord{}, mapNotFound(err)
	}
	s.Principal.Role = domain.ParseRole(role)
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, idHash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id_hash = ?`, idHash)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, utc(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
