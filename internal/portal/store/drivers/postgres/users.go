package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
)

const userColumns = `id, name, email, password_hash, verified, role, last_login_at, created_at, updated_at`

type usersRepo struct {
	db dbtx
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u         domain.User
		role      string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Verified, &role, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Role = domain.ParseRole(role)
	u.LastLoginAt = mapNullTimePtr(lastLogin)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, verified, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Verified, string(u.Role), u.CreatedAt, now,
	)
	return mapWriteErr(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return expectRow(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, userID))
}

func (r *usersRepo) MarkVerified(ctx context.Context, userID string) error {
	return expectRow(r.db.ExecContext(ctx,
		`UPDATE users SET verified = TRUE, updated_at = now() WHERE id = $1`, userID))
}

func (r *usersRepo) PromoteToAdmin(ctx context.Context, userID string) error {
	return expectRow(r.db.ExecContext(ctx,
		`UPDATE users SET role = 'admin', verified = TRUE, updated_at = now() WHERE id = $1`, userID))
}

func (r *usersRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return expectRow(r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $1, updated_at = now() WHERE id = $2`, at.UTC(), userID))
}
