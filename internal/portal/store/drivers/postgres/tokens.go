package postgres

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
)

// tokenTable holds the queries shared by both token kinds; the tables have
// identical columns.
type tokenTable struct {
	db    dbtx
	table string
}

type tokenRow = domain.EmailVerificationToken

func (t tokenTable) create(ctx context.Context, row tokenRow) error {
	_, err := t.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, user_id, token_hash, expires_at, used, created_at) VALUES ($1, $2, $3, $4, $5, $6)`, t.table),
		row.ID, row.UserID, row.TokenHash, row.ExpiresAt.UTC(), row.Used, row.CreatedAt.UTC(),
	)
	return mapWriteErr(err)
}

func (t tokenTable) byHash(ctx context.Context, hash string) (tokenRow, error) {
	var row tokenRow
	err := t.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id, user_id, token_hash, expires_at, used, created_at FROM %s WHERE token_hash = $1`, t.table), hash,
	).Scan(&row.ID, &row.UserID, &row.TokenHash, &row.ExpiresAt, &row.Used, &row.CreatedAt)
	if err != nil {
		return tokenRow{}, mapNotFound(err)
	}
	return row, nil
}

func (t tokenTable) byUser(ctx context.Context, userID string) ([]tokenRow, error) {
	rows, err := t.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, user_id, token_hash, expires_at, used, created_at FROM %s WHERE user_id = $1 ORDER BY id`, t.table), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tokenRow
	for rows.Next() {
		var row tokenRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.TokenHash, &row.ExpiresAt, &row.Used, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (t tokenTable) markUsed(ctx context.Context, id string) error {
	return expectOneRow(t.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET used = TRUE WHERE id = $1 AND used = FALSE`, t.table), id))
}

type verificationTokensRepo struct {
	db dbtx
}

func (r *verificationTokensRepo) t() tokenTable {
	return tokenTable{db: r.db, table: "email_verification_tokens"}
}

func (r *verificationTokensRepo) CreateVerificationToken(ctx context.Context, tok domain.EmailVerificationToken) error {
	return r.t().create(ctx, tok)
}

func (r *verificationTokensRepo) GetVerificationTokenByHash(ctx context.Context, hash string) (domain.EmailVerificationToken, error) {
	return r.t().byHash(ctx, hash)
}

func (r *verificationTokensRepo) ListVerificationTokensByUser(ctx context.Context, userID string) ([]domain.EmailVerificationToken, error) {
	return r.t().byUser(ctx, userID)
}

func (r *verificationTokensRepo) MarkVerificationTokenUsed(ctx context.Context, id string) error {
	return r.t().markUsed(ctx, id)
}

type resetTokensRepo struct {
	db dbtx
}

func (r *resetTokensRepo) t() tokenTable {
	return tokenTable{db: r.db, table: "password_reset_tokens"}
}

func (r *resetTokensRepo) CreateResetToken(ctx context.Context, tok domain.PasswordResetToken) error {
	return r.t().create(ctx, tokenRow(tok))
}

func (r *resetTokensRepo) GetResetTokenByHash(ctx context.Context, hash string) (domain.PasswordResetToken, error) {
	row, err := r.t().byHash(ctx, hash)
	return domain.PasswordResetToken(row), err
}

func (r *resetTokensRepo) ListResetTokensByUser(ctx context.Context, userID string) ([]domain.PasswordResetToken, error) {
	rows, err := r.t().byUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PasswordResetToken, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.PasswordResetToken(row))
	}
	return out, nil
}

func (r *resetTokensRepo) MarkResetTokenUsed(ctx context.Context, id string) error {
	return r.t().markUsed(ctx, id)
}
