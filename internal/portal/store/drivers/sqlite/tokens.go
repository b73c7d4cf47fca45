package sqlite

import (
	"context"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
)

// Both token tables share one shape; tokenRow is the scan target for either.
type tokenRow struct {
	domain.EmailVerificationToken
}

func scanToken(row interface{ Scan(...any) error }) (tokenRow, error) {
	var t tokenRow
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if err != nil {
		return tokenRow{}, mapNotFound(err)
	}
	return t, nil
}

func (t tokenRow) reset() domain.PasswordResetToken {
	return domain.PasswordResetToken(t.EmailVerificationToken)
}

const tokenColumns = `id, user_id, token_hash, expires_at, used, created_at`

type verificationTokensRepo struct {
	db dbtx
}

func (r *verificationTokensRepo) CreateVerificationToken(ctx context.Context, t domain.EmailVerificationToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO email_verification_tokens (id, user_id, token_hash, expires_at, used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, utc(t.ExpiresAt), t.Used, utc(t.CreatedAt),
	)
	return mapWriteErr(err)
}

func (r *verificationTokensRepo) GetVerificationTokenByHash(ctx context.Context, hash string) (domain.EmailVerificationToken, error) {
	row, err := scanToken(r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM email_verification_tokens WHERE token_hash = ?`, hash))
	return row.EmailVerificationToken, err
}

func (r *verificationTokensRepo) ListVerificationTokensByUser(ctx context.Context, userID string) ([]domain.EmailVerificationToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM email_verification_tokens WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EmailVerificationToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t.EmailVerificationToken)
	}
	return out, rows.Err()
}

func (r *verificationTokensRepo) MarkVerificationTokenUsed(ctx context.Context, id string) error {
	return expectOneRow(r.db.ExecContext(ctx,
		`UPDATE email_verification_tokens SET used = 1 WHERE id = ? AND used = 0`, id))
}

type resetTokensRepo struct {
	db dbtx
}

func (r *resetTokensRepo) CreateResetToken(ctx context.Context, t domain.PasswordResetToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, utc(t.ExpiresAt), t.Used, utc(t.CreatedAt),
	)
	return mapWriteErr(err)
}

func (r *resetTokensRepo) GetResetTokenByHash(ctx context.Context, hash string) (domain.PasswordResetToken, error) {
	row, err := scanToken(r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM password_reset_tokens WHERE token_hash = ?`, hash))
	return row.reset(), err
}

func (r *resetTokensRepo) ListResetTokensByUser(ctx context.Context, userID string) ([]domain.PasswordResetToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM password_reset_tokens WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PasswordResetToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t.reset())
	}
	return out, rows.Err()
}

func (r *resetTokensRepo) MarkResetTokenUsed(ctx context.Context, id string) error {
	return expectOneRow(r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = 1 WHERE id = ? AND used = 0`, id))
}
