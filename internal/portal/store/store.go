package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/campus/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrConflict is returned when a conditional update matched no row,
	// e.g. marking a token used that another request already consumed.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it and expose sub-repositories so a transaction can
// hand the same repositories to a callback without nesting transactions.
type Store interface {
	Users() Users
	VerificationTokens() VerificationTokens
	ResetTokens() ResetTokens
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, rolling back if fn returns an
	// error and committing otherwise. Inside fn only use tx; the sqlite
	// driver holds a single connection and calls on the outer store block.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
// Tx() on a Tx fails with sql.ErrTxDone; WithTx() joins the running transaction.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches the email exactly as stored.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts u. A duplicate email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	UpdatePasswordHash(ctx context.Context, userID, hash string) error

	MarkVerified(ctx context.Context, userID string) error

	// PromoteToAdmin forces role=admin and verified=true.
	PromoteToAdmin(ctx context.Context, userID string) error

	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

type VerificationTokens interface {
	CreateVerificationToken(ctx context.Context, t domain.EmailVerificationToken) error

	// GetVerificationTokenByHash returns the token regardless of its used or
	// expiry state so callers can report which one applies.
	GetVerificationTokenByHash(ctx context.Context, hash string) (domain.EmailVerificationToken, error)

	// ListVerificationTokensByUser returns a user's tokens, oldest first.
	ListVerificationTokensByUser(ctx context.Context, userID string) ([]domain.EmailVerificationToken, error)

	// MarkVerificationTokenUsed flips used=1 only if it is still 0, returning
	// ErrConflict when another request got there first.
	MarkVerificationTokenUsed(ctx context.Context, id string) error
}

type ResetTokens interface {
	CreateResetToken(ctx context.Context, t domain.PasswordResetToken) error
	GetResetTokenByHash(ctx context.Context, hash string) (domain.PasswordResetToken, error)
	ListResetTokensByUser(ctx context.Context, userID string) ([]domain.PasswordResetToken, error)

	// MarkResetTokenUsed has the same conditional semantics as
	// MarkVerificationTokenUsed.
	MarkResetTokenUsed(ctx context.Context, id string) error
}

// SessionRecord is a persisted session keyed by the fingerprint of its id.
type SessionRecord struct {
	IDHash    string
	Principal domain.Principal
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Sessions interface {
	CreateSession(ctx context.Context, s SessionRecord) error
	GetSessionByHash(ctx context.Context, idHash string) (SessionRecord, error)
	DeleteSession(ctx context.Context, idHash string) error

	// DeleteExpiredSessions is housekeeping. It returns the rows removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
