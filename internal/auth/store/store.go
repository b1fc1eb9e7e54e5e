package store

import (
	"context"
	"errors"
	"time"

	"github.com/cvforge/cvforge/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Accounts() Accounts
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh
	// rotation). The caller MUST call Commit() or Rollback() on the
	// returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// CreateAccount inserts a new account (id is provided by app via ULID).
	CreateAccount(ctx context.Context, a domain.Account) error

	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail is used during login and forgot-password.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// RecordFailedLogin atomically increments failed_login_attempts and,
	// if the new count reaches maxAttempts, sets locked_until to
	// now+lockFor. The increment and the threshold check happen in a
	// single conditional UPDATE so concurrent failures cannot lose
	// updates. Returns the post-update attempt count and lock expiry.
	RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockFor time.Duration, now time.Time) (attempts int, lockedUntil *time.Time, err error)

	// MarkLoginSuccess clears the failed-attempt counter and lock, and
	// stamps last_login_at.
	MarkLoginSuccess(ctx context.Context, id string, now time.Time) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error

	// SetResetToken stores the SHA-256 fingerprint of a password-reset
	// token with its expiry, replacing any previous one.
	SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error

	// GetAccountByResetTokenHash returns the account holding a non-expired
	// reset token fingerprint.
	GetAccountByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error)

	// ClearResetToken removes any stored reset token fingerprint.
	ClearResetToken(ctx context.Context, id string) error

	// ClearExpiredResetTokens removes reset tokens whose expiry has passed.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) error

	// SetTwoFactorSecret stores the TOTP secret for an account (enrolment,
	// not yet enabled).
	SetTwoFactorSecret(ctx context.Context, id string, secret string) error

	// EnableTwoFactor marks 2FA as enabled for an account.
	EnableTwoFactor(ctx context.Context, id string) error

	// DisableTwoFactor disables 2FA and clears the stored secret.
	DisableTwoFactor(ctx context.Context, id string) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its SHA-256 fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken marks a token revoked by its fingerprint.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAccountRefreshTokens revokes every live token for an account.
	RevokeAccountRefreshTokens(ctx context.Context, accountID string) error

	// DeleteExpiredRefreshTokens removes rows past their expiry.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}
