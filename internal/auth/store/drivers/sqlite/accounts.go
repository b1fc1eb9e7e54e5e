package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cvforge/cvforge/internal/auth/domain"
	"github.com/cvforge/cvforge/internal/auth/store"
)

type accountsRepo struct {
	q querier
}

const accountColumns = `id, email, password_hash, name, phone, is_active,
	failed_login_attempts, locked_until, two_factor_enabled, two_factor_secret,
	reset_token_hash, reset_token_expires_at, last_login_at, created_at, updated_at`

func scanAccount(row *sql.Row) (domain.Account, error) {
	var a domain.Account
	var phone, twoFactorSecret, resetTokenHash sql.NullString
	var lockedUntil, resetTokenExpiresAt, lastLoginAt sql.NullTime

	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Name, &phone, &a.IsActive,
		&a.FailedLoginAttempts, &lockedUntil, &a.TwoFactorEnabled, &twoFactorSecret,
		&resetTokenHash, &resetTokenExpiresAt, &lastLoginAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.Phone = mapNullStringPtr(phone)
	a.LockedUntil = mapNullTimePtr(lockedUntil)
	a.TwoFactorSecret = mapNullStringPtr(twoFactorSecret)
	a.ResetTokenHash = mapNullStringPtr(resetTokenHash)
	a.ResetTokenExpiresAt = mapNullTimePtr(resetTokenExpiresAt)
	a.LastLoginAt = mapNullTimePtr(lastLoginAt)
	return a, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (
			id, email, password_hash, name, phone, is_active,
			failed_login_attempts, two_factor_enabled,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		a.ID, a.Email, a.PasswordHash, a.Name, mapOptionalString(a.Phone),
		a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

// RecordFailedLogin is a single conditional UPDATE so concurrent failed
// attempts each observe their own increment; the threshold check uses the
// post-increment value inside the same statement.
func (r *accountsRepo) RecordFailedLogin(
	ctx context.Context,
	id string,
	maxAttempts int,
	lockFor time.Duration,
	now time.Time,
) (int, *time.Time, error) {
	row := r.q.QueryRowContext(ctx, `
		UPDATE accounts
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= ? THEN ?
		        ELSE locked_until
		    END,
		    updated_at = ?
		WHERE id = ?
		RETURNING failed_login_attempts, locked_until`,
		maxAttempts, now.Add(lockFor), now, id,
	)

	var attempts int
	var lockedUntil sql.NullTime
	if err := row.Scan(&attempts, &lockedUntil); err != nil {
		return 0, nil, mapNotFound(err)
	}
	return attempts, mapNullTimePtr(lockedUntil), nil
}

func (r *accountsRepo) MarkLoginSuccess(ctx context.Context, id string, now time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    last_login_at = ?,
		    updated_at = ?
		WHERE id = ?`,
		now, now, id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		newHash, id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET reset_token_hash = ?, reset_token_expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		tokenHash, expiresAt, id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) GetAccountByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE reset_token_hash = ? AND reset_token_expires_at > ?`,
		tokenHash, now,
	)
	return scanAccount(row)
}

func (r *accountsRepo) ClearResetToken(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		id,
	)
	return err
}

func (r *accountsRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE reset_token_hash IS NOT NULL AND reset_token_expires_at <= ?`,
		now,
	)
	return err
}

func (r *accountsRepo) SetTwoFactorSecret(ctx context.Context, id string, secret string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET two_factor_secret = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		secret, id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) EnableTwoFactor(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET two_factor_enabled = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) DisableTwoFactor(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET two_factor_enabled = 0, two_factor_secret = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
