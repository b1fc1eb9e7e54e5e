package domain

import "time"

// Account is a registered end user of the CV builder. Credential state,
// lockout state and two-factor state all live on this row.
type Account struct {
	ID           string
	Email        string
	PasswordHash string // argon2id PHC format
	Name         string
	Phone        *string

	IsActive bool

	// Lockout state. FailedLoginAttempts counts consecutive failures;
	// crossing the threshold sets LockedUntil.
	FailedLoginAttempts int
	LockedUntil         *time.Time

	// Two-factor state. The secret is stored at setup time but 2FA is
	// only enforced once TwoFactorEnabled is set by a verified code.
	TwoFactorEnabled bool
	TwoFactorSecret  *string

	// Password-reset state. The token is stored as a SHA-256 fingerprint.
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Locked reports whether the account is currently locked out.
func (a Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// CanAuthenticate reports whether the account may log in right now.
// Invariant: active AND (never locked OR the lock has lapsed).
func (a Account) CanAuthenticate(now time.Time) bool {
	return a.IsActive && !a.Locked(now)
}
