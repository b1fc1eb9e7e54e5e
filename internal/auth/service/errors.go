package service

import "errors"

// Sentinel errors returned by the services. Handlers map these onto HTTP
// statuses and client-facing error codes.
var (
	// Login / registration
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountLocked      = errors.New("account_locked")
	ErrAccountInactive    = errors.New("account_inactive")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")

	// Refresh tokens
	ErrInvalidRefresh = errors.New("invalid_refresh_token")
	ErrRefreshExpired = errors.New("refresh_token_expired")

	// Password management
	ErrWrongPassword     = errors.New("wrong_password")
	ErrInvalidResetToken = errors.New("invalid_reset_token")

	// Two-factor
	ErrInvalidTOTPCode         = errors.New("invalid_totp_code")
	ErrTwoFactorNotEnrolled    = errors.New("two_factor_not_enrolled")
	ErrTwoFactorNotEnabled     = errors.New("two_factor_not_enabled")
	ErrTwoFactorAlreadyEnabled = errors.New("two_factor_already_enabled")
)
