package authsdk

// ============================================================================
// Request Types
// ============================================================================

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	// Email is the account's unique email address
	Email string `json:"email"`

	// Password must be at least 8 characters with upper, lower, digit and special
	Password string `json:"password"`

	// Name is the user's display name
	Name string `json:"name"`

	// Phone is optional
	Phone *string `json:"phone,omitempty"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body for POST /api/auth/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest is the optional body for POST /api/auth/logout. When the
// refresh token is omitted, every session of the account is revoked.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ChangePasswordRequest is the body for POST /api/auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ForgotPasswordRequest is the body for POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body for POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// TwoFactorVerifyRequest carries a TOTP code for enrolment verification
// and for disabling 2FA.
type TwoFactorVerifyRequest struct {
	Code string `json:"code"` // 6-digit TOTP code
}

// TwoFactorValidateRequest completes a two-factor login challenge.
// No bearer token is required; the userId comes from the login response.
type TwoFactorValidateRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

// ============================================================================
// Response Types
// ============================================================================

// UserInfo is the public projection of an account.
type UserInfo struct {
	// ID is the account's ULID
	ID string `json:"id"`

	// Email is the account's email address
	Email string `json:"email"`

	// Name is the display name
	Name string `json:"name"`

	// Phone is present when the account has one
	Phone *string `json:"phone,omitempty"`

	// TwoFactorEnabled reports whether the account has TOTP enabled
	TwoFactorEnabled bool `json:"twoFactorEnabled"`

	// CreatedAt is an RFC3339 timestamp
	CreatedAt string `json:"createdAt,omitempty"`
}

// TokenResponse is returned by register, login, refresh-token and the
// two-factor validate endpoint.
type TokenResponse struct {
	// AccessToken is the JWT used to authenticate API requests
	AccessToken string `json:"accessToken"`

	// RefreshToken is the opaque token used to obtain new access tokens
	RefreshToken string `json:"refreshToken"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int `json:"expiresIn"`

	// User is the authenticated account
	User *UserInfo `json:"user,omitempty"`
}

// TwoFactorChallengeResponse is returned by login instead of tokens when
// the account has 2FA enabled.
type TwoFactorChallengeResponse struct {
	RequiresTwoFactor bool   `json:"requiresTwoFactor"`
	UserID            string `json:"userId"`
}

// MeResponse wraps the authenticated user for GET /api/auth/me.
type MeResponse struct {
	User UserInfo `json:"user"`
}

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// TwoFactorSetupResponse contains the enrolment material from POST /api/2fa/setup.
type TwoFactorSetupResponse struct {
	Secret     string `json:"secret" example:"JBSWY3DPEHPK3PXP"`
	OTPAuthURL string `json:"otpauthUrl" example:"otpauth://totp/cvforge:user@example.com?secret=JBSWY3DPEHPK3PXP&issuer=cvforge"`
}

// TwoFactorStatusResponse reports whether 2FA is enabled.
type TwoFactorStatusResponse struct {
	Enabled bool `json:"enabled"`
}

// ErrorResponse is the standard error body. Code is a machine-readable
// discriminator (e.g. REFRESH_TOKEN_EXPIRED); Error is human-readable.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`
}
