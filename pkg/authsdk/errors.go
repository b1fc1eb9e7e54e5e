package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cvforge/cvforge/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	// Machine-readable error codes carried in ErrorResponse.Code. The
	// refresh codes let clients distinguish "log in again" from "retry".
	ErrorCodeRefreshExpired  = "REFRESH_TOKEN_EXPIRED"
	ErrorCodeInvalidRefresh  = "INVALID_REFRESH_TOKEN"
	ErrorCodeUserInactive    = "USER_INACTIVE"
	ErrorCodeAccountLocked   = "ACCOUNT_LOCKED"
	ErrorCodeValidationError = "VALIDATION_ERROR"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the error body the service emits. It implements the error
// interface and is used both by the server (to write HTTP responses) and
// by the SDK client (to represent responses it received).
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code, empty for most 400s
	Code string `json:"code,omitempty"`

	// Message is a human-readable description
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	})
}

// NewAPIError creates an APIError with the given status, code and message.
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned for malformed JSON or missing fields.
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "invalid request body",
	}

	// ErrInvalidCredentials is the generic login failure. It deliberately
	// does not reveal whether the email is registered.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "invalid email or password",
	}

	// ErrAccountLocked is returned while a lockout is in effect.
	ErrAccountLocked = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Code:       ErrorCodeAccountLocked,
		Message:    "account temporarily locked due to repeated failed logins",
	}

	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "an account with this email already exists",
	}

	// ErrWeakPassword is returned when the password policy is not met.
	ErrWeakPassword = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeValidationError,
		Message:    "password must be at least 8 characters with upper and lower case letters, a digit and a special character",
	}

	// ErrInvalidEmail is returned for malformed email addresses.
	ErrInvalidEmail = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeValidationError,
		Message:    "invalid email address",
	}

	// ErrRefreshExpired tells the client its refresh token aged out and a
	// full login is required.
	ErrRefreshExpired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeRefreshExpired,
		Message:    "refresh token has expired",
	}

	// ErrInvalidRefreshToken covers unknown, revoked and rotated-out
	// refresh tokens.
	ErrInvalidRefreshToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidRefresh,
		Message:    "refresh token is invalid or has been revoked",
	}

	// ErrUserInactive is returned when the account behind a refresh token
	// has been deactivated.
	ErrUserInactive = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeUserInactive,
		Message:    "account is inactive",
	}

	// ErrWrongPassword is returned when the current password check fails.
	ErrWrongPassword = &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    "current password is incorrect",
	}

	// ErrInvalidResetToken covers unknown, consumed and expired reset tokens.
	ErrInvalidResetToken = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "reset token is invalid or has expired",
	}

	// ErrInvalidTOTPCode is returned when a TOTP code does not validate.
	ErrInvalidTOTPCode = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "invalid verification code",
	}

	// ErrTwoFactorState covers enrolment-order violations (verify before
	// setup, setup while enabled, disable while disabled).
	ErrTwoFactorState = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "two-factor authentication is not in the required state for this operation",
	}

	// ErrUnauthorized is returned when the access token is missing or invalid.
	ErrUnauthorized = &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    "authentication required",
	}

	// ErrServerError is the sanitized 500.
	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Message:    "internal server error",
	}
)

// ============================================================================
// Client-side Sentinels
// ============================================================================

var (
	// ErrSessionExpired is returned by Session methods once the refresh
	// token has been rejected; the credentials are cleared and the user
	// must log in again.
	ErrSessionExpired = errors.New("authsdk: session expired")

	// ErrTransient wraps transport-level failures. The session state is
	// untouched; the caller may retry.
	ErrTransient = errors.New("authsdk: transient error")
)

// TwoFactorRequiredError is returned by Client.Login when the account has
// 2FA enabled. Complete the login with Client.ValidateTwoFactor.
type TwoFactorRequiredError struct {
	// UserID identifies the account for the validate call
	UserID string
}

// Error implements the error interface.
func (e *TwoFactorRequiredError) Error() string {
	return "two-factor authentication required"
}

// ============================================================================
// Error Parsing
// ============================================================================

// parseErrorResponse turns a non-2xx HTTP response into a typed error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Code,
			Message:    errResp.Error,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
