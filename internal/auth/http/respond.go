package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/cvforge/cvforge/internal/auth/domain"
	"github.com/cvforge/cvforge/internal/auth/service"
	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/cvforge/cvforge/pkg/slogx"
)

const envProduction = "production"

// userInfo projects an account onto its public wire shape.
func userInfo(a domain.Account) *authsdk.UserInfo {
	return &authsdk.UserInfo{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		Phone:            a.Phone,
		TwoFactorEnabled: a.TwoFactorEnabled,
		CreatedAt:        a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// tokenResponse assembles the standard token-pair body.
func tokenResponse(pair *domain.TokenPair, acct domain.Account) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		User:         userInfo(acct),
	}
}

// decodeBody decodes a JSON request body into dst. On failure it writes a
// 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return false
	}
	return true
}

// decodeRaw is decodeBody for callers that already read the body.
func decodeRaw(w http.ResponseWriter, body []byte, dst any) bool {
	if err := json.Unmarshal(body, dst); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return false
	}
	return true
}

// writeServiceError maps service sentinels onto the wire errors. Unknown
// errors are logged and sanitized to a plain 500 in production; outside
// production the detail is carried in the body to ease debugging.
func writeServiceError(w http.ResponseWriter, ctx context.Context, env string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrAccountLocked):
		authsdk.ErrAccountLocked.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authsdk.ErrEmailTaken.WriteError(w)
	case errors.Is(err, service.ErrInvalidEmail):
		authsdk.ErrInvalidEmail.WriteError(w)
	case errors.Is(err, service.ErrWeakPassword):
		authsdk.ErrWeakPassword.WriteError(w)
	case errors.Is(err, service.ErrRefreshExpired):
		authsdk.ErrRefreshExpired.WriteError(w)
	case errors.Is(err, service.ErrInvalidRefresh):
		authsdk.ErrInvalidRefreshToken.WriteError(w)
	case errors.Is(err, service.ErrAccountInactive):
		authsdk.ErrUserInactive.WriteError(w)
	case errors.Is(err, service.ErrWrongPassword):
		authsdk.ErrWrongPassword.WriteError(w)
	case errors.Is(err, service.ErrInvalidResetToken):
		authsdk.ErrInvalidResetToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidTOTPCode):
		authsdk.ErrInvalidTOTPCode.WriteError(w)
	case errors.Is(err, service.ErrTwoFactorNotEnrolled),
		errors.Is(err, service.ErrTwoFactorNotEnabled),
		errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
		authsdk.ErrTwoFactorState.WriteError(w)
	default:
		log := slogx.FromContext(ctx)
		log.Error("request failed", "err", err)
		sentry.CaptureException(err)

		if env != envProduction {
			authsdk.NewAPIError(http.StatusInternalServerError, "", err.Error()).WriteError(w)
			return
		}
		authsdk.ErrServerError.WriteError(w)
	}
}
