package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/cvforge/cvforge/internal/auth/service"
	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/cvforge/cvforge/pkg/httpx"
)

// LogoutHandler serves POST /api/auth/logout (bearer required).
type LogoutHandler struct {
	TokenService *service.TokenService
	Env          string
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Revokes the presented refresh token, or every refresh token of the account when the body omits one.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.LogoutRequest	false	"refreshToken (optional)"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Router			/api/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID := httpx.AccountIDFromCtx(ctx)
	if accountID == "" {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	// The body is optional; an empty or absent one means "everywhere".
	var req authsdk.LogoutRequest
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		if !decodeRaw(w, body, &req) {
			return
		}
	}

	if req.RefreshToken != "" {
		if err := h.TokenService.Revoke(ctx, req.RefreshToken); err != nil {
			// An already-dead token still counts as logged out.
			if !errors.Is(err, service.ErrInvalidRefresh) {
				writeServiceError(w, ctx, h.Env, err)
				return
			}
		}
	} else {
		if err := h.TokenService.RevokeAll(ctx, accountID); err != nil {
			writeServiceError(w, ctx, h.Env, err)
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "logged out"})
}
