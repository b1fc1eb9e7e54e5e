package http

import (
	"net/http"

	"github.com/cvforge/cvforge/internal/auth/service"
	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/cvforge/cvforge/pkg/httpx"
)

// RefreshHandler serves POST /api/auth/refresh-token.
type RefreshHandler struct {
	TokenService *service.TokenService
	Env          string
}

// ServeHTTP godoc
//
//	@Summary		Refresh Token Pair
//	@Description	Exchanges a refresh token for a new access/refresh pair. The presented token is rotated out atomically; reusing it afterwards yields 401 INVALID_REFRESH_TOKEN.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"refreshToken"
//	@Success		200		{object}	authsdk.TokenResponse	"accessToken, refreshToken, user"
//	@Failure		401		{object}	authsdk.ErrorResponse	"REFRESH_TOKEN_EXPIRED, INVALID_REFRESH_TOKEN or USER_INACTIVE"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/api/auth/refresh-token [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		authsdk.ErrInvalidRefreshToken.WriteError(w)
		return
	}

	pair, acct, err := h.TokenService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair, acct))
}
