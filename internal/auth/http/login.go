package http

import (
	"net/http"

	"github.com/cvforge/cvforge/internal/auth/service"
	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/cvforge/cvforge/pkg/httpx"
)

// LoginHandler serves POST /api/auth/login.
type LoginHandler struct {
	AccountService *service.AccountService
	Env            string
}

// ServeHTTP godoc
//
//	@Summary		Login
//	@Description	Authenticates with email and password. Accounts with 2FA enabled receive a challenge ({requiresTwoFactor, userId}) instead of tokens; complete it via /api/2fa/validate.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"email, password"
//	@Success		200		{object}	authsdk.TokenResponse	"accessToken, refreshToken, user (or requiresTwoFactor, userId)"
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"account locked or rate limited"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Router			/api/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.AccountService.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	if res.TwoFactorRequired {
		httpx.WriteJSON(w, http.StatusOK, authsdk.TwoFactorChallengeResponse{
			RequiresTwoFactor: true,
			UserID:            res.Account.ID,
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(res.Pair, res.Account))
}
