package http

import (
	"net/http"

	"github.com/cvforge/cvforge/internal/auth/service"
	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/cvforge/cvforge/pkg/httpx"
)

// RegisterHandler serves POST /api/auth/register.
type RegisterHandler struct {
	AccountService *service.AccountService
	Env            string
}

// ServeHTTP godoc
//
//	@Summary		Register Account
//	@Description	Creates a new account and returns an access/refresh token pair so the user lands signed in.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.RegisterRequest	true	"email, password, name, phone?"
//	@Success		201		{object}	authsdk.TokenResponse	"accessToken, refreshToken, user"
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation failure or duplicate email"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate limited"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Router			/api/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	acct, pair, err := h.AccountService.Register(ctx, service.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, tokenResponse(pair, acct))
}
