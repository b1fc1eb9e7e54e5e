package http

import (
	"net/http"

	"github.com/cvforge/cvforge/internal/auth/service"
	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/cvforge/cvforge/pkg/httpx"
)

// ChangePasswordHandler serves POST /api/auth/change-password (bearer required).
type ChangePasswordHandler struct {
	PasswordService *service.PasswordService
	Env             string
}

// ServeHTTP godoc
//
//	@Summary		Change Password
//	@Description	Re-verifies the current password, stores the new one and revokes every refresh token of the account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.ChangePasswordRequest	true	"currentPassword, newPassword"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"password policy"
//	@Failure		401		{object}	authsdk.ErrorResponse	"wrong current password"
//	@Router			/api/auth/change-password [post].
func (h *ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID := httpx.AccountIDFromCtx(ctx)
	if accountID == "" {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	var req authsdk.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.PasswordService.Change(ctx, accountID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "password changed"})
}

// ForgotPasswordHandler serves POST /api/auth/forgot-password.
type ForgotPasswordHandler struct {
	PasswordService *service.PasswordService
	Env             string
}

// ServeHTTP godoc
//
//	@Summary		Forgot Password
//	@Description	Starts the reset flow. The response is identical whether or not the email is registered.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ForgotPasswordRequest	true	"email"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Router			/api/auth/forgot-password [post].
func (h *ForgotPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.ForgotPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.PasswordService.Forgot(ctx, req.Email); err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Message: "if the email is registered, a reset link has been sent",
	})
}

// ResetPasswordHandler serves POST /api/auth/reset-password.
type ResetPasswordHandler struct {
	PasswordService *service.PasswordService
	Env             string
}

// ServeHTTP godoc
//
//	@Summary		Reset Password
//	@Description	Completes the reset flow with a token from the emailed link. Consumes the token and revokes every refresh token of the account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ResetPasswordRequest	true	"token, password"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid or expired token, or password policy"
//	@Router			/api/auth/reset-password [post].
func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.ResetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.PasswordService.Reset(ctx, req.Token, req.Password); err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "password reset"})
}
