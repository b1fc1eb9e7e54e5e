package http

import (
	"net/http"

	"github.com/cvforge/cvforge/internal/auth/service"
	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/cvforge/cvforge/pkg/httpx"
)

// TwoFactorHandler serves the /api/2fa/* endpoints.
type TwoFactorHandler struct {
	TwoFactorService *service.TwoFactorService
	Env              string
}

// HandleSetup godoc
//
//	@Summary		Begin TOTP Enrolment
//	@Description	Generates a TOTP secret for the account. 2FA stays disabled until a code is verified.
//	@Tags			TwoFactor
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.TwoFactorSetupResponse	"secret, otpauthUrl"
//	@Failure		400	{object}	authsdk.ErrorResponse	"already enabled"
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/api/2fa/setup [post].
func (h *TwoFactorHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID := httpx.AccountIDFromCtx(ctx)
	if accountID == "" {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	setup, err := h.TwoFactorService.Setup(ctx, accountID)
	if err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TwoFactorSetupResponse{
		Secret:     setup.Secret,
		OTPAuthURL: setup.OTPAuthURL,
	})
}

// HandleVerify godoc
//
//	@Summary		Verify TOTP Enrolment
//	@Description	Validates a code against the pending secret and enables 2FA.
//	@Tags			TwoFactor
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.TwoFactorVerifyRequest	true	"code"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid code or not enrolled"
//	@Router			/api/2fa/verify [post].
func (h *TwoFactorHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID := httpx.AccountIDFromCtx(ctx)
	if accountID == "" {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	var req authsdk.TwoFactorVerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.TwoFactorService.Verify(ctx, accountID, req.Code); err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "two-factor authentication enabled"})
}

// HandleValidate godoc
//
//	@Summary		Complete Two-Factor Login
//	@Description	Finishes a login challenge: the password check already passed and the client now presents a TOTP code. No bearer token is required.
//	@Tags			TwoFactor
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TwoFactorValidateRequest	true	"userId, code"
//	@Success		200		{object}	authsdk.TokenResponse	"accessToken, refreshToken, user"
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid code"
//	@Failure		429		{object}	authsdk.ErrorResponse	"account locked"
//	@Router			/api/2fa/validate [post].
func (h *TwoFactorHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.TwoFactorValidateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, acct, err := h.TwoFactorService.ValidateLogin(ctx, req.UserID, req.Code)
	if err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair, acct))
}

// HandleDisable godoc
//
//	@Summary		Disable Two-Factor
//	@Description	Turns 2FA off after validating a TOTP code against the stored secret, and clears the secret.
//	@Tags			TwoFactor
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.TwoFactorVerifyRequest	true	"code"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid code or not enabled"
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Router			/api/2fa/disable [post].
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID := httpx.AccountIDFromCtx(ctx)
	if accountID == "" {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	var req authsdk.TwoFactorVerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.TwoFactorService.Disable(ctx, accountID, req.Code); err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "two-factor authentication disabled"})
}

// HandleStatus godoc
//
//	@Summary		Two-Factor Status
//	@Tags			TwoFactor
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.TwoFactorStatusResponse	"enabled"
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/api/2fa/status [get].
func (h *TwoFactorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID := httpx.AccountIDFromCtx(ctx)
	if accountID == "" {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	enabled, err := h.TwoFactorService.Status(ctx, accountID)
	if err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TwoFactorStatusResponse{Enabled: enabled})
}
