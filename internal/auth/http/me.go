package http

import (
	"net/http"

	"github.com/cvforge/cvforge/internal/auth/service"
	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/cvforge/cvforge/pkg/httpx"
)

// MeHandler serves GET /api/auth/me (bearer required).
type MeHandler struct {
	AccountService *service.AccountService
	Env            string
}

// ServeHTTP godoc
//
//	@Summary		Current Account
//	@Description	Returns the authenticated account. Idempotent; used by clients as a session liveness probe.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.MeResponse	"user"
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/api/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID := httpx.AccountIDFromCtx(ctx)
	if accountID == "" {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	acct, err := h.AccountService.GetAccount(ctx, accountID)
	if err != nil {
		writeServiceError(w, ctx, h.Env, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{User: *userInfo(acct)})
}
