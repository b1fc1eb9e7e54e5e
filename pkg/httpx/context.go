package httpx

import "context"

type ctxKey string

const (
	CtxKeyAccountID ctxKey = "account_id"
	CtxKeyClaims    ctxKey = "claims" // full jwtx.Claims if you need them
)

// AccountIDFromCtx returns the authenticated account id, or "" if the
// request did not pass through AuthnMiddleware.
func AccountIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAccountID).(string); ok {
		return v
	}
	return ""
}
