package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cvforge/cvforge/internal/auth/domain"
	"github.com/cvforge/cvforge/internal/auth/store"
	"github.com/cvforge/cvforge/pkg/cryptox"
	"github.com/cvforge/cvforge/pkg/idx"
	"github.com/cvforge/cvforge/pkg/jwtx"
)

func TestRefreshRotatesAndRejectsReuse(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	accounts := newAccountService(t, st)
	tokens := accounts.Tokens

	_, pair := registerAccount(t, accounts, "rotate@example.com", "Str0ng!pass")

	newPair, acct, err := tokens.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "rotate@example.com", acct.Email)
	require.NotEmpty(t, newPair.AccessToken)
	require.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// The rotated-out token must be dead.
	_, _, err = tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// The replacement still works.
	_, _, err = tokens.Refresh(ctx, newPair.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshUnknownToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	tokens := newTokenService(t, st)

	_, _, err := tokens.Refresh(ctx, "never-issued")
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshExpiredToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	accounts := newAccountService(t, st)

	acct, _ := registerAccount(t, accounts, "expired@example.com", "Str0ng!pass")

	// Plant a refresh token that is already past its expiry.
	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		AccountID: acct.ID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}))

	_, _, err = accounts.Tokens.Refresh(ctx, opaque)
	require.ErrorIs(t, err, ErrRefreshExpired)
}

func TestRefreshAccessTokenVerifies(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	accounts := newAccountService(t, st)

	acct, pair := registerAccount(t, accounts, "claims@example.com", "Str0ng!pass")

	verifier, err := jwtx.NewVerifierHS256("test-secret-at-least-32-bytes-long", testIssuer)
	require.NoError(t, err)

	claims, err := verifier.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, acct.ID, claims.Subject)
	require.Equal(t, "claims@example.com", claims.Email)

	newPair, _, err := accounts.Tokens.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err = verifier.Verify(newPair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, acct.ID, claims.Subject)
}

func TestRevokeSingleToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	accounts := newAccountService(t, st)
	tokens := accounts.Tokens

	_, pair := registerAccount(t, accounts, "revoke@example.com", "Str0ng!pass")

	require.NoError(t, tokens.Revoke(ctx, pair.RefreshToken))

	_, _, err := tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Revoking an unknown token reports it as invalid.
	require.ErrorIs(t, tokens.Revoke(ctx, "never-issued"), ErrInvalidRefresh)
}

func TestRevokeIsSingleShot(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	accounts := newAccountService(t, st)
	tokens := accounts.Tokens

	_, pair := registerAccount(t, accounts, "singleshot@example.com", "Str0ng!pass")
	fp := cryptox.FingerprintToken(pair.RefreshToken)

	// The first revocation wins; the second hits zero rows because the
	// update only matches live tokens. This is what stops two concurrent
	// presentations of one refresh token from both minting pairs.
	require.NoError(t, st.RefreshTokens().RevokeRefreshToken(ctx, fp))
	require.ErrorIs(t, st.RefreshTokens().RevokeRefreshToken(ctx, fp), store.ErrNotFound)

	// At the service level the loser surfaces as an invalid token.
	require.ErrorIs(t, tokens.Revoke(ctx, pair.RefreshToken), ErrInvalidRefresh)
	_, _, err := tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRevokeAllKillsEverySession(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	accounts := newAccountService(t, st)
	tokens := accounts.Tokens

	acct, pair1 := registerAccount(t, accounts, "everywhere@example.com", "Str0ng!pass")
	pair2, err := tokens.IssuePair(ctx, acct)
	require.NoError(t, err)

	require.NoError(t, tokens.RevokeAll(ctx, acct.ID))

	_, _, err = tokens.Refresh(ctx, pair1.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
	_, _, err = tokens.Refresh(ctx, pair2.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}
