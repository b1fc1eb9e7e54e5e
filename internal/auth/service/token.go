package service

import (
	"context"
	"errors"
	"time"

	"github.com/cvforge/cvforge/internal/auth/domain"
	"github.com/cvforge/cvforge/internal/auth/store"
	"github.com/cvforge/cvforge/pkg/cryptox"
	"github.com/cvforge/cvforge/pkg/idx"
	"github.com/cvforge/cvforge/pkg/jwtx"
)

// TokenService mints access/refresh token pairs and handles refresh
// rotation. All lifetimes come from the injected TokenPolicy.
type TokenService struct {
	Store  store.Store
	Signer jwtx.Signer
	Issuer string
	Policy jwtx.TokenPolicy
}

// IssuePair mints a new access token and a fresh opaque refresh token for
// the account. Only the refresh token's fingerprint is persisted.
func (s *TokenService) IssuePair(ctx context.Context, acct domain.Account) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	accessToken, err := s.signAccess(acct, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		AccountID: acct.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		ExpiresAt: now.Add(s.Policy.RefreshTTL),
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		ExpiresIn:    s.Policy.AccessTTL,
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair.
//
// The presented token is looked up by fingerprint and checked for
// revocation and expiry, then the account is re-checked for activity.
// Rotation is atomic: the old record is revoked and the new one created
// in a single transaction, so a rotated-out token can never be replayed.
func (s *TokenService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, domain.Account, error) {
	now := time.Now().UTC()

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.Account{}, ErrInvalidRefresh
		}
		return nil, domain.Account{}, err
	}

	// A revoked token showing up again means it was already rotated out
	// (or explicitly logged out). Reject it.
	if rt.Revoked {
		return nil, domain.Account{}, ErrInvalidRefresh
	}
	if now.After(rt.ExpiresAt) {
		return nil, domain.Account{}, ErrRefreshExpired
	}

	acct, err := s.Store.Accounts().GetAccountByID(ctx, rt.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.Account{}, ErrInvalidRefresh
		}
		return nil, domain.Account{}, err
	}
	if !acct.IsActive {
		return nil, domain.Account{}, ErrAccountInactive
	}

	accessToken, err := s.signAccess(acct, now)
	if err != nil {
		return nil, domain.Account{}, err
	}

	newRefreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, domain.Account{}, err
	}

	newRT := domain.RefreshToken{
		ID:        idx.New().String(),
		AccountID: acct.ID,
		TokenHash: cryptox.FingerprintToken(newRefreshOpaque),
		ExpiresAt: now.Add(s.Policy.RefreshTTL),
	}

	// Atomically: revoke old token and create new one. The revoke is
	// conditional on the token still being live, so if a concurrent
	// presentation rotated it between our read and this transaction the
	// update hits zero rows and this exchange loses.
	if err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, newRT)
	}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.Account{}, ErrInvalidRefresh
		}
		return nil, domain.Account{}, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshOpaque,
		ExpiresIn:    s.Policy.AccessTTL,
	}, acct, nil
}

// Revoke revokes a single refresh token (by its opaque value).
func (s *TokenService) Revoke(ctx context.Context, refreshOpaque string) error {
	fp := cryptox.FingerprintToken(refreshOpaque)
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, fp)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidRefresh
	}
	return err
}

// RevokeAll revokes every live refresh token belonging to an account.
// Used on logout-everywhere and after password changes.
func (s *TokenService) RevokeAll(ctx context.Context, accountID string) error {
	return s.Store.RefreshTokens().RevokeAccountRefreshTokens(ctx, accountID)
}

func (s *TokenService) signAccess(acct domain.Account, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(
		acct.ID,
		acct.Email,
		acct.Name,
		s.Policy.AccessTTL,
		s.Issuer,
		now,
	)
	return s.Signer.Sign(claims)
}
