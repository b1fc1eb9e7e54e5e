package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cvforge/cvforge/internal/auth/store"
	"github.com/cvforge/cvforge/pkg/cryptox"
	"github.com/cvforge/cvforge/pkg/slogx"
)

// DefaultResetTokenTTL is how long a password reset link stays valid.
const DefaultResetTokenTTL = time.Hour

// PasswordService handles in-session password changes and the
// forgot/reset flow. Reset tokens are opaque and stored by fingerprint,
// the same scheme refresh tokens use.
type PasswordService struct {
	Store  store.Store
	Tokens *TokenService

	// FrontendURL is the base used to build reset links.
	FrontendURL string

	// ResetTTL overrides DefaultResetTokenTTL when set.
	ResetTTL time.Duration
}

// Change updates the password for an authenticated account after
// re-verifying the current one. Every refresh token is revoked so other
// sessions have to log in again.
func (s *PasswordService) Change(ctx context.Context, accountID, currentPassword, newPassword string) error {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, acct.PasswordHash); err != nil {
		return ErrWrongPassword
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.Store.Accounts().UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return err
	}

	return s.Tokens.RevokeAll(ctx, accountID)
}

// Forgot starts the reset flow for an email address. It always succeeds
// from the caller's point of view: whether or not the address is
// registered, the response is identical. When the account exists a reset
// token is generated and its fingerprint stored; delivery is out of band,
// so the link is only logged.
func (s *PasswordService) Forgot(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil
	}

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.resetTTL())
	if err := s.Store.Accounts().SetResetToken(ctx, acct.ID, cryptox.FingerprintToken(token), expiresAt); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.FrontendURL, token)
	log.Debug("password reset requested",
		"account_id", acct.ID,
		"reset_url", resetURL,
		"expires_at", expiresAt,
	)

	return nil
}

// Reset completes the flow: the presented token is matched by fingerprint
// against a live reset record, the new password is validated and stored,
// the token is consumed and all sessions are revoked, in one transaction.
func (s *PasswordService) Reset(ctx context.Context, token, newPassword string) error {
	now := time.Now().UTC()

	acct, err := s.Store.Accounts().GetAccountByResetTokenHash(ctx, cryptox.FingerprintToken(token), now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
			return err
		}
		if err := tx.Accounts().ClearResetToken(ctx, acct.ID); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeAccountRefreshTokens(ctx, acct.ID)
	})
}

func (s *PasswordService) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return DefaultResetTokenTTL
}
