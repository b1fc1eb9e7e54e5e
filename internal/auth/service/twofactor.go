package service

import (
	"context"
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/cvforge/cvforge/internal/auth/domain"
	"github.com/cvforge/cvforge/internal/auth/store"
)

// TwoFactorService manages TOTP enrolment and the login-time challenge.
// Enrolment is two-step: Setup stores a pending secret, Verify proves
// possession of it before 2FA actually turns on.
type TwoFactorService struct {
	Store  store.Store
	Tokens *TokenService

	// Issuer is the label shown in authenticator apps.
	Issuer string
}

// Setup generates a fresh TOTP secret for the account and stores it
// without enabling 2FA yet. Re-running Setup before Verify replaces the
// pending secret. Already-enabled accounts must disable first.
func (s *TwoFactorService) Setup(ctx context.Context, accountID string) (domain.TwoFactorSetup, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return domain.TwoFactorSetup{}, err
	}
	if acct.TwoFactorEnabled {
		return domain.TwoFactorSetup{}, ErrTwoFactorAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: acct.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TwoFactorSetup{}, err
	}

	if err := s.Store.Accounts().SetTwoFactorSecret(ctx, accountID, key.Secret()); err != nil {
		return domain.TwoFactorSetup{}, err
	}

	return domain.TwoFactorSetup{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
	}, nil
}

// Verify completes enrolment by validating a code against the pending
// secret, then flips 2FA on.
func (s *TwoFactorService) Verify(ctx context.Context, accountID, code string) error {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.TwoFactorEnabled {
		return ErrTwoFactorAlreadyEnabled
	}
	if acct.TwoFactorSecret == nil {
		return ErrTwoFactorNotEnrolled
	}

	if !totp.Validate(code, *acct.TwoFactorSecret) {
		return ErrInvalidTOTPCode
	}

	return s.Store.Accounts().EnableTwoFactor(ctx, accountID)
}

// ValidateLogin finishes a two-factor login: the password check already
// passed and the client now presents a TOTP code. A valid code yields a
// token pair.
func (s *TwoFactorService) ValidateLogin(ctx context.Context, accountID, code string) (*domain.TokenPair, domain.Account, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.Account{}, ErrInvalidCredentials
		}
		return nil, domain.Account{}, err
	}

	now := time.Now().UTC()
	if !acct.CanAuthenticate(now) {
		if acct.Locked(now) {
			return nil, domain.Account{}, ErrAccountLocked
		}
		return nil, domain.Account{}, ErrInvalidCredentials
	}

	if !acct.TwoFactorEnabled || acct.TwoFactorSecret == nil {
		return nil, domain.Account{}, ErrTwoFactorNotEnabled
	}

	if !totp.Validate(code, *acct.TwoFactorSecret) {
		return nil, domain.Account{}, ErrInvalidTOTPCode
	}

	if err := s.Store.Accounts().MarkLoginSuccess(ctx, acct.ID, now); err != nil {
		return nil, domain.Account{}, err
	}

	pair, err := s.Tokens.IssuePair(ctx, acct)
	if err != nil {
		return nil, domain.Account{}, err
	}

	return pair, acct, nil
}

// Disable turns 2FA off after the account proves it still holds the
// authenticator by presenting a valid code, and clears the stored secret.
func (s *TwoFactorService) Disable(ctx context.Context, accountID, code string) error {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !acct.TwoFactorEnabled || acct.TwoFactorSecret == nil {
		return ErrTwoFactorNotEnabled
	}

	if !totp.Validate(code, *acct.TwoFactorSecret) {
		return ErrInvalidTOTPCode
	}

	return s.Store.Accounts().DisableTwoFactor(ctx, accountID)
}

// Status reports whether 2FA is enabled for the account.
func (s *TwoFactorService) Status(ctx context.Context, accountID string) (bool, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	return acct.TwoFactorEnabled, nil
}
