package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/cvforge/cvforge/internal/auth/domain"
	"github.com/cvforge/cvforge/internal/auth/store"
	"github.com/cvforge/cvforge/pkg/cryptox"
	"github.com/cvforge/cvforge/pkg/idx"
	"github.com/cvforge/cvforge/pkg/slogx"
)

// Lockout defaults. Overridable via config.
const (
	DefaultMaxLoginAttempts = 5
	DefaultLockoutWindow    = 15 * time.Minute
)

// AccountService handles registration and the login state machine:
// credentials-check, lockout-check, password-check, then either a
// two-factor challenge or a token pair.
type AccountService struct {
	Store  store.Store
	Tokens *TokenService

	// MaxLoginAttempts failed passwords within the window lock the
	// account for LockoutWindow. Zero values fall back to defaults.
	MaxLoginAttempts int
	LockoutWindow    time.Duration
}

// RegisterParams are the inputs for account creation.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Phone    *string
}

// LoginResult is the outcome of a successful credential check. When the
// account has 2FA enabled, Pair is nil and TwoFactorRequired is set; the
// client must complete the challenge to get tokens.
type LoginResult struct {
	Account           domain.Account
	Pair              *domain.TokenPair
	TwoFactorRequired bool
}

// Register validates inputs, hashes the password and creates the account,
// then immediately issues a token pair so the user lands signed in.
func (s *AccountService) Register(ctx context.Context, p RegisterParams) (domain.Account, *domain.TokenPair, error) {
	email, err := normalizeEmail(p.Email)
	if err != nil {
		return domain.Account{}, nil, ErrInvalidEmail
	}
	if strings.TrimSpace(p.Name) == "" {
		return domain.Account{}, nil, errors.New("name is required")
	}
	if err := ValidatePassword(p.Password); err != nil {
		return domain.Account{}, nil, err
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.Account{}, nil, err
	}

	now := time.Now().UTC()
	acct := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(p.Name),
		Phone:        p.Phone,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, nil, ErrEmailTaken
		}
		return domain.Account{}, nil, err
	}

	pair, err := s.Tokens.IssuePair(ctx, acct)
	if err != nil {
		return domain.Account{}, nil, err
	}

	return acct, pair, nil
}

// Login runs the interactive login state machine.
//
// Missing accounts, inactive accounts and bad passwords all collapse into
// ErrInvalidCredentials so responses never confirm whether an email is
// registered. A lockout answers ErrAccountLocked regardless of whether
// the presented password was correct.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !acct.IsActive {
		return nil, ErrInvalidCredentials
	}

	if acct.Locked(now) {
		return nil, ErrAccountLocked
	}

	if err := cryptox.VerifyPassword(password, acct.PasswordHash); err != nil {
		attempts, lockedUntil, ferr := s.Store.Accounts().RecordFailedLogin(
			ctx, acct.ID, s.maxAttempts(), s.lockWindow(), now,
		)
		if ferr != nil {
			log.Error("failed to record failed login", "account_id", acct.ID, "err", ferr)
		} else if lockedUntil != nil {
			log.Warn("account locked after repeated failures",
				"account_id", acct.ID,
				"attempts", attempts,
				"locked_until", lockedUntil,
			)
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.Store.Accounts().MarkLoginSuccess(ctx, acct.ID, now); err != nil {
		return nil, err
	}

	if acct.TwoFactorEnabled {
		return &LoginResult{Account: acct, TwoFactorRequired: true}, nil
	}

	pair, err := s.Tokens.IssuePair(ctx, acct)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Account: acct, Pair: pair}, nil
}

// GetAccount returns the account by id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	return s.Store.Accounts().GetAccountByID(ctx, id)
}

func (s *AccountService) maxAttempts() int {
	if s.MaxLoginAttempts > 0 {
		return s.MaxLoginAttempts
	}
	return DefaultMaxLoginAttempts
}

func (s *AccountService) lockWindow() time.Duration {
	if s.LockoutWindow > 0 {
		return s.LockoutWindow
	}
	return DefaultLockoutWindow
}

// ValidatePassword enforces the password policy: at least 8 characters
// including an upper-case letter, a lower-case letter, a digit and a
// special character.
func ValidatePassword(pw string) error {
	if len(pw) < 8 {
		return ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return ErrWeakPassword
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
