package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAccountService(t, st)

	acct, pair := registerAccount(t, svc, "alice@example.com", "Str0ng!pass")
	require.Equal(t, "alice@example.com", acct.Email)
	require.True(t, acct.IsActive)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	res, err := svc.Login(ctx, "alice@example.com", "Str0ng!pass")
	require.NoError(t, err)
	require.False(t, res.TwoFactorRequired)
	require.NotNil(t, res.Pair)

	// Stored password is hashed, never plaintext.
	stored, err := st.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.NotEqual(t, "Str0ng!pass", stored.PasswordHash)
	require.NotNil(t, stored.LastLoginAt)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAccountService(t, st)

	acct, _, err := svc.Register(ctx, RegisterParams{
		Email:    "  Bob@Example.COM ",
		Password: "Str0ng!pass",
		Name:     "Bob",
	})
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", acct.Email)

	// Login matches case-insensitively through the same normalization.
	_, err = svc.Login(ctx, "BOB@example.com", "Str0ng!pass")
	require.NoError(t, err)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAccountService(t, st)

	registerAccount(t, svc, "dup@example.com", "Str0ng!pass")

	_, _, err := svc.Register(ctx, RegisterParams{
		Email:    "dup@example.com",
		Password: "An0ther!pass",
		Name:     "Dup",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAccountService(t, st)

	t.Run("rejects malformed email", func(t *testing.T) {
		_, _, err := svc.Register(ctx, RegisterParams{Email: "not-an-email", Password: "Str0ng!pass", Name: "X"})
		require.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("rejects weak password", func(t *testing.T) {
		_, _, err := svc.Register(ctx, RegisterParams{Email: "weak@example.com", Password: "short", Name: "X"})
		require.ErrorIs(t, err, ErrWeakPassword)
	})
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAccountService(t, st)

	registerAccount(t, svc, "carol@example.com", "Str0ng!pass")

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "carol@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email looks identical", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "Str0ng!pass")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAccountService(t, st)
	svc.MaxLoginAttempts = 5
	svc.LockoutWindow = 15 * time.Minute

	acct, _ := registerAccount(t, svc, "locked@example.com", "Str0ng!pass")

	// Five failed attempts; each reads as invalid credentials.
	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, "locked@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i+1)
	}

	stored, err := st.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockedUntil)

	// The sixth attempt is refused outright, even with the right password.
	_, err = svc.Login(ctx, "locked@example.com", "Str0ng!pass")
	require.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginSuccessResetsFailureCounter(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAccountService(t, st)

	acct, _ := registerAccount(t, svc, "counter@example.com", "Str0ng!pass")

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, "counter@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := svc.Login(ctx, "counter@example.com", "Str0ng!pass")
	require.NoError(t, err)

	stored, err := st.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Zero(t, stored.FailedLoginAttempts)
	require.Nil(t, stored.LockedUntil)
}

func TestLoginExpiredLockClears(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAccountService(t, st)
	svc.MaxLoginAttempts = 2
	svc.LockoutWindow = time.Millisecond

	registerAccount(t, svc, "briefly@example.com", "Str0ng!pass")

	for i := 0; i < 2; i++ {
		_, err := svc.Login(ctx, "briefly@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	time.Sleep(5 * time.Millisecond)

	// Lock has expired, correct password goes through.
	_, err := svc.Login(ctx, "briefly@example.com", "Str0ng!pass")
	require.NoError(t, err)
}

func TestValidatePasswordPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"meets policy", "Str0ng!pass", true},
		{"too short", "S0!a", false},
		{"no upper", "str0ng!pass", false},
		{"no lower", "STR0NG!PASS", false},
		{"no digit", "Strong!pass", false},
		{"no special", "Str0ngpass1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrWeakPassword)
			}
		})
	}
}
