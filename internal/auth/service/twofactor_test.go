package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestTwoFactorEnrolmentAndLogin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	accounts := newAccountService(t, st)
	twofactor := &TwoFactorService{Store: st, Tokens: accounts.Tokens, Issuer: testIssuer}

	acct, _ := registerAccount(t, accounts, "totp@example.com", "Str0ng!pass")

	setup, err := twofactor.Setup(ctx, acct.ID)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")

	// Enrolment is pending until verified; login stays single factor.
	res, err := accounts.Login(ctx, "totp@example.com", "Str0ng!pass")
	require.NoError(t, err)
	require.False(t, res.TwoFactorRequired)

	t.Run("wrong code does not enable", func(t *testing.T) {
		require.ErrorIs(t, twofactor.Verify(ctx, acct.ID, "000000"), ErrInvalidTOTPCode)

		enabled, err := twofactor.Status(ctx, acct.ID)
		require.NoError(t, err)
		require.False(t, enabled)
	})

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, twofactor.Verify(ctx, acct.ID, code))

	enabled, err := twofactor.Status(ctx, acct.ID)
	require.NoError(t, err)
	require.True(t, enabled)

	// Login now stops at the challenge instead of minting tokens.
	res, err = accounts.Login(ctx, "totp@example.com", "Str0ng!pass")
	require.NoError(t, err)
	require.True(t, res.TwoFactorRequired)
	require.Nil(t, res.Pair)

	t.Run("challenge rejects a wrong code", func(t *testing.T) {
		_, _, err := twofactor.ValidateLogin(ctx, acct.ID, "000000")
		require.ErrorIs(t, err, ErrInvalidTOTPCode)
	})

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	pair, got, err := twofactor.ValidateLogin(ctx, acct.ID, code)
	require.NoError(t, err)
	require.Equal(t, acct.ID, got.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestTwoFactorSetupGuards(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	accounts := newAccountService(t, st)
	twofactor := &TwoFactorService{Store: st, Tokens: accounts.Tokens, Issuer: testIssuer}

	acct, _ := registerAccount(t, accounts, "guards@example.com", "Str0ng!pass")

	t.Run("verify before setup", func(t *testing.T) {
		err := twofactor.Verify(ctx, acct.ID, "123456")
		require.ErrorIs(t, err, ErrTwoFactorNotEnrolled)
	})

	setup, err := twofactor.Setup(ctx, acct.ID)
	require.NoError(t, err)

	t.Run("re-setup replaces the pending secret", func(t *testing.T) {
		replacement, err := twofactor.Setup(ctx, acct.ID)
		require.NoError(t, err)
		require.NotEqual(t, setup.Secret, replacement.Secret)
		setup = replacement
	})

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, twofactor.Verify(ctx, acct.ID, code))

	t.Run("setup refused once enabled", func(t *testing.T) {
		_, err := twofactor.Setup(ctx, acct.ID)
		require.ErrorIs(t, err, ErrTwoFactorAlreadyEnabled)
	})

	t.Run("challenge refused when not enabled", func(t *testing.T) {
		other, _ := registerAccount(t, accounts, "plain@example.com", "Str0ng!pass")
		_, _, err := twofactor.ValidateLogin(ctx, other.ID, "123456")
		require.ErrorIs(t, err, ErrTwoFactorNotEnabled)
	})
}

func TestTwoFactorDisable(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	accounts := newAccountService(t, st)
	twofactor := &TwoFactorService{Store: st, Tokens: accounts.Tokens, Issuer: testIssuer}

	acct, _ := registerAccount(t, accounts, "disable@example.com", "Str0ng!pass")

	setup, err := twofactor.Setup(ctx, acct.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, twofactor.Verify(ctx, acct.ID, code))

	t.Run("requires a valid code", func(t *testing.T) {
		err := twofactor.Disable(ctx, acct.ID, "000000")
		require.ErrorIs(t, err, ErrInvalidTOTPCode)

		// The account password is not a code.
		err = twofactor.Disable(ctx, acct.ID, "Str0ng!pass")
		require.ErrorIs(t, err, ErrInvalidTOTPCode)

		enabled, err := twofactor.Status(ctx, acct.ID)
		require.NoError(t, err)
		require.True(t, enabled)
	})

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, twofactor.Disable(ctx, acct.ID, code))

	enabled, err := twofactor.Status(ctx, acct.ID)
	require.NoError(t, err)
	require.False(t, enabled)

	// Secret is gone, so the state is fully reset.
	stored, err := st.Accounts().GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Nil(t, stored.TwoFactorSecret)

	t.Run("disable again fails", func(t *testing.T) {
		err := twofactor.Disable(ctx, acct.ID, code)
		require.ErrorIs(t, err, ErrTwoFactorNotEnabled)
	})
}

func TestHousekeepingLifecycle(t *testing.T) {
	st := newTestStore(t)
	accounts := newAccountService(t, st)
	_, _ = registerAccount(t, accounts, "sweep@example.com", "Str0ng!pass")

	hk := NewHousekeepingService(st, testLogger(), time.Hour)
	hk.Start()
	hk.Stop()
}
