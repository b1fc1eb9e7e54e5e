package domain

// TwoFactorSetup is returned from TOTP enrolment. The secret is shown to
// the user exactly once; 2FA stays disabled until a code is verified.
type TwoFactorSetup struct {
	Secret     string
	OTPAuthURL string
}
