package auth_test

import (
	"net/http"
	"testing"

	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRegisterAndFetchIdentity tests the registration flow:
// 1. Register a new account
// 2. Tokens are issued immediately
// 3. /me returns the registered identity
func TestRegisterAndFetchIdentity(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)

	session := registerAccount(t, client, "alice@example.com", "Alice Example")
	assertSessionTokens(t, session)

	user := session.User()
	require.NotNil(t, user, "Registration should return the user")
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, "Alice Example", user.Name)
	require.False(t, user.TwoFactorEnabled, "New accounts start without 2FA")

	t.Logf("Registered account %s", user.ID)

	// /me round-trips the same identity
	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, user.ID, me.ID)
	require.Equal(t, user.Email, me.Email)
}

// TestRegisterDuplicateEmail verifies that an email can only be registered once,
// including after case and whitespace normalization.
func TestRegisterDuplicateEmail(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)

	registerAccount(t, client, "bob@example.com", "Bob Example")

	_, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Email:    "  Bob@Example.COM ",
		Password: testPassword,
		Name:     "Bob Again",
	})
	assertAPIErrorCode(t, err, http.StatusBadRequest, "", "Duplicate registration")

	t.Logf("Duplicate registration rejected: %v", err)
}

// TestRegisterRejectsWeakPassword verifies the password policy is enforced
// at the edge with a machine-readable validation code.
func TestRegisterRejectsWeakPassword(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)

	weakPasswords := []string{
		"short1!",        // too short
		"alllowercase1!", // no uppercase
		"ALLUPPERCASE1!", // no lowercase
		"NoDigitsHere!",  // no digit
		"NoSpecials123",  // no special character
	}

	for _, password := range weakPasswords {
		_, err := client.Register(t.Context(), authsdk.RegisterRequest{
			Email:    "carol@example.com",
			Password: password,
			Name:     "Carol Example",
		})
		assertAPIErrorCode(t, err, http.StatusBadRequest, authsdk.ErrorCodeValidationError,
			"Weak password "+password)
	}
}
