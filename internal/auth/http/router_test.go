package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/cvforge/cvforge/internal/auth/service"
	"github.com/cvforge/cvforge/internal/auth/store/drivers/sqlite"
	"github.com/cvforge/cvforge/pkg/authsdk"
	"github.com/cvforge/cvforge/pkg/cryptox"
	"github.com/cvforge/cvforge/pkg/httpx"
	"github.com/cvforge/cvforge/pkg/jwtx"
	"github.com/cvforge/cvforge/pkg/slogx"
)

const testSecret = "handler-test-secret-32-bytes-min"

func TestMain(m *testing.M) {
	// Set up a temporary pepper file for testing
	pepperPath := filepath.Join(os.TempDir(), "http-test-pepper")
	cryptox.SetPepperPath(pepperPath)
	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	// Relax rate limits so flow tests are not throttled.
	generous := httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}
	httpx.StrictLimit = generous
	httpx.ModerateLimit = generous
	httpx.LenientLimit = generous
	httpx.PublicLimit = generous

	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(testSecret, "cvforge-auth")
	require.NoError(t, err)

	tokens := &service.TokenService{
		Store:  st,
		Signer: signer,
		Issuer: "cvforge-auth",
		Policy: jwtx.DefaultTokenPolicy(),
	}

	logger := slogx.New(slogx.Config{Service: "auth-test", Level: "error", Format: "text"})

	router := NewRouter(verifier, "test", "test", st, logger)
	router.AccountService = &service.AccountService{Store: st, Tokens: tokens}
	router.TokenService = tokens
	router.PasswordService = &service.PasswordService{Store: st, Tokens: tokens, FrontendURL: "https://app.example"}
	router.TwoFactorService = &service.TwoFactorService{Store: st, Tokens: tokens, Issuer: "cvforge"}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, payload any, bearer string) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func register(t *testing.T, srv *httptest.Server, email, password string) authsdk.TokenResponse {
	t.Helper()

	resp, raw := doJSON(t, srv, http.MethodPost, "/api/auth/register", authsdk.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     "Test User",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)

	var tokens authsdk.TokenResponse
	require.NoError(t, json.Unmarshal(raw, &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.NotNil(t, tokens.User)
	return tokens
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	tokens := register(t, srv, "alice@example.com", "Str0ng!pass")
	require.Equal(t, "alice@example.com", tokens.User.Email)

	t.Run("duplicate email", func(t *testing.T) {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/register", authsdk.RegisterRequest{
			Email:    "alice@example.com",
			Password: "An0ther!pass",
			Name:     "Alice Again",
		}, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("weak password", func(t *testing.T) {
		resp, raw := doJSON(t, srv, http.MethodPost, "/api/auth/register", authsdk.RegisterRequest{
			Email:    "bob@example.com",
			Password: "short",
			Name:     "Bob",
		}, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errResp authsdk.ErrorResponse
		require.NoError(t, json.Unmarshal(raw, &errResp))
		require.Equal(t, authsdk.ErrorCodeValidationError, errResp.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/register", bytes.NewReader([]byte("{")))
		require.NoError(t, err)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "carol@example.com", "Str0ng!pass")

	t.Run("success", func(t *testing.T) {
		resp, raw := doJSON(t, srv, http.MethodPost, "/api/auth/login", authsdk.LoginRequest{
			Email:    "carol@example.com",
			Password: "Str0ng!pass",
		}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var tokens authsdk.TokenResponse
		require.NoError(t, json.Unmarshal(raw, &tokens))
		require.NotEmpty(t, tokens.AccessToken)
		require.Equal(t, "carol@example.com", tokens.User.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/login", authsdk.LoginRequest{
			Email:    "carol@example.com",
			Password: "wrong",
		}, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown email is indistinguishable", func(t *testing.T) {
		resp, raw := doJSON(t, srv, http.MethodPost, "/api/auth/login", authsdk.LoginRequest{
			Email:    "ghost@example.com",
			Password: "Str0ng!pass",
		}, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errResp authsdk.ErrorResponse
		require.NoError(t, json.Unmarshal(raw, &errResp))
		require.Equal(t, "invalid email or password", errResp.Error)
	})
}

func TestLockoutReturns429(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "locked@example.com", "Str0ng!pass")

	for i := 0; i < 5; i++ {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/login", authsdk.LoginRequest{
			Email:    "locked@example.com",
			Password: "wrong",
		}, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "attempt %d", i+1)
	}

	// Sixth attempt is refused with 429 even though the password is right.
	resp, raw := doJSON(t, srv, http.MethodPost, "/api/auth/login", authsdk.LoginRequest{
		Email:    "locked@example.com",
		Password: "Str0ng!pass",
	}, "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var errResp authsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errResp))
	require.Equal(t, authsdk.ErrorCodeAccountLocked, errResp.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	srv := newTestServer(t)
	tokens := register(t, srv, "rotate@example.com", "Str0ng!pass")

	resp, raw := doJSON(t, srv, http.MethodPost, "/api/auth/refresh-token", authsdk.RefreshRequest{
		RefreshToken: tokens.RefreshToken,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated authsdk.TokenResponse
	require.NoError(t, json.Unmarshal(raw, &rotated))
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	t.Run("reuse of rotated-out token", func(t *testing.T) {
		resp, raw := doJSON(t, srv, http.MethodPost, "/api/auth/refresh-token", authsdk.RefreshRequest{
			RefreshToken: tokens.RefreshToken,
		}, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var errResp authsdk.ErrorResponse
		require.NoError(t, json.Unmarshal(raw, &errResp))
		require.Equal(t, authsdk.ErrorCodeInvalidRefresh, errResp.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/refresh-token", authsdk.RefreshRequest{}, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestMeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	tokens := register(t, srv, "me@example.com", "Str0ng!pass")

	t.Run("requires bearer", func(t *testing.T) {
		resp, _ := doJSON(t, srv, http.MethodGet, "/api/auth/me", nil, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("idempotent projection", func(t *testing.T) {
		resp1, raw1 := doJSON(t, srv, http.MethodGet, "/api/auth/me", nil, tokens.AccessToken)
		require.Equal(t, http.StatusOK, resp1.StatusCode)

		resp2, raw2 := doJSON(t, srv, http.MethodGet, "/api/auth/me", nil, tokens.AccessToken)
		require.Equal(t, http.StatusOK, resp2.StatusCode)
		require.JSONEq(t, string(raw1), string(raw2))

		var me authsdk.MeResponse
		require.NoError(t, json.Unmarshal(raw1, &me))
		require.Equal(t, "me@example.com", me.User.Email)
	})
}

func TestChangePasswordEndpoint(t *testing.T) {
	srv := newTestServer(t)
	tokens := register(t, srv, "change@example.com", "Str0ng!pass")

	t.Run("wrong current password", func(t *testing.T) {
		resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/change-password", authsdk.ChangePasswordRequest{
			CurrentPassword: "wrong",
			NewPassword:     "N3w!password",
		}, tokens.AccessToken)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/change-password", authsdk.ChangePasswordRequest{
		CurrentPassword: "Str0ng!pass",
		NewPassword:     "N3w!password",
	}, tokens.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Old refresh token was revoked by the change.
	resp, _ = doJSON(t, srv, http.MethodPost, "/api/auth/refresh-token", authsdk.RefreshRequest{
		RefreshToken: tokens.RefreshToken,
	}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutEndpoint(t *testing.T) {
	srv := newTestServer(t)
	tokens := register(t, srv, "logout@example.com", "Str0ng!pass")

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/auth/logout", authsdk.LogoutRequest{
		RefreshToken: tokens.RefreshToken,
	}, tokens.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/auth/refresh-token", authsdk.RefreshRequest{
		RefreshToken: tokens.RefreshToken,
	}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTwoFactorFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	tokens := register(t, srv, "totp@example.com", "Str0ng!pass")

	// Enrol.
	resp, raw := doJSON(t, srv, http.MethodPost, "/api/2fa/setup", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var setup authsdk.TwoFactorSetupResponse
	require.NoError(t, json.Unmarshal(raw, &setup))
	require.NotEmpty(t, setup.Secret)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	resp, _ = doJSON(t, srv, http.MethodPost, "/api/2fa/verify", authsdk.TwoFactorVerifyRequest{Code: code}, tokens.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Login now yields a challenge.
	resp, raw = doJSON(t, srv, http.MethodPost, "/api/auth/login", authsdk.LoginRequest{
		Email:    "totp@example.com",
		Password: "Str0ng!pass",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var challenge authsdk.TwoFactorChallengeResponse
	require.NoError(t, json.Unmarshal(raw, &challenge))
	require.True(t, challenge.RequiresTwoFactor)
	require.NotEmpty(t, challenge.UserID)

	// Complete it.
	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	resp, raw = doJSON(t, srv, http.MethodPost, "/api/2fa/validate", authsdk.TwoFactorValidateRequest{
		UserID: challenge.UserID,
		Code:   code,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pair authsdk.TokenResponse
	require.NoError(t, json.Unmarshal(raw, &pair))
	require.NotEmpty(t, pair.AccessToken)

	// Status reflects the enabled state.
	resp, raw = doJSON(t, srv, http.MethodGet, "/api/2fa/status", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status authsdk.TwoFactorStatusResponse
	require.NoError(t, json.Unmarshal(raw, &status))
	require.True(t, status.Enabled)

	// Disable wants a TOTP code; neither garbage nor the password passes.
	resp, _ = doJSON(t, srv, http.MethodPost, "/api/2fa/disable", authsdk.TwoFactorVerifyRequest{Code: "Str0ng!pass"}, pair.AccessToken)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	resp, _ = doJSON(t, srv, http.MethodPost, "/api/2fa/disable", authsdk.TwoFactorVerifyRequest{Code: code}, pair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = doJSON(t, srv, http.MethodGet, "/api/2fa/status", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &status))
	require.False(t, status.Enabled)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, srv, http.MethodGet, "/livez", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health authsdk.HealthResponse
	require.NoError(t, json.Unmarshal(raw, &health))
	require.Equal(t, "ok", health.Status)

	resp, raw = doJSON(t, srv, http.MethodGet, "/readyz", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &health))
	require.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Checks)
}
