package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the CVForge authentication service. It provides
// access to unauthenticated operations and can create authenticated Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new auth service client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a new account and returns an authenticated session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", req, "")
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusCreated); err != nil {
		return nil, err
	}

	return newSession(c, &tokenResp), nil
}

// Login authenticates with email and password. When the account has 2FA
// enabled no tokens are issued; a *TwoFactorRequiredError carrying the
// user id is returned and the login is completed with ValidateTwoFactor.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp, body)
	}

	// A 200 is either a token pair or a two-factor challenge.
	var challenge TwoFactorChallengeResponse
	if err := json.Unmarshal(body, &challenge); err == nil && challenge.RequiresTwoFactor {
		return nil, &TwoFactorRequiredError{UserID: challenge.UserID}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return newSession(c, &tokenResp), nil
}

// ValidateTwoFactor completes a two-factor login challenge with a TOTP code.
func (c *Client) ValidateTwoFactor(ctx context.Context, userID, code string) (*Session, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/2fa/validate", TwoFactorValidateRequest{
		UserID: userID,
		Code:   code,
	}, "")
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return newSession(c, &tokenResp), nil
}

// RefreshToken exchanges a refresh token for a fresh pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh-token", RefreshRequest{
		RefreshToken: refreshToken,
	}, "")
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}

// ForgotPassword starts the password reset flow. It succeeds whether or
// not the email is registered.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/auth/forgot-password", ForgotPasswordRequest{
		Email: email,
	}, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// ResetPassword completes the reset flow with a token from the reset link.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/auth/reset-password", ResetPasswordRequest{
		Token:    token,
		Password: newPassword,
	}, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// NewSessionFromTokens creates an authenticated session from existing
// tokens, e.g. restored from storage. The session still auto-refreshes.
func (c *Client) NewSessionFromTokens(accessToken, refreshToken string) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}
