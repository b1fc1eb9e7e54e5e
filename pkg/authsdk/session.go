package authsdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshTimeout bounds the shared refresh call so a hung exchange cannot
// block every queued request behind it.
const refreshTimeout = 15 * time.Second

// Session represents an authenticated session. Requests that come back
// 401 trigger a refresh-token exchange and a single retry; concurrent
// 401s coalesce into one exchange and all callers observe its outcome.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	user         *UserInfo

	refreshGroup singleflight.Group
}

// newSession creates a session from a token response.
func newSession(client *Client, tokenResp *TokenResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  tokenResp.AccessToken,
		refreshToken: tokenResp.RefreshToken,
		user:         tokenResp.User,
	}
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns the cached user from the last token response or identity
// check, or nil when none has been seen yet.
func (s *Session) User() *UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Valid reports whether the session still holds credentials.
func (s *Session) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}

// Me fetches the authenticated account.
func (s *Session) Me(ctx context.Context) (*UserInfo, error) {
	var out MeResponse
	if err := s.do(ctx, http.MethodGet, "/api/auth/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &out.User
	s.mu.Unlock()

	return &out.User, nil
}

// Check is a background identity check. Transport failures are transient
// and leave the session untouched; only an explicit rejection of the
// credentials clears it, reported as ErrSessionExpired.
func (s *Session) Check(ctx context.Context) error {
	_, err := s.Me(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSessionExpired) {
		return ErrSessionExpired
	}
	if errors.Is(err, ErrTransient) {
		return err
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		s.clear()
		return ErrSessionExpired
	}

	// Anything else (5xx, decoding) is treated as transient too.
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// Logout revokes this session's refresh token and clears the session.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	rt := s.refreshToken
	s.mu.RUnlock()

	err := s.do(ctx, http.MethodPost, "/api/auth/logout", LogoutRequest{RefreshToken: rt}, nil, http.StatusOK)
	s.clear()
	return err
}

// LogoutEverywhere revokes every refresh token of the account and clears
// the session.
func (s *Session) LogoutEverywhere(ctx context.Context) error {
	err := s.do(ctx, http.MethodPost, "/api/auth/logout", LogoutRequest{}, nil, http.StatusOK)
	s.clear()
	return err
}

// ChangePassword updates the account password. The server revokes every
// refresh token afterwards, so the session is cleared and the caller must
// log in again.
func (s *Session) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	err := s.do(ctx, http.MethodPost, "/api/auth/change-password", ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}, nil, http.StatusOK)
	if err != nil {
		return err
	}

	s.clear()
	return nil
}

// SetupTwoFactor starts TOTP enrolment and returns the secret and
// otpauth:// URL for the authenticator app.
func (s *Session) SetupTwoFactor(ctx context.Context) (*TwoFactorSetupResponse, error) {
	var out TwoFactorSetupResponse
	if err := s.do(ctx, http.MethodPost, "/api/2fa/setup", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTwoFactor completes enrolment with a code from the authenticator.
func (s *Session) VerifyTwoFactor(ctx context.Context, code string) error {
	return s.do(ctx, http.MethodPost, "/api/2fa/verify", TwoFactorVerifyRequest{Code: code}, nil, http.StatusOK)
}

// DisableTwoFactor turns 2FA off. A valid TOTP code proves the caller
// still holds the authenticator.
func (s *Session) DisableTwoFactor(ctx context.Context, code string) error {
	return s.do(ctx, http.MethodPost, "/api/2fa/disable", TwoFactorVerifyRequest{Code: code}, nil, http.StatusOK)
}

// TwoFactorStatus reports whether 2FA is enabled for the account.
func (s *Session) TwoFactorStatus(ctx context.Context) (bool, error) {
	var out TwoFactorStatusResponse
	if err := s.do(ctx, http.MethodGet, "/api/2fa/status", nil, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Enabled, nil
}

// do performs an authenticated request. A 401 triggers one refresh and
// one retry with the new access token.
func (s *Session) do(
	ctx context.Context,
	method, path string,
	payload, target any,
	expectedStatus int,
) error {
	failed := s.AccessToken()
	resp, err := s.client.doJSON(ctx, method, path, payload, failed)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		token, rerr := s.refresh(ctx, failed)
		if rerr != nil {
			return rerr
		}

		resp, err = s.client.doJSON(ctx, method, path, payload, token)
		if err != nil {
			return err
		}
	}

	return decodeJSON(resp, target, expectedStatus)
}

// refresh exchanges the refresh token for a new pair. Concurrent callers
// share a single in-flight exchange. A rejected refresh token clears the
// session and yields ErrSessionExpired; transport failures are transient
// and leave the stored tokens alone.
func (s *Session) refresh(ctx context.Context, failed string) (string, error) {
	v, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		s.mu.RLock()
		current := s.accessToken
		rt := s.refreshToken
		s.mu.RUnlock()

		// Another caller already rotated the tokens; reuse its result.
		if current != "" && current != failed {
			return current, nil
		}

		if rt == "" {
			return nil, ErrSessionExpired
		}

		// Detach from the triggering caller's cancellation: the result is
		// shared, so one impatient caller must not fail the whole queue.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		tokenResp, err := s.client.RefreshToken(rctx, rt)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
				s.clear()
				return nil, ErrSessionExpired
			}
			if errors.Is(err, ErrTransient) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrTransient, err)
		}

		s.mu.Lock()
		s.accessToken = tokenResp.AccessToken
		s.refreshToken = tokenResp.RefreshToken
		if tokenResp.User != nil {
			s.user = tokenResp.User
		}
		s.mu.Unlock()

		return tokenResp.AccessToken, nil
	})
	if err != nil {
		return "", err
	}

	token, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: unexpected refresh result", ErrTransient)
	}
	return token, nil
}

func (s *Session) clear() {
	s.mu.Lock()
	s.accessToken = ""
	s.refreshToken = ""
	s.user = nil
	s.mu.Unlock()
}
