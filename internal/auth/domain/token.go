package domain

import "time"

// RefreshToken is the server-side record of an opaque refresh token.
// Only the SHA-256 fingerprint of the token is persisted.
type RefreshToken struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPair is what a successful authentication hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}
