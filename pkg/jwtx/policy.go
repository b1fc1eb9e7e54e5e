package jwtx

import "time"

// Default token TTL constants. These can be overridden via configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 4 * time.Hour

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenPolicy is the single source of truth for token lifetimes. Every
// issuance path takes its TTLs from here so access and refresh expiries
// can never drift apart between call sites.
type TokenPolicy struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// DefaultTokenPolicy returns the policy with default lifetimes.
func DefaultTokenPolicy() TokenPolicy {
	return TokenPolicy{
		AccessTTL:  DefaultAccessTokenTTL,
		RefreshTTL: DefaultRefreshTokenTTL,
	}
}

// WithDefaults fills any unset lifetime with its default value.
func (p TokenPolicy) WithDefaults() TokenPolicy {
	if p.AccessTTL <= 0 {
		p.AccessTTL = DefaultAccessTokenTTL
	}
	if p.RefreshTTL <= 0 {
		p.RefreshTTL = DefaultRefreshTokenTTL
	}
	return p
}
