package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTLMinutes is the access token lifetime used when none is configured.
const DefaultTTLMinutes = 60

// Claims are the access-token claims. Only the subject and expiry are
// guaranteed to be present; consumers must not assume anything else exists.
type Claims struct {
	jwt.RegisteredClaims

	// Ctx carries caller supplied custom claims. Empty for POS logins today
	// but kept so other services can attach context without a schema change.
	Ctx map[string]any `json:"ctx,omitempty"`
}

// NewClaims builds claims for subject issued at now and expiring after ttl.
func NewClaims(subject, issuer string, ttl time.Duration, custom map[string]any, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Ctx: custom,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. The
// denylist is keyed on it so it has to be unique per issued token.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiry fails with ErrExpired once now is strictly after exp.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrMissingClaim
	}

	if now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	return nil
}

// Expiry returns the exp claim or the zero time when it is absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Remaining reports how long the token has left at now, never negative.
func (c *Claims) Remaining(now time.Time) time.Duration {
	d := c.Expiry().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
