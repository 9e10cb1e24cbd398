package jwtx

import (
	"time"
)

// Token is a freshly issued access token.
type Token struct {
	Raw    string
	Claims Claims
	TTL    time.Duration
}

// ExpiresIn is the lifetime reported to clients, in whole seconds.
func (t Token) ExpiresIn() int {
	return int(t.TTL / time.Second)
}

// Codec issues and decodes access tokens with a single signing key.
type Codec struct {
	key    SigningKey
	issuer string
	now    func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now, mostly for tests that need to step past exp.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithIssuer sets the iss claim on issue and enforces it on decode.
func WithIssuer(issuer string) Option {
	return func(c *Codec) { c.issuer = issuer }
}

// NewCodec returns a codec around key. A nil key is allowed; every Issue
// then fails with a SigningError.
func NewCodec(key SigningKey, opts ...Option) *Codec {
	c := &Codec{
		key: key,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTLFromMinutes converts the configured lifetime.
func TTLFromMinutes(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}

// Issue signs a token for subject that expires ttl from now.
func (c *Codec) Issue(subject string, ttl time.Duration, custom map[string]any) (Token, error) {
	if c.key == nil {
		return Token{}, &SigningError{}
	}
	if err := c.key.Validate(); err != nil {
		return Token{}, err
	}

	claims := NewClaims(subject, c.issuer, ttl, custom, c.now())
	raw, err := c.key.Sign(claims)
	if err != nil {
		return Token{}, err
	}

	return Token{Raw: raw, Claims: claims, TTL: ttl}, nil
}

// Decode verifies the signature first and only then looks at exp, so a
// forged token is always ErrInvalid and never ErrExpired.
func (c *Codec) Decode(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, invalid(ErrMalformed)
	}
	if c.key == nil {
		return Claims{}, invalid(ErrSigning)
	}

	claims, err := c.key.Verify(raw)
	if err != nil {
		return Claims{}, err
	}

	if err := claims.ValidateIssuer(c.issuer); err != nil {
		return Claims{}, invalid(err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Claims{}, invalid(ErrMissingClaim)
	}
	if err := claims.ValidateExpiry(c.now()); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// Now is the codec's clock, shared with callers computing remaining lifetimes.
func (c *Codec) Now() time.Time { return c.now() }

// Alg reports the signing algorithm or "" when no key is loaded.
func (c *Codec) Alg() string {
	if c.key == nil {
		return ""
	}
	return c.key.Alg()
}

// Ready reports whether the codec can sign tokens.
func (c *Codec) Ready() bool {
	return c.key != nil && c.key.Validate() == nil
}
