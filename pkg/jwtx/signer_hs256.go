package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AlgHS256 = "HS256"
	AlgEdDSA = "EdDSA"
)

var (
	ErrEmptySecret    = errors.New("jwtx: empty HS256 secret")
	ErrUnsupportedAlg = errors.New("jwtx: unsupported algorithm")
)

// HS256Key signs and verifies with a shared HMAC-SHA256 secret.
type HS256Key struct {
	kid    string
	secret []byte
}

// NewHS256Key wraps secret. An empty secret is rejected up front so the
// service refuses to start rather than failing on first login.
func NewHS256Key(kid string, secret []byte) (*HS256Key, error) {
	if len(secret) == 0 {
		return nil, &SigningError{Err: ErrEmptySecret}
	}

	cp := make([]byte, len(secret))
	copy(cp, secret)
	return &HS256Key{kid: kid, secret: cp}, nil
}

func (k *HS256Key) Alg() string { return AlgHS256 }
func (k *HS256Key) KID() string { return k.kid }

// Sign serialises claims into a compact HS256 token.
func (k *HS256Key) Sign(claims Claims) (string, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if k.kid != "" {
		t.Header["kid"] = k.kid
	}

	raw, err := t.SignedString(k.secret)
	if err != nil {
		return "", &SigningError{Err: err}
	}
	return raw, nil
}

// Verify checks the HMAC and returns the decoded claims.
func (k *HS256Key) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := parser(AlgHS256).ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return k.secret, nil
	})
	if err != nil {
		return Claims{}, parseErr(err)
	}
	return claims, nil
}

// Validate does a quick sanity check to make sure we actually have a secret.
func (k *HS256Key) Validate() error {
	if k == nil || len(k.secret) == 0 {
		return &SigningError{Err: ErrEmptySecret}
	}
	return nil
}
