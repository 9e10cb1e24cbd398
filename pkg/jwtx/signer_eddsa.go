package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/till/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// EdDSAKey signs with an Ed25519 private key and verifies with its public half.
type EdDSAKey struct {
	kid string
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

// NewEdDSAKey loads an Ed25519 private key from a PKCS8 PEM.
func NewEdDSAKey(kid string, pemKey []byte) (*EdDSAKey, error) {
	key, err := cryptox.ParseEd25519Key(pemKey)
	if err != nil {
		return nil, &SigningError{Err: err}
	}

	return &EdDSAKey{
		kid: kid,
		key: key,
		pub: key.Public().(ed25519.PublicKey),
	}, nil
}

// GenerateEdDSAKey creates a throwaway key. Tokens signed with it die with
// the process, which is what dev and tests want.
func GenerateEdDSAKey(kid string) (*EdDSAKey, error) {
	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, &SigningError{Err: err}
	}
	return NewEdDSAKey(kid, pemKey)
}

func (k *EdDSAKey) Alg() string { return AlgEdDSA }
func (k *EdDSAKey) KID() string { return k.kid }

// Sign takes your claims and turns them into a signed JWT string.
func (k *EdDSAKey) Sign(claims Claims) (string, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}

	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = k.kid

	raw, err := t.SignedString(k.key)
	if err != nil {
		return "", &SigningError{Err: err}
	}
	return raw, nil
}

// Verify checks the Ed25519 signature and returns the decoded claims.
func (k *EdDSAKey) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := parser(AlgEdDSA).ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		// Only one key is live at a time, a foreign kid can't be ours
		if kid, _ := t.Header["kid"].(string); kid != k.kid {
			return nil, fmt.Errorf("unknown kid %q", kid)
		}
		return k.pub, nil
	})
	if err != nil {
		return Claims{}, parseErr(err)
	}
	return claims, nil
}

// Validate does a quick sanity check to make sure we actually have keys.
func (k *EdDSAKey) Validate() error {
	if k == nil || k.key == nil || k.pub == nil {
		return &SigningError{Err: errors.New("nil Ed25519 key")}
	}
	if len(k.key) != ed25519.PrivateKeySize {
		return &SigningError{Err: errors.New("invalid Ed25519 private key size")}
	}
	if len(k.pub) != ed25519.PublicKeySize {
		return &SigningError{Err: errors.New("invalid Ed25519 public key size")}
	}
	return nil
}
