package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

const pemTypePKCS8 = "PRIVATE KEY"

var (
	ErrInvalidPEM    = errors.New("cryptox: invalid PEM block")
	ErrNotPKCS8      = errors.New("cryptox: Ed25519 keys must be PKCS8")
	ErrNotEd25519Key = errors.New("cryptox: not an Ed25519 private key")
)

// GenerateEd25519Key returns a fresh Ed25519 private key as a PKCS8 PEM.
func GenerateEd25519Key() ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate Ed25519 key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("cryptox: marshal PKCS8 key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: pemTypePKCS8, Bytes: der}), nil
}

// ParseEd25519Key is the inverse of GenerateEd25519Key.
func ParseEd25519Key(pemKey []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, ErrInvalidPEM
	}
	if block.Type != pemTypePKCS8 {
		return nil, fmt.Errorf("%w: got %q", ErrNotPKCS8, block.Type)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPKCS8, err)
	}

	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, ErrNotEd25519Key
	}
	return key, nil
}
