package jwtx

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	Validate() error
}

// SigningKey signs tokens and verifies the ones it signed. HS256 uses the
// same secret both ways, EdDSA keeps the public half for verification.
type SigningKey interface {
	Signer
	Verifier
}

// NewSigningKey builds the key for alg. HS256 takes secret, EdDSA takes a
// PKCS8 PEM.
func NewSigningKey(alg, kid string, secret, pemKey []byte) (SigningKey, error) {
	switch alg {
	case AlgHS256:
		return NewHS256Key(kid, secret)
	case AlgEdDSA:
		return NewEdDSAKey(kid, pemKey)
	default:
		return nil, &SigningError{Err: ErrUnsupportedAlg}
	}
}
