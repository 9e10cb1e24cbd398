package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks a token's signature and structure and hands back its
// claims. Time based claims are not looked at; the Codec does that after
// the signature is known to be good.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	// ErrInvalid is the umbrella for every structural or signature failure.
	ErrInvalid = errors.New("jwtx: token invalid")
	// ErrExpired is returned only for a correctly signed token past its exp.
	ErrExpired = errors.New("jwtx: token expired")
	// ErrSigning is matched by every SigningError.
	ErrSigning = errors.New("jwtx: signing key unavailable")

	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrMissingClaim = errors.New("jwtx: missing required claim")
)

// SigningError reports that a token could not be produced because the key
// is missing or unusable.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	if e.Err == nil {
		return ErrSigning.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSigning, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSigning) match any SigningError.
func (e *SigningError) Is(target error) bool { return target == ErrSigning }

// invalid wraps cause so that errors.Is matches both ErrInvalid and cause.
func invalid(cause error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, cause)
}

// parseErr folds the jwt library's parse errors into our taxonomy.
func parseErr(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return invalid(ErrMalformed)
	case errors.Is(err, jwt.ErrTokenUnverifiable), errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return invalid(ErrInvalidSig)
	default:
		return invalid(err)
	}
}

// parser builds a jwt parser pinned to a single algorithm that skips the
// library's own exp/nbf checks.
func parser(alg string) *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{alg}),
		jwt.WithoutClaimsValidation(),
	)
}
