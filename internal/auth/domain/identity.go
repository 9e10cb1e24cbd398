package domain

import (
	"context"

	"github.com/aussiebroadwan/till/pkg/jwtx"
)

// Identity is the authenticated caller, resolved once per request and
// passed down to the gate and handlers.
type Identity struct {
	User   User
	Claims jwtx.Claims
	Token  string
}

type identityKey struct{}

// ContextWithIdentity binds id to ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity bound by the authenticator.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
