// Package denylist records access tokens revoked before their natural
// expiry. Entries are keyed by the token's jti and live until the token
// would have expired anyway.
package denylist

import (
	"context"
	"errors"
	"time"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

var ErrEmptyJTI = errors.New("denylist: token has no jti")

// Denylist is additive and idempotent: revoking the same jti twice is fine
// and nothing is ever removed early.
type Denylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Option func(*options)

type options struct {
	now    func() time.Time
	maxTTL time.Duration
}

// WithClock replaces time.Now. Pass the codec's clock so both agree on expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMaxTTL is how long an entry lives when the token's expiry is unknown.
// It must be at least the access token TTL.
func WithMaxTTL(ttl time.Duration) Option {
	return func(o *options) { o.maxTTL = ttl }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    func() time.Time { return time.Now().UTC() },
		maxTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// entryTTL is how long an entry for a token expiring at exp must live. The
// extra second covers the token's final second, during which it still
// decodes.
func (o options) entryTTL(exp time.Time) time.Duration {
	if exp.IsZero() {
		return o.maxTTL
	}
	remaining := exp.Sub(o.now())
	if remaining < 0 {
		return 0
	}
	return remaining.Truncate(time.Second) + time.Second
}
