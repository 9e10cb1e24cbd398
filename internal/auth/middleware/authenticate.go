// Package middleware holds the request authenticator and the route level
// permission gate. Authentication always runs before authorization, which
// always runs before the handler.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/pkg/authsdk"
	"github.com/aussiebroadwan/till/pkg/httpx"
	"github.com/aussiebroadwan/till/pkg/jwtx"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// TokenDecoder is satisfied by *jwtx.Codec.
type TokenDecoder interface {
	Decode(raw string) (jwtx.Claims, error)
}

// RevocationChecker is satisfied by every denylist driver.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// UserLoader is the slice of store.Users the authenticator needs.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// Observer counts rejected requests by error kind and denied ones by reason.
type Observer interface {
	AuthRejected(kind string)
	AuthzDenied(reason string)
}

type Option func(*config)

type config struct {
	obs Observer
	now func() time.Time
}

func WithObserver(o Observer) Option {
	return func(c *config) { c.obs = o }
}

// WithClock sets the clock used for last login stamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

func buildConfig(opts []Option) config {
	c := config{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Authenticate resolves the bearer token into a domain.Identity. Each step
// either rejects the request or hands on to the next:
//
//  1. no bearer token: 401 TokenMissing
//  2. expired: 401 TokenExpired; any other decode failure or a
//     denylisted jti: 401 TokenInvalid
//  3. unknown or deleted subject: 404 UserNotFound
//  4. suspended: 403 AccountSuspended
//
// On success last_login_at is stamped (failures are only logged) and the
// identity is bound to the request context.
func Authenticate(dec TokenDecoder, revoked RevocationChecker, users UserLoader, opts ...Option) httpx.Middleware {
	cfg := buildConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				cfg.reject(w, authsdk.ErrTokenMissing)
				return
			}

			claims, err := dec.Decode(raw)
			if err != nil {
				if errors.Is(err, jwtx.ErrExpired) {
					cfg.reject(w, authsdk.ErrTokenExpired)
					return
				}
				log.Debug("token decode failed", "err", err)
				cfg.reject(w, authsdk.ErrTokenInvalid)
				return
			}

			denied, err := revoked.IsRevoked(ctx, claims.ID)
			if err != nil {
				log.Error("denylist lookup failed", "err", err)
				authsdk.ErrServerError.WriteError(w)
				return
			}
			if denied {
				cfg.reject(w, authsdk.ErrTokenInvalid)
				return
			}

			user, err := users.GetUserByID(ctx, claims.Subject)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					cfg.reject(w, authsdk.ErrUserNotFound)
					return
				}
				log.Error("user lookup failed", "user_id", claims.Subject, "err", err)
				authsdk.ErrServerError.WriteError(w)
				return
			}

			if !user.IsActive() {
				cfg.reject(w, authsdk.ErrAccountSuspended)
				return
			}

			now := cfg.now()
			if err := users.TouchLastLogin(ctx, user.ID, now); err != nil {
				log.Warn("failed to stamp last login", "user_id", user.ID, "err", err)
			} else {
				user.LastLoginAt = &now
			}

			ctx = domain.ContextWithIdentity(ctx, domain.Identity{User: user, Claims: claims, Token: raw})
			ctx = slogx.WithUser(ctx, user.ID)
			ctx = httpx.WithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, raw, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func (c config) reject(w http.ResponseWriter, e *authsdk.APIError) {
	if c.obs != nil {
		c.obs.AuthRejected(e.Kind)
	}
	if e.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	e.WriteError(w)
}
