package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/pkg/cryptox"
	"github.com/aussiebroadwan/till/pkg/jwtx"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// Login outcomes reported to the LoginObserver.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeSuspended          = "suspended"
	OutcomeError              = "error"
)

// TokenCodec is satisfied by *jwtx.Codec.
type TokenCodec interface {
	Issue(subject string, ttl time.Duration, custom map[string]any) (jwtx.Token, error)
	Decode(raw string) (jwtx.Claims, error)
}

// Revoker is satisfied by every denylist driver.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type LoginObserver interface {
	LoginAttempt(outcome string)
}

// UserDetails is a user together with the roles and effective permissions
// resolved when it was loaded.
type UserDetails struct {
	User        domain.User
	Roles       []domain.Role
	Permissions []string
}

// RoleNames returns the machine names of the user's roles.
func (d UserDetails) RoleNames() []string {
	names := make([]string, 0, len(d.Roles))
	for _, r := range d.Roles {
		names = append(names, r.Name)
	}
	return names
}

type LoginResult struct {
	Token jwtx.Token
	User  UserDetails
}

// AuthService issues, refreshes and revokes access tokens. There is no
// lockout: repeated failures are only throttled by the rate limiter in
// front of the login route.
type AuthService struct {
	Store    store.Store
	Codec    TokenCodec
	Denylist Revoker
	Resolver *rbac.Resolver
	TokenTTL time.Duration
	Observer LoginObserver
	Now      func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AuthService) observe(outcome string) {
	if s.Observer != nil {
		s.Observer.LoginAttempt(outcome)
	}
}

// Login checks the credentials and issues a token. An unknown email and a
// wrong password both fail with ErrInvalidCredentials; a suspended account
// is reported as ErrAccountSuspended.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := slogx.FromContext(ctx)

	// 1. Lookup
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same time a real verify would.
			_ = cryptox.VerifyPassword(password, dummyHash())
			s.observe(OutcomeInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		s.observe(OutcomeError)
		return nil, fmt.Errorf("load user: %w", err)
	}

	// 2. Status
	if !user.IsActive() {
		l.Info("login refused for suspended account", slog.String("user_id", user.ID))
		s.observe(OutcomeSuspended)
		return nil, ErrAccountSuspended
	}

	// 3. Password
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Warn("stored password hash unusable", slog.String("user_id", user.ID), slog.Any("error", err))
		}
		s.observe(OutcomeInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	// 4. Issue
	tok, err := s.Codec.Issue(user.ID, s.TokenTTL, map[string]any{})
	if err != nil {
		l.Error("failed to issue token", slog.String("user_id", user.ID), slog.Any("error", err))
		s.observe(OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	// 5. Best effort side effects
	at := s.now()
	if err := s.Store.Users().TouchLastLogin(ctx, user.ID, at); err != nil {
		l.Warn("failed to stamp last login", slog.String("user_id", user.ID), slog.Any("error", err))
	} else {
		user.LastLoginAt = &at
	}
	s.upgradeHash(ctx, user, password)

	// 6. Snapshot
	details, err := loadDetails(ctx, s.Store, s.Resolver, user)
	if err != nil {
		s.observe(OutcomeError)
		return nil, err
	}

	s.observe(OutcomeSuccess)
	l.Info("login succeeded", slog.String("user_id", user.ID))
	return &LoginResult{Token: tok, User: details}, nil
}

// upgradeHash replaces imported bcrypt hashes and stale Argon2id parameters
// after a successful login.
func (s *AuthService) upgradeHash(ctx context.Context, user domain.User, password string) {
	if !cryptox.NeedsRehash(user.PasswordHash) {
		return
	}
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Warn("failed to rehash password", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		l.Warn("failed to store rehashed password", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}
	l.Info("password hash upgraded", slog.String("user_id", user.ID))
}

// Refresh exchanges a live token for a new one with a fresh TTL. The old
// token is denylisted. Expired tokens cannot be refreshed.
func (s *AuthService) Refresh(ctx context.Context, raw string) (jwtx.Token, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.Decode(raw)
	if err != nil {
		return jwtx.Token{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	revoked, err := s.Denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return jwtx.Token{}, fmt.Errorf("denylist lookup: %w", err)
	}
	if revoked {
		return jwtx.Token{}, ErrRefreshFailed
	}

	tok, err := s.Codec.Issue(claims.Subject, s.TokenTTL, claims.Ctx)
	if err != nil {
		l.Error("failed to issue refreshed token", slog.Any("error", err))
		return jwtx.Token{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if err := s.Denylist.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
		return jwtx.Token{}, fmt.Errorf("revoke previous token: %w", err)
	}

	l.Info("token refreshed", slog.String("user_id", claims.Subject))
	return tok, nil
}

// Logout denylists the token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	claims, err := s.Codec.Decode(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}

	if err := s.Denylist.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
		return fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}

	slogx.FromContext(ctx).Info("logged out", slog.String("user_id", claims.Subject))
	return nil
}

// Me reloads the caller's roles and permissions.
func (s *AuthService) Me(ctx context.Context, user domain.User) (UserDetails, error) {
	return loadDetails(ctx, s.Store, s.Resolver, user)
}

func loadDetails(ctx context.Context, st store.Store, resolver *rbac.Resolver, user domain.User) (UserDetails, error) {
	roles, err := st.Users().ListUserRoles(ctx, user.ID)
	if err != nil {
		return UserDetails{}, fmt.Errorf("load roles: %w", err)
	}
	perms, err := resolver.AllPermissions(ctx, user.ID)
	if err != nil {
		return UserDetails{}, fmt.Errorf("load permissions: %w", err)
	}
	return UserDetails{User: user, Roles: roles, Permissions: perms.Names()}, nil
}

// dummyHash is verified against when the email is unknown so both failure
// paths cost an Argon2id derivation.
var dummyHash = sync.OnceValue(func() string {
	h, err := cryptox.HashPassword("till-dummy-password")
	if err != nil {
		return ""
	}
	return h
})
