package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/internal/mailer"
	"github.com/aussiebroadwan/till/pkg/cryptox"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

const DefaultResetTTL = 60 * time.Minute

// PasswordResetService runs the forgot/reset password flow. Reset tokens
// are only stored as SHA-256 fingerprints.
type PasswordResetService struct {
	Store    store.Store
	Mailer   mailer.Mailer
	Resolver *rbac.Resolver
	TTL      time.Duration
	// ResetURL is the frontend page; token and email are appended as query
	// parameters.
	ResetURL string
	Now      func() time.Time
}

func (s *PasswordResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *PasswordResetService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultResetTTL
}

// ForgotPassword mails a reset link. Unknown emails succeed silently so the
// endpoint can't be used to probe for accounts.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)
	email = domain.NormalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	now := s.now()
	err = s.Store.PasswordResets().CreatePasswordReset(ctx, domain.PasswordReset{
		Email:     email,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	data := mailer.ResetPasswordData{
		Name:             user.Name,
		Link:             s.link(token, email),
		ExpiresInMinutes: int(s.ttl() / time.Minute),
	}
	if err := s.Mailer.Send(ctx, mailer.ResetPasswordTemplate, user.Name, email, data); err != nil {
		l.Error("failed to send password reset email", slog.String("user_id", user.ID), slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrMailUndeliverable, err)
	}

	l.Info("password reset link sent", slog.String("user_id", user.ID))
	return nil
}

func (s *PasswordResetService) link(token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)

	base := s.ResetURL
	if base == "" {
		base = "/reset-password"
	}
	u, err := url.Parse(base)
	if err != nil {
		return base + "?" + q.Encode()
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ResetPassword sets a new password when token matches the live reset for
// email. The reset is consumed either way once it has expired.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, password, token string) error {
	l := slogx.FromContext(ctx)
	email = domain.NormalizeEmail(email)

	reset, err := s.Store.PasswordResets().GetPasswordReset(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if reset.Expired(s.now()) {
		if err := s.Store.PasswordResets().DeletePasswordReset(ctx, email); err != nil {
			l.Warn("failed to delete expired reset", slog.Any("error", err))
		}
		return ErrInvalidResetToken
	}
	if !cryptox.EqualFingerprint(token, reset.TokenHash) {
		return ErrInvalidResetToken
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return err
		}
		return tx.PasswordResets().DeletePasswordReset(ctx, email)
	})
	if err != nil {
		return err
	}

	if err := s.Resolver.Forget(ctx, user.ID); err != nil {
		l.Warn("failed to forget cached permissions", slog.Any("error", err))
	}
	l.Info("password reset", slog.String("user_id", user.ID))
	return nil
}
