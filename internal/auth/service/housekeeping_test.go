package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/internal/auth/domain"
)

func TestHousekeepingCleanup(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	now := e.clk.now()

	require.NoError(t, e.st.RevokedTokens().Revoke(ctx, "old", now.Add(-time.Minute)))
	require.NoError(t, e.st.RevokedTokens().Revoke(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, e.st.PasswordResets().CreatePasswordReset(ctx, domain.PasswordReset{
		Email: "a@example.com", TokenHash: "x", ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour),
	}))

	hk := NewHousekeepingService(e.st, slog.Default(), time.Hour)
	hk.Now = e.clk.now
	hk.Cleanup(ctx)

	live, err := e.st.RevokedTokens().IsRevoked(ctx, "live", now)
	require.NoError(t, err)
	require.True(t, live)

	n, err := e.st.RevokedTokens().DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n, "expired entries were already purged")

	_, err = e.st.PasswordResets().GetPasswordReset(ctx, "a@example.com")
	require.Error(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	e := newEnv(t)
	hk := NewHousekeepingService(e.st, slog.Default(), 0)
	require.Equal(t, time.Hour, hk.Interval)

	hk.Start()
	hk.Stop()
}
