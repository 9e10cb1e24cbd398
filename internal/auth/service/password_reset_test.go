package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/internal/mailer"
)

type failingMailer struct{}

func (failingMailer) Send(context.Context, string, string, string, any) error {
	return mailer.ErrUndeliverable
}

// resetToken pulls the token out of the last mailed link.
func resetToken(t *testing.T, m *mailer.LogMailer) string {
	t.Helper()
	sent := m.Sent()
	require.NotEmpty(t, sent)

	body := sent[len(sent)-1].PlainBody
	start := strings.Index(body, "https://")
	require.GreaterOrEqual(t, start, 0)
	link := strings.Fields(body[start:])[0]

	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.createUser(t, "fay@example.com", "old-password")

	require.NoError(t, e.resets.ForgotPassword(ctx, "Fay@example.com"))
	token := resetToken(t, e.mail)
	require.NotEmpty(t, token)
	require.Contains(t, e.mail.Sent()[0].PlainBody, "expires in 30 minutes")

	require.ErrorIs(t, e.resets.ResetPassword(ctx, "fay@example.com", "new-password", "wrong-token"), ErrInvalidResetToken)
	require.NoError(t, e.resets.ResetPassword(ctx, "fay@example.com", "new-password", token))

	_, err := e.auth.Login(ctx, "fay@example.com", "old-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, "fay@example.com", "new-password")
	require.NoError(t, err)

	// single use
	require.ErrorIs(t, e.resets.ResetPassword(ctx, "fay@example.com", "third-password", token), ErrInvalidResetToken)
}

func TestPasswordResetExpires(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.createUser(t, "gus@example.com", "old-password")

	require.NoError(t, e.resets.ForgotPassword(ctx, "gus@example.com"))
	token := resetToken(t, e.mail)

	e.clk.advance(30 * time.Minute)
	require.ErrorIs(t, e.resets.ResetPassword(ctx, "gus@example.com", "new-password", token), ErrInvalidResetToken)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.resets.ForgotPassword(context.Background(), "ghost@example.com"))
	require.Empty(t, e.mail.Sent())
}

func TestForgotPasswordMailFailure(t *testing.T) {
	e := newEnv(t)
	e.createUser(t, "hal@example.com", "old-password")
	e.resets.Mailer = failingMailer{}

	err := e.resets.ForgotPassword(context.Background(), "hal@example.com")
	require.ErrorIs(t, err, ErrMailUndeliverable)
	require.True(t, errors.Is(err, mailer.ErrUndeliverable))
}
