package mailer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/internal/mailer"
)

func TestRenderResetPassword(t *testing.T) {
	msg, err := mailer.Render(mailer.ResetPasswordTemplate, "alice@example.com", mailer.ResetPasswordData{
		Name:             "Alice <script>",
		Link:             "https://pos.example.com/reset?token=abc&email=alice%40example.com",
		ExpiresInMinutes: 60,
	})
	require.NoError(t, err)

	require.Equal(t, "alice@example.com", msg.To)
	require.Equal(t, "Reset your Till password", msg.Subject)
	require.Contains(t, msg.PlainBody, "Hi Alice <script>,")
	require.Contains(t, msg.PlainBody, "expires in 60 minutes")
	require.Contains(t, msg.HTMLBody, "Alice &lt;script&gt;")
	require.NotContains(t, msg.HTMLBody, "<script>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := mailer.Render("missing.tmpl", "a@example.com", nil)
	require.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	m := mailer.NewLog()
	require.NoError(t, m.Send(context.Background(), mailer.ResetPasswordTemplate, "Bob", "bob@example.com",
		mailer.ResetPasswordData{Name: "Bob", Link: "https://x/reset", ExpiresInMinutes: 15}))

	sent := m.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "bob@example.com", sent[0].To)
	require.Contains(t, sent[0].PlainBody, "https://x/reset")
}

func TestSMTPUnreachable(t *testing.T) {
	m := mailer.NewSMTP(mailer.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "till@example.com"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := m.Send(ctx, mailer.ResetPasswordTemplate, "Bob", "bob@example.com",
		mailer.ResetPasswordData{Name: "Bob", Link: "https://x/reset", ExpiresInMinutes: 15})
	require.ErrorIs(t, err, mailer.ErrUndeliverable)
}
