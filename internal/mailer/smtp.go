package mailer

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/mail.v2"

	"github.com/aussiebroadwan/till/pkg/slogx"
)

const maxRetries = 3

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers through an SMTP relay, retrying transient failures.
type SMTPMailer struct {
	dialer  *mail.Dialer
	from    string
	backoff time.Duration
	wait    func(context.Context, time.Duration) error
}

func NewSMTP(cfg SMTPConfig) *SMTPMailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 10 * time.Second
	return &SMTPMailer{dialer: d, from: cfg.From, backoff: 500 * time.Millisecond, wait: sleep}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *SMTPMailer) Send(ctx context.Context, templateFile, name, email string, data any) error {
	rendered, err := Render(templateFile, email, data)
	if err != nil {
		return fmt.Errorf("mailer: render %s: %w", templateFile, err)
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", m.from, FromName)
	msg.SetAddressHeader("To", email, name)
	msg.SetHeader("Subject", rendered.Subject)
	msg.SetBody("text/plain", rendered.PlainBody)
	msg.AddAlternative("text/html", rendered.HTMLBody)

	log := slogx.FromContext(ctx)
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			log.Info("email sent", "template", templateFile, "attempt", attempt)
			return nil
		}
		log.Warn("email send failed", "template", templateFile, "attempt", attempt, "err", err)
		if attempt == maxRetries {
			break
		}

		if werr := m.wait(ctx, m.backoff*time.Duration(attempt)); werr != nil {
			return fmt.Errorf("%w: %w", ErrUndeliverable, werr)
		}
	}
	return fmt.Errorf("%w: %w", ErrUndeliverable, err)
}
