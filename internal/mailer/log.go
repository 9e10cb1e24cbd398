package mailer

import (
	"context"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/till/pkg/slogx"
)

// LogMailer writes rendered messages to the request logger instead of
// sending them. It keeps every message for inspection.
type LogMailer struct {
	mu   sync.Mutex
	sent []Message
}

func NewLog() *LogMailer { return &LogMailer{} }

func (m *LogMailer) Send(ctx context.Context, templateFile, name, email string, data any) error {
	rendered, err := Render(templateFile, email, data)
	if err != nil {
		return fmt.Errorf("mailer: render %s: %w", templateFile, err)
	}

	m.mu.Lock()
	m.sent = append(m.sent, rendered)
	m.mu.Unlock()

	slogx.FromContext(ctx).Info("email (log driver)",
		"template", templateFile,
		"subject", rendered.Subject,
		"body", rendered.PlainBody,
	)
	return nil
}

// Sent returns a copy of every message handled so far.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
