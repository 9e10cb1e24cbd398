// Package mailer renders and delivers transactional email. Templates live
// in templates/ and define three blocks: subject, plainBody and htmlBody.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	htmltemplate "html/template"
	"text/template"
)

const (
	DriverLog  = "log"
	DriverSMTP = "smtp"

	FromName              = "Till"
	ResetPasswordTemplate = "reset_password.tmpl"
)

//go:embed "templates"
var FS embed.FS

var ErrUndeliverable = errors.New("mailer: message could not be delivered")

// Message is a rendered email.
type Message struct {
	To        string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Mailer sends a template to a single recipient.
type Mailer interface {
	Send(ctx context.Context, templateFile, name, email string, data any) error
}

// Render executes templateFile against data.
func Render(templateFile, email string, data any) (Message, error) {
	tmpl, err := template.New("email").ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return Message{}, err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return Message{}, err
	}

	plainBody := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(plainBody, "plainBody", data); err != nil {
		return Message{}, err
	}

	// html/template escapes user supplied fields such as the name.
	htmlTmpl, err := htmltemplate.New("email").ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return Message{}, err
	}
	htmlBody := new(bytes.Buffer)
	if err := htmlTmpl.ExecuteTemplate(htmlBody, "htmlBody", data); err != nil {
		return Message{}, err
	}

	return Message{
		To:        email,
		Subject:   subject.String(),
		PlainBody: plainBody.String(),
		HTMLBody:  htmlBody.String(),
	}, nil
}

// ResetPasswordData feeds ResetPasswordTemplate.
type ResetPasswordData struct {
	Name             string
	Link             string
	ExpiresInMinutes int
}
