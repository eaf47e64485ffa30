package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ErrNotConfigured is returned by Send when no Resend API key is set.
// Retrying such a message cannot succeed.
var ErrNotConfigured = errors.New("mailer not configured")

type Email struct {
	To      string
	Subject string
	Text    string
}

// ResendMailer sends plain text email through Resend.
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer returns a mailer whose Send fails with ErrNotConfigured
// when apiKey is empty.
func NewResendMailer(apiKey, from string) *ResendMailer {
	if apiKey == "" {
		slog.Warn("RESEND_API_KEY not set, notification emails will not be delivered")
		return &ResendMailer{from: from}
	}
	return newResendMailer(resend.NewClient(apiKey), from)
}

func newResendMailer(client *resend.Client, from string) *ResendMailer {
	return &ResendMailer{client: client, from: from}
}

func (m *ResendMailer) Send(ctx context.Context, email Email) error {
	if m.client == nil {
		return ErrNotConfigured
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Text:    email.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("email sent", "to", email.To, "subject", email.Subject, "email_id", sent.Id)
	return nil
}
