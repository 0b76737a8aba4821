// Package resend implements mailer.Sender on the Resend API. It is the
// drop-in alternative to the gmail provider for deployments without a
// Google Workspace account.
package resend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/mailward/mailward/pkg/attachment"
	"github.com/mailward/mailward/pkg/mailer"
)

// ErrMissingAPIKey is returned at construction when no API key is
// configured.
var ErrMissingAPIKey = errors.New("resend: API key is required")

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	client *resend.Client
	config Config
}

// New creates a new Resend sender.
func New(cfg Config) (*Sender, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Sender{
		client: resend.NewClient(cfg.APIKey),
		config: cfg,
	}, nil
}

// Send implements mailer.Sender. Per-message refresh tokens have no
// meaning here; the account behind the API key is always the sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (string, error) {
	from := email.From
	if from == "" {
		from = s.config.SenderEmail
	}
	name := email.FromName
	if name == "" {
		name = s.config.SenderName
	}
	if name != "" {
		from = fmt.Sprintf("%s <%s>", name, from)
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: strings.Join(email.ReplyTo, ", "),
		Cc:      email.CC,
		Bcc:     email.BCC,
	}

	if len(email.Attachments) > 0 {
		converted, err := convertAttachments(email.Attachments)
		if err != nil {
			return "", err
		}
		req.Attachments = converted
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend: failed to send email: %w", err)
	}

	return sent.Id, nil
}

func convertAttachments(attachments []attachment.Attachment) ([]*resend.Attachment, error) {
	result := make([]*resend.Attachment, len(attachments))
	for i, a := range attachments {
		content, err := a.DecodeContent()
		if err != nil {
			return nil, fmt.Errorf("resend: decoding attachment %q: %w", a.Filename, err)
		}
		result[i] = &resend.Attachment{
			Filename:    a.Filename,
			Content:     content,
			ContentType: a.ContentType,
		}
	}
	return result, nil
}

var _ mailer.Sender = (*Sender)(nil)
