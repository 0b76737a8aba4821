package mailer

import "context"

// Sender defines the minimal interface that email providers must implement.
// It accepts a fully-prepared Email, handles the actual delivery, and
// returns the provider's message identifier.
type Sender interface {
	Send(ctx context.Context, email *Email) (messageID string, err error)
}
