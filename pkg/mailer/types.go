package mailer

import (
	"encoding/json"

	"github.com/mailward/mailward/pkg/attachment"
)

// AddressList decodes JSON fields that accept either a single address or an
// ordered list of addresses, which is how inbound payloads express
// to/cc/bcc/replyTo.
type AddressList []string

// UnmarshalJSON accepts "a@b.com" and ["a@b.com", "c@d.com"] alike.
func (l *AddressList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = AddressList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = AddressList(many)
	return nil
}

// Request is the logical email request as submitted by a caller. Exactly
// one content source (HTML, Text, Fields, or Template+Data) must resolve to
// non-empty content. Sender fields override the provider's configured
// defaults per request.
type Request struct {
	To      AddressList `json:"to"`
	CC      AddressList `json:"cc,omitempty"`
	BCC     AddressList `json:"bcc,omitempty"`
	ReplyTo AddressList `json:"replyTo,omitempty"`
	Subject string      `json:"subject"`

	// Content sources. HTML, Text, and Template stay raw because callers
	// may submit strings, records, or {html, text} objects.
	HTML     json.RawMessage `json:"html,omitempty"`
	Text     json.RawMessage `json:"text,omitempty"`
	Fields   map[string]any  `json:"fields,omitempty"`
	Template json.RawMessage `json:"template,omitempty"`
	Data     map[string]any  `json:"data,omitempty"`

	Attachments []attachment.Attachment `json:"attachments,omitempty"`

	SenderEmail  string `json:"senderEmail,omitempty"`
	SenderName   string `json:"senderName,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Email is a fully-prepared message ready for a provider: addresses
// validated, content normalized, attachments resolved to inline base64.
type Email struct {
	From     string
	FromName string
	To       []string
	CC       []string
	BCC      []string
	ReplyTo  []string
	Subject  string
	HTML     string
	Text     string

	Attachments []attachment.Attachment

	// RefreshToken overrides the provider's default credential for this
	// message only. Providers without per-message credentials ignore it.
	RefreshToken string
}

// SendResult reports a completed delivery.
type SendResult struct {
	MessageID       string
	AttachmentCount int
	AttachmentBytes int64
}
