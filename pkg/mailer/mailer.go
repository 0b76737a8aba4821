// Package mailer orchestrates the outbound delivery pipeline: address
// validation, content normalization, attachment validation and resolution,
// and the hand-off to a provider Sender.
package mailer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mailward/mailward/pkg/attachment"
	"github.com/mailward/mailward/pkg/content"
	"github.com/mailward/mailward/pkg/emailaddr"
)

const defaultContentType = "application/octet-stream"

// Mailer validates and prepares requests, then delivers them through the
// configured Sender.
type Mailer struct {
	sender   Sender
	resolver *attachment.Resolver
	sanitize *bluemonday.Policy
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSanitizer enables HTML sanitization of caller-supplied markup with
// the given bluemonday policy.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(m *Mailer) {
		m.sanitize = policy
	}
}

// New creates a Mailer. A nil resolver falls back to default limits.
func New(sender Sender, resolver *attachment.Resolver, opts ...Option) *Mailer {
	if resolver == nil {
		resolver = attachment.NewResolver(attachment.ResolverConfig{})
	}
	m := &Mailer{
		sender:   sender,
		resolver: resolver,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send drives the full pipeline for one request:
// validate addresses, normalize content, validate attachments, resolve
// remote attachments, then deliver. Any failure aborts the send; no
// partial delivery occurs. The context bounds every outbound call, so
// cancelling it abandons in-flight fetch and delivery work.
func (m *Mailer) Send(ctx context.Context, req *Request) (*SendResult, error) {
	if len(req.To) == 0 {
		return nil, &ValidationError{Field: "to"}
	}
	if req.Subject == "" {
		return nil, &ValidationError{Field: "subject"}
	}

	addressFields := []struct {
		name  string
		addrs AddressList
	}{
		{"to", req.To},
		{"cc", req.CC},
		{"bcc", req.BCC},
		{"replyTo", req.ReplyTo},
	}
	for _, field := range addressFields {
		if len(field.addrs) == 0 {
			continue
		}
		if invalid := emailaddr.Validate(field.addrs); len(invalid) > 0 {
			return nil, &ValidationError{Field: field.name, Invalid: invalid}
		}
	}

	body, err := m.resolveContent(req)
	if err != nil {
		return nil, err
	}

	if err := attachment.Validate(req.Attachments); err != nil {
		return nil, err
	}

	resolved, totalBytes, err := m.resolveAttachments(ctx, req.Attachments)
	if err != nil {
		return nil, err
	}

	email := &Email{
		From:         req.SenderEmail,
		FromName:     req.SenderName,
		To:           req.To,
		CC:           req.CC,
		BCC:          req.BCC,
		ReplyTo:      req.ReplyTo,
		Subject:      req.Subject,
		HTML:         body.HTML,
		Text:         body.Text,
		Attachments:  resolved,
		RefreshToken: req.RefreshToken,
	}

	messageID, err := m.sender.Send(ctx, email)
	if err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}

	return &SendResult{
		MessageID:       messageID,
		AttachmentCount: len(resolved),
		AttachmentBytes: totalBytes,
	}, nil
}

// resolveContent picks the single content source, in priority order
// html > text > fields > template, and normalizes it. A source that
// resolves to empty content is a validation error.
func (m *Mailer) resolveContent(req *Request) (content.Content, error) {
	var body content.Content

	switch {
	case req.HTML != nil:
		v, err := decodeRaw(req.HTML)
		if err != nil {
			return body, &ValidationError{Field: "html", Reason: "is not valid JSON"}
		}
		body = content.Normalize(v)
	case req.Text != nil:
		v, err := decodeRaw(req.Text)
		if err != nil {
			return body, &ValidationError{Field: "text", Reason: "is not valid JSON"}
		}
		body = content.Normalize(v)
	case req.Fields != nil:
		body = content.Normalize(req.Fields)
	case req.Template != nil && req.Data != nil:
		tmpl, err := decodeTemplate(req.Template)
		if err != nil {
			return body, &ValidationError{Field: "template", Reason: "must be a string or an {html, text} object"}
		}
		body = content.RenderTemplate(tmpl, req.Data)
	default:
		return body, ErrNoContent
	}

	if body.IsEmpty() {
		return body, ErrNoContent
	}

	return body.Sanitize(m.sanitize), nil
}

// resolveAttachments fetches URL attachments sequentially and passes inline
// content through, filling in content types from the server or the default.
// Returns the prepared attachments and their total decoded size.
func (m *Mailer) resolveAttachments(ctx context.Context, attachments []attachment.Attachment) ([]attachment.Attachment, int64, error) {
	if len(attachments) == 0 {
		return nil, 0, nil
	}

	prepared := make([]attachment.Attachment, 0, len(attachments))
	var total int64

	for _, att := range attachments {
		switch {
		case att.Content != "":
			decoded, err := att.DecodeContent()
			if err != nil {
				// Validate already checked this; a failure here means
				// the list was mutated since.
				return nil, 0, &ResolutionError{Filename: att.Filename, Err: err}
			}
			total += int64(len(decoded))
			prepared = append(prepared, attachment.Attachment{
				Filename:    att.Filename,
				ContentType: orDefault(att.ContentType, defaultContentType),
				Content:     att.Content,
			})
		case att.URL != "":
			loaded, err := m.resolver.Resolve(ctx, att.URL)
			if err != nil {
				return nil, 0, &ResolutionError{Filename: att.Filename, Err: err}
			}
			total += loaded.Size
			prepared = append(prepared, attachment.Attachment{
				Filename:    att.Filename,
				ContentType: orDefault(att.ContentType, orDefault(loaded.ContentType, defaultContentType)),
				Content:     loaded.Content,
			})
		}
	}

	return prepared, total, nil
}

func decodeRaw(raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeTemplate accepts a bare string (treated as HTML) or an
// {html, text} object.
func decodeTemplate(raw json.RawMessage) (content.Template, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return content.Template{HTML: s}, nil
	}

	var obj struct {
		HTML string `json:"html"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return content.Template{}, err
	}
	return content.Template{HTML: obj.HTML, Text: obj.Text}, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
