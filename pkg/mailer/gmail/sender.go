// Package gmail implements mailer.Sender on the Gmail REST API: it
// composes the RFC 2045 multipart message, exchanges the refresh token for
// a bearer token, and posts the base64url envelope to the send endpoint.
package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/mailward/mailward/pkg/mailer"
)

const sendPath = "/gmail/v1/users/me/messages/send"

// Sender implements mailer.Sender using the Gmail API.
type Sender struct {
	config      Config
	oauthConfig *oauth2.Config
	httpClient  *http.Client
}

// Option configures a Sender.
type Option func(*Sender)

// WithHTTPClient sets a custom HTTP client for both the token exchange and
// the delivery call. Useful for testing with httptest servers or injecting
// custom transports.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Sender) {
		s.httpClient = client
	}
}

// New creates a Gmail sender.
// Returns ErrMissingCredentials if the OAuth client ID or secret is empty.
func New(cfg Config, opts ...Option) (*Sender, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	s := &Sender{
		config: cfg,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send implements mailer.Sender: authenticate, compose, size-check,
// deliver. The message's own credentials take precedence over configured
// defaults.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (string, error) {
	refreshToken := email.RefreshToken
	if refreshToken == "" {
		refreshToken = s.config.RefreshToken
	}

	fromEmail := email.From
	if fromEmail == "" {
		fromEmail = s.config.SenderEmail
	}
	if fromEmail == "" {
		return "", ErrNoSenderEmail
	}

	fromName := email.FromName
	if fromName == "" {
		fromName = s.config.SenderName
	}

	accessToken, err := s.exchangeToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	msg, err := compose(email, fromEmail, fromName)
	if err != nil {
		return "", err
	}

	return s.deliver(ctx, accessToken, encodeRaw(msg))
}

// deliver posts the envelope to the send endpoint. Non-2xx responses are
// classified by status code; the provider's error body is drained and
// discarded, never surfaced to callers.
func (s *Sender) deliver(ctx context.Context, accessToken, raw string) (string, error) {
	payload, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+sendPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	client := s.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &APIError{StatusCode: resp.StatusCode, Category: classifyStatus(resp.StatusCode)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrDelivery, err)
	}

	return result.ID, nil
}

var _ mailer.Sender = (*Sender)(nil)
