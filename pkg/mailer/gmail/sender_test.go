package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailward/mailward/pkg/mailer"
)

// gmailStub serves both the token endpoint and the message send endpoint
// so a full Send can run against a single httptest server.
type gmailStub struct {
	sendStatus   int
	sendResponse string

	authHeader string
	rawMessage string
}

func (g *gmailStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"stub-access-token","token_type":"Bearer","expires_in":3600}`))
	})

	mux.HandleFunc(sendPath, func(w http.ResponseWriter, r *http.Request) {
		g.authHeader = r.Header.Get("Authorization")

		var payload struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		decoded, err := base64.RawURLEncoding.DecodeString(payload.Raw)
		require.NoError(t, err, "raw envelope must be unpadded base64url")
		g.rawMessage = string(decoded)

		if g.sendStatus != 0 {
			w.WriteHeader(g.sendStatus)
		}
		if g.sendResponse != "" {
			_, _ = w.Write([]byte(g.sendResponse))
		}
	})

	return mux
}

func newStubbedSender(t *testing.T, stub *gmailStub) *Sender {
	t.Helper()

	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)

	return newTestSender(t, srv.URL+"/token", srv.URL, srv.Client())
}

func TestSend_Success(t *testing.T) {
	t.Parallel()

	stub := &gmailStub{sendResponse: `{"id":"msg-123"}`}
	s := newStubbedSender(t, stub)

	id, err := s.Send(context.Background(), &mailer.Email{
		From:         "sender@example.com",
		To:           []string{"rcpt@example.com"},
		Subject:      "Greetings",
		Text:         "hello body",
		RefreshToken: "rt-abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)

	assert.Equal(t, "Bearer stub-access-token", stub.authHeader)
	assert.Contains(t, stub.rawMessage, "From: sender@example.com\r\n")
	assert.Contains(t, stub.rawMessage, "To: rcpt@example.com\r\n")
	assert.Contains(t, stub.rawMessage, "Subject: Greetings\r\n")
	assert.Contains(t, stub.rawMessage, "hello body")
}

func TestSend_ConfigFallbacks(t *testing.T) {
	t.Parallel()

	stub := &gmailStub{sendResponse: `{"id":"msg-456"}`}
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)

	s, err := New(Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RefreshToken: "rt-configured",
		SenderEmail:  "default@example.com",
		SenderName:   "Default Sender",
		TokenURL:     srv.URL + "/token",
		APIBaseURL:   srv.URL,
	}, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	id, err := s.Send(context.Background(), &mailer.Email{
		To:      []string{"rcpt@example.com"},
		Subject: "Hi",
		Text:    "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-456", id)
	assert.Contains(t, stub.rawMessage, "From: Default Sender <default@example.com>\r\n")
}

func TestSend_NoSenderEmail(t *testing.T) {
	t.Parallel()

	s := newTestSender(t, "http://unused.invalid", "http://unused.invalid", nil)

	_, err := s.Send(context.Background(), &mailer.Email{
		To:           []string{"rcpt@example.com"},
		Subject:      "Hi",
		Text:         "x",
		RefreshToken: "rt-abc",
	})
	assert.ErrorIs(t, err, ErrNoSenderEmail)
}

func TestSend_NoRefreshToken(t *testing.T) {
	t.Parallel()

	s := newTestSender(t, "http://unused.invalid", "http://unused.invalid", nil)

	_, err := s.Send(context.Background(), &mailer.Email{
		From:    "sender@example.com",
		To:      []string{"rcpt@example.com"},
		Subject: "Hi",
		Text:    "x",
	})
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestSend_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   int
		category Category
	}{
		{http.StatusBadRequest, CategoryBadRequest},
		{http.StatusUnauthorized, CategoryAuth},
		{http.StatusForbidden, CategoryQuota},
		{http.StatusTooManyRequests, CategoryRateLimited},
		{http.StatusInternalServerError, CategoryUnavailable},
		{http.StatusServiceUnavailable, CategoryUnavailable},
		{http.StatusTeapot, CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			stub := &gmailStub{sendStatus: tt.status, sendResponse: `{"error":{"message":"internal provider detail"}}`}
			s := newStubbedSender(t, stub)

			_, err := s.Send(context.Background(), &mailer.Email{
				From:         "sender@example.com",
				To:           []string{"rcpt@example.com"},
				Subject:      "Hi",
				Text:         "x",
				RefreshToken: "rt-abc",
			})
			require.ErrorIs(t, err, ErrDelivery)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.category, apiErr.Category)
			assert.NotContains(t, err.Error(), "internal provider detail", "provider body must not leak")
		})
	}
}

func TestSend_OversizedMessage(t *testing.T) {
	t.Parallel()

	stub := &gmailStub{sendResponse: `{"id":"never"}`}
	s := newStubbedSender(t, stub)

	_, err := s.Send(context.Background(), &mailer.Email{
		From:         "sender@example.com",
		To:           []string{"rcpt@example.com"},
		Subject:      "Hi",
		Text:         strings.Repeat("a", 26<<20),
		RefreshToken: "rt-abc",
	})
	require.ErrorIs(t, err, ErrMessageTooLarge)
	assert.Empty(t, stub.rawMessage, "oversized messages must not reach the API")
}
