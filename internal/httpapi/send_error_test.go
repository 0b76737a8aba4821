package httpapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailward/mailward/pkg/mailer/gmail"
)

func TestSendmail_ProviderErrorMapping(t *testing.T) {
	t.Parallel()

	body := map[string]any{"to": "a@b.com", "subject": "Hi", "text": "x"}

	tests := []struct {
		name       string
		sendErr    error
		wantStatus int
		wantSubstr string
	}{
		{
			name:       "token exchange failure",
			sendErr:    &gmail.TokenError{Code: "invalid_grant"},
			wantStatus: http.StatusBadGateway,
			wantSubstr: "invalid_grant",
		},
		{
			name:       "provider rejection",
			sendErr:    &gmail.APIError{StatusCode: 403, Category: gmail.CategoryQuota},
			wantStatus: http.StatusBadGateway,
			wantSubstr: "forbidden",
		},
		{
			name:       "oversized message",
			sendErr:    &gmail.SizeLimitError{Size: 27 << 20, Limit: 25 << 20},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantSubstr: "exceeds",
		},
		{
			name:       "missing refresh token",
			sendErr:    gmail.ErrNoRefreshToken,
			wantStatus: http.StatusBadRequest,
			wantSubstr: "refreshToken",
		},
		{
			name:       "missing sender email",
			sendErr:    gmail.ErrNoSenderEmail,
			wantStatus: http.StatusBadRequest,
			wantSubstr: "senderEmail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, _ := newTestRouter(t, routerOptions{sendErr: tt.sendErr})

			rec := postJSON(t, router, "/api/sendmail", body, nil)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, decodeBody(t, rec)["error"], tt.wantSubstr)
		})
	}
}
