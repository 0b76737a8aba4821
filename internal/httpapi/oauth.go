package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// gmailSendScope is the only permission the service needs: sending on
// behalf of the authorized account.
const gmailSendScope = "https://www.googleapis.com/auth/gmail.send"

const callbackPath = "/api/auth/google/callback"

// OAuthConfig configures the one-time refresh-token setup flow.
// Embed this in your app config for env parsing with caarlos0/env.
type OAuthConfig struct {
	ClientID     string `env:"GMAIL_CLIENT_ID"`
	ClientSecret string `env:"GMAIL_CLIENT_SECRET"`

	// RedirectURL overrides the callback address. When empty the callback
	// is derived from the inbound request's host.
	RedirectURL string `env:"GMAIL_REDIRECT_URI"`
}

// OAuthHandler serves the authorization-code flow that produces the
// refresh token the send pipeline runs on. This is interactive setup, not
// a runtime dependency.
type OAuthHandler struct {
	config     OAuthConfig
	endpoint   oauth2.Endpoint
	httpClient *http.Client
	logger     *slog.Logger
}

// OAuthOption configures an OAuthHandler.
type OAuthOption func(*OAuthHandler)

// WithOAuthEndpoint overrides the provider endpoints. Useful for testing
// against httptest servers.
func WithOAuthEndpoint(endpoint oauth2.Endpoint) OAuthOption {
	return func(h *OAuthHandler) {
		h.endpoint = endpoint
	}
}

// WithOAuthHTTPClient sets the client used for the code exchange.
func WithOAuthHTTPClient(client *http.Client) OAuthOption {
	return func(h *OAuthHandler) {
		h.httpClient = client
	}
}

// NewOAuthHandler creates the setup-flow handler.
func NewOAuthHandler(cfg OAuthConfig, logger *slog.Logger, opts ...OAuthOption) *OAuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &OAuthHandler{
		config:   cfg,
		endpoint: google.Endpoint,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// redirectURI resolves the callback address: configured value first, then
// the redirect_uri query parameter, then the inbound request's own host.
func (h *OAuthHandler) redirectURI(r *http.Request) string {
	if h.config.RedirectURL != "" {
		return h.config.RedirectURL
	}
	if uri := r.URL.Query().Get("redirect_uri"); uri != "" {
		return uri
	}
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + callbackPath
}

func (h *OAuthHandler) oauthConfig(r *http.Request) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.config.ClientID,
		ClientSecret: h.config.ClientSecret,
		RedirectURL:  h.redirectURI(r),
		Scopes:       []string{gmailSendScope},
		Endpoint:     h.endpoint,
	}
}

// Authorize handles GET /api/auth/google: redirects to the provider's
// consent screen. Offline access plus a forced consent prompt are required
// or the provider may omit the refresh token.
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	if h.config.ClientID == "" || h.config.ClientSecret == "" {
		writeError(w, http.StatusInternalServerError,
			"GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET must be set in environment variables")
		return
	}

	authURL := h.oauthConfig(r).AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))

	http.Redirect(w, r, authURL, http.StatusFound)
}

type callbackResponse struct {
	Success      bool   `json:"success"`
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
	Message      string `json:"message"`
	RedirectURI  string `json:"redirect_uri_used"`
}

// Callback handles GET /api/auth/google/callback: exchanges the
// authorization code and returns the refresh token for the operator to
// store in the environment.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.config.ClientID == "" || h.config.ClientSecret == "" {
		writeError(w, http.StatusInternalServerError,
			"GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET must be set in environment variables")
		return
	}

	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		writeError(w, http.StatusBadRequest, "OAuth error: "+errParam)
		return
	}

	code := query.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Authorization code not provided")
		return
	}

	conf := h.oauthConfig(r)

	ctx := r.Context()
	if h.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, h.httpClient)
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "authorization code exchange failed", "error", err)
		writeError(w, http.StatusBadRequest, exchangeErrorMessage(err, conf.RedirectURL))
		return
	}

	if token.RefreshToken == "" {
		writeError(w, http.StatusBadRequest,
			"Refresh token not received. This may happen if you already authorized the app. Try revoking access and authorizing again.")
		return
	}

	writeJSON(w, http.StatusOK, callbackResponse{
		Success:      true,
		RefreshToken: token.RefreshToken,
		AccessToken:  token.AccessToken,
		Message:      "Save the refresh_token to your environment as GMAIL_REFRESH_TOKEN",
		RedirectURI:  conf.RedirectURL,
	})
}

// exchangeErrorMessage maps known code-exchange failures to actionable
// messages without echoing the raw provider response.
func exchangeErrorMessage(err error, redirectURI string) string {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return "Token exchange failed"
	}

	switch retrieveErr.ErrorCode {
	case "invalid_grant":
		return "Token exchange failed: invalid_grant. The authorization code may have expired or already been used."
	case "redirect_uri_mismatch":
		return "Token exchange failed: redirect_uri_mismatch. Make sure " + redirectURI +
			" is added to the OAuth client's authorized redirect URIs."
	case "":
		return "Token exchange failed"
	default:
		msg := "Token exchange failed: " + retrieveErr.ErrorCode
		if retrieveErr.ErrorDescription != "" {
			msg += " (" + retrieveErr.ErrorDescription + ")"
		}
		return msg
	}
}
