// Package httpapi exposes the mail service over HTTP: the send endpoint,
// delivery-status webhooks, the one-time OAuth setup flow, and the
// middleware stack (CORS, API key, rate limiting) in front of them.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterConfig bundles the handler, setup flow, and middleware settings
// into one routing table.
type RouterConfig struct {
	Handler   *Handler
	OAuth     *OAuthHandler
	APIKey    string
	RateLimit RateLimitConfig
	CORS      []CORSOption
}

// NewRouter assembles the service routes. Rate limiting runs before the
// API-key check so unauthenticated floods are rejected by the cheaper
// limiter first; the OAuth setup flow and health probe bypass both.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID())
	r.Use(CORS(cfg.CORS...))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(RateLimit(cfg.RateLimit), RequireAPIKey(cfg.APIKey)).
			Post("/sendmail", cfg.Handler.Send)

		r.With(RequireAPIKey(cfg.APIKey)).Post("/webhook", cfg.Handler.Webhook)
		r.Get("/webhook", cfg.Handler.WebhookVerify)

		if cfg.OAuth != nil {
			r.Get("/auth/google", cfg.OAuth.Authorize)
			r.Get("/auth/google/callback", cfg.OAuth.Callback)
		}
	})

	return r
}
