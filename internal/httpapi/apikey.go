package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// extractAPIKey pulls the caller's key from the X-API-Key header or a
// bearer Authorization header. Empty when neither is present.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func keyMatches(provided, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// RequireAPIKey returns middleware that rejects requests without the
// configured key. An empty configured key disables the check entirely,
// leaving the service open.
func RequireAPIKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := extractAPIKey(r)
			if provided == "" {
				writeError(w, http.StatusUnauthorized,
					"API key is required. Provide it in X-API-Key header or Authorization: Bearer <token>")
				return
			}
			if !keyMatches(provided, apiKey) {
				writeError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
