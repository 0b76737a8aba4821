package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mailward/mailward/pkg/ratelimit"
)

// RateLimitConfig wires the two independent limiter instances: callers
// presenting the valid API key get the authenticated quota, everyone else
// the stricter anonymous one.
type RateLimitConfig struct {
	APIKey string

	Auth      ratelimit.Store
	AuthLimit int

	Anon      ratelimit.Store
	AnonLimit int

	Logger *slog.Logger
}

// clientIP returns the originating address: first X-Forwarded-For entry,
// then X-Real-IP, then the connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	if host == "" {
		return "unknown"
	}
	return host
}

// identity derives the rate-limit key. Any presented key, valid or not,
// buckets the caller under it; only a key matching the configured one
// selects the authenticated quota.
func (cfg RateLimitConfig) identity(r *http.Request) (id string, authenticated bool) {
	provided := extractAPIKey(r)
	if provided != "" {
		return "api_key:" + provided, cfg.APIKey != "" && keyMatches(provided, cfg.APIKey)
	}
	return "ip:" + clientIP(r), false
}

// RateLimit returns middleware enforcing the sliding-window quota. Allowed
// requests carry X-RateLimit-Limit/Remaining/Reset headers; denied ones
// get a 429 with Retry-After. Store failures fail open: an unreachable
// backend degrades to no limiting rather than a dead service.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, authenticated := cfg.identity(r)

			store, limit := cfg.Anon, cfg.AnonLimit
			if authenticated {
				store, limit = cfg.Auth, cfg.AuthLimit
			}

			decision, err := store.Allow(r.Context(), id)
			if err != nil {
				logger.ErrorContext(r.Context(), "rate limit store failure", "error", err, "identity", id)
				next.ServeHTTP(w, r)
				return
			}

			resetSeconds := int(decision.ResetAfter.Round(time.Second).Seconds())
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix()+int64(resetSeconds), 10))

			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(resetSeconds))
				writeJSON(w, http.StatusTooManyRequests, errorResponse{
					Error:      "Rate limit exceeded",
					Message:    "Too many requests. Please try again later.",
					RetryAfter: resetSeconds,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
