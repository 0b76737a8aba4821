// Package config aggregates the service configuration from environment
// variables using caarlos0/env.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mailward/mailward/internal/httpapi"
	"github.com/mailward/mailward/pkg/attachment"
	"github.com/mailward/mailward/pkg/mailer/gmail"
	"github.com/mailward/mailward/pkg/mailer/resend"
)

// Config is the full service configuration. Provider selects the delivery
// backend; only that provider's credentials need to be present.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	APIKey   string `env:"API_KEY"`
	Provider string `env:"MAIL_PROVIDER" envDefault:"gmail"`

	// RedisURL switches rate limiting to a shared Redis-backed window.
	// Empty keeps the in-memory store.
	RedisURL string `env:"REDIS_URL"`

	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`

	// SanitizeHTML strips unsafe markup from HTML bodies before delivery.
	SanitizeHTML bool `env:"SANITIZE_HTML"`

	// Sliding-window quotas. The window is shared; callers presenting the
	// valid API key get the higher quota.
	RateWindow  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	AuthRateMax int           `env:"RATE_LIMIT_MAX" envDefault:"10"`
	AnonRateMax int           `env:"RATE_LIMIT_ANON_MAX" envDefault:"5"`

	Gmail       gmail.Config
	OAuth       httpapi.OAuthConfig
	Resend      resend.Config
	Attachments attachment.ResolverConfig
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	switch cfg.Provider {
	case "gmail", "resend":
	default:
		return Config{}, fmt.Errorf("config: unknown MAIL_PROVIDER %q (want gmail or resend)", cfg.Provider)
	}

	return cfg, nil
}
