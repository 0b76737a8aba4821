// Package ratelimit implements sliding-window admission control keyed by
// caller identity. A window counts only requests within a trailing fixed
// duration; requests beyond the quota are denied without being recorded.
//
// The Store interface admits different backings: the in-memory store is the
// default for single-process deployments, the Redis store shares one window
// across processes.
package ratelimit

import (
	"context"
	"time"
)

// Config holds the window parameters for one limiter instance.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	Limit  int           `env:"RATE_LIMIT_MAX" envDefault:"10"`
}

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed reports whether the request was admitted and recorded.
	Allowed bool

	// Remaining is the quota left in the current window, after this
	// request when admitted.
	Remaining int

	// ResetAfter is the time until the oldest recorded request leaves
	// the window. Zero when the window is empty.
	ResetAfter time.Duration
}

// Store is a sliding-window counter keyed by identity.
//
// Allow is the single mutation path: it purges expired entries, admits and
// records the request when quota remains, and denies without recording
// otherwise. Remaining and ResetAfter are read-side projections over the
// same purge logic and never consume quota.
type Store interface {
	Allow(ctx context.Context, id string) (Decision, error)
	Remaining(ctx context.Context, id string) (int, error)
	ResetAfter(ctx context.Context, id string) (time.Duration, error)
	Close() error
}
