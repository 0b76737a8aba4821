package attachment

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultFetchTimeout bounds a single remote attachment fetch.
const DefaultFetchTimeout = 30 * time.Second

const userAgent = "mailward/1.0"

// ResolverConfig holds resolver limits.
// Embed this in your app config for env parsing with caarlos0/env.
type ResolverConfig struct {
	MaxSize      int64         `env:"ATTACHMENT_MAX_SIZE" envDefault:"26214400"`
	FetchTimeout time.Duration `env:"ATTACHMENT_FETCH_TIMEOUT" envDefault:"30s"`
}

// Resolved is the outcome of a successful URL fetch: base64-encoded bytes,
// the decoded size, and the content type the server declared (if any).
type Resolved struct {
	Content     string
	Size        int64
	ContentType string
}

// Resolver fetches remote attachment bytes under size and time bounds.
type Resolver struct {
	client  *http.Client
	maxSize int64
	timeout time.Duration
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient sets a custom HTTP client for attachment fetches.
// Useful for testing with httptest servers or injecting custom transports.
func WithHTTPClient(client *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.client = client
	}
}

// NewResolver creates a Resolver. Zero config values fall back to the
// 25 MiB size ceiling and the 30 second fetch timeout.
func NewResolver(cfg ResolverConfig, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:  http.DefaultClient,
		maxSize: cfg.MaxSize,
		timeout: cfg.FetchTimeout,
	}
	if r.maxSize <= 0 {
		r.maxSize = MaxSize
	}
	if r.timeout <= 0 {
		r.timeout = DefaultFetchTimeout
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches the attachment at rawURL and returns its base64-encoded
// content. Only http and https URLs are accepted. The fetch is bounded by
// the resolver timeout; expiry surfaces as ErrResolveTimeout, which is
// distinguishable from transport failures and non-success HTTP statuses
// (FetchError).
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*Resolved, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL %q: %v", ErrResolve, rawURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported protocol %q, only http and https are allowed", ErrResolve, parsed.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolve, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w loading attachment from URL %s", ErrResolveTimeout, rawURL)
		}
		return nil, fmt.Errorf("%w: %v", ErrResolve, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	// Reject early when the server declares an oversized body.
	if resp.ContentLength > r.maxSize {
		return nil, &SizeError{Filename: rawURL, Size: resp.ContentLength, Limit: r.maxSize}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxSize+1))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w loading attachment from URL %s", ErrResolveTimeout, rawURL)
		}
		return nil, fmt.Errorf("%w: reading response body: %v", ErrResolve, err)
	}

	if int64(len(body)) > r.maxSize {
		return nil, &SizeError{Filename: rawURL, Size: int64(len(body)), Limit: r.maxSize}
	}

	return &Resolved{
		Content:     base64.StdEncoding.EncodeToString(body),
		Size:        int64(len(body)),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
