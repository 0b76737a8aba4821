// mailward is an HTTP email-sending service: it validates and normalizes
// inbound send requests, resolves attachments, composes MIME messages, and
// delivers them through the Gmail API or Resend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mailward/mailward/internal/config"
	"github.com/mailward/mailward/internal/httpapi"
	"github.com/mailward/mailward/pkg/attachment"
	"github.com/mailward/mailward/pkg/logger"
	"github.com/mailward/mailward/pkg/mailer"
	"github.com/mailward/mailward/pkg/mailer/gmail"
	"github.com/mailward/mailward/pkg/mailer/resend"
	"github.com/mailward/mailward/pkg/ratelimit"
	"github.com/mailward/mailward/pkg/redis"
)

const (
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
	readHeaderTimeout = 5 * time.Second
	maxHeaderBytes    = 1 << 20 // 1MB
	shutdownTimeout   = 10 * time.Second
)

func main() {
	log := logger.New(httpapi.RequestIDExtractor()).With("app", "mailward")

	if err := run(log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sender, err := newSender(cfg)
	if err != nil {
		return err
	}

	authStore, anonStore, closeStores, err := newStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	var mailerOpts []mailer.Option
	if cfg.SanitizeHTML {
		mailerOpts = append(mailerOpts, mailer.WithSanitizer(bluemonday.UGCPolicy()))
	}
	m := mailer.New(sender, attachment.NewResolver(cfg.Attachments), mailerOpts...)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handler: httpapi.NewHandler(m, log),
		OAuth:   httpapi.NewOAuthHandler(cfg.OAuth, log),
		APIKey:  cfg.APIKey,
		RateLimit: httpapi.RateLimitConfig{
			APIKey:    cfg.APIKey,
			Auth:      authStore,
			AuthLimit: cfg.AuthRateMax,
			Anon:      anonStore,
			AnonLimit: cfg.AnonRateMax,
			Logger:    log,
		},
		CORS: []httpapi.CORSOption{httpapi.WithAllowOrigins(cfg.AllowOrigins...)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", server.Addr, "provider", cfg.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

func newSender(cfg config.Config) (mailer.Sender, error) {
	switch cfg.Provider {
	case "resend":
		return resend.New(cfg.Resend)
	default:
		return gmail.New(cfg.Gmail)
	}
}

// newStores builds the two independent limiter instances. With REDIS_URL
// set both share one Redis backend under distinct key prefixes, so
// multi-process deployments enforce a single window.
func newStores(ctx context.Context, cfg config.Config, log *slog.Logger) (auth, anon ratelimit.Store, closeAll func(), err error) {
	if cfg.RedisURL == "" {
		authMem := ratelimit.NewMemory(ratelimit.Config{Window: cfg.RateWindow, Limit: cfg.AuthRateMax})
		anonMem := ratelimit.NewMemory(ratelimit.Config{Window: cfg.RateWindow, Limit: cfg.AnonRateMax})
		return authMem, anonMem, func() {
			_ = authMem.Close()
			_ = anonMem.Close()
		}, nil
	}

	client, err := redis.Open(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Info("rate limiting backed by redis")

	auth = ratelimit.NewRedis(client, ratelimit.Config{Window: cfg.RateWindow, Limit: cfg.AuthRateMax},
		ratelimit.WithPrefix("ratelimit:auth"))
	anon = ratelimit.NewRedis(client, ratelimit.Config{Window: cfg.RateWindow, Limit: cfg.AnonRateMax},
		ratelimit.WithPrefix("ratelimit:anon"))
	return auth, anon, func() { _ = client.Close() }, nil
}
