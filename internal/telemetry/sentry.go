package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	// DSN is the Sentry Data Source Name (required if Enabled is true)
	DSN string

	// Enabled controls whether Sentry is active
	Enabled bool

	// Environment identifies the deployment environment (dev, prod)
	Environment string

	// Release is the application version/release identifier
	Release string

	// SampleRate controls the percentage of errors to capture (0.0 to 1.0).
	// Zero means 1.0.
	SampleRate float64

	// Debug enables Sentry SDK debug logging
	Debug bool
}

// InitSentry initializes the global Sentry client.
// It returns whether Sentry is active and a cleanup function that flushes
// buffered events; call it on shutdown.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (bool, func(), error) {
	if !cfg.Enabled {
		logger.Info("Sentry disabled (SENTRY_ENABLED=false)")
		return false, func() {}, nil
	}

	if cfg.DSN == "" {
		logger.Warn("Sentry DSN not configured, disabling error tracking")
		return false, func() {}, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		SampleRate:  sampleRate,
		Debug:       cfg.Debug,
	})
	if err != nil {
		return false, nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	logger.Info("Sentry initialized",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", sampleRate,
	)

	return true, func() { sentry.Flush(2 * time.Second) }, nil
}

// SentryReporter sends reported errors to Sentry, using the hub carried by the
// request context when SentryMiddleware installed one.
type SentryReporter struct{}

// NewSentryReporter creates a reporter backed by the global Sentry client.
func NewSentryReporter() *SentryReporter {
	return &SentryReporter{}
}

// Report captures err with attrs as scope extras. establishment_id is promoted
// to a tag for dashboard filtering.
func (r *SentryReporter) Report(ctx context.Context, err error, attrs ...slog.Attr) {
	if err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		for _, a := range attrs {
			if a.Key == "establishment_id" {
				scope.SetTag(a.Key, a.Value.String())
				continue
			}
			scope.SetExtra(a.Key, a.Value.Any())
		}
		hub.CaptureException(err)
	})
}

// SentryMiddleware returns an HTTP middleware that clones a hub per request
// and reports panics before re-raising them to the recovery middleware.
func SentryMiddleware(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}

			hub := sentry.GetHubFromContext(r.Context())
			if hub == nil {
				hub = sentry.CurrentHub().Clone()
			}
			hub.Scope().SetRequest(r)
			ctx := sentry.SetHubOnContext(r.Context(), hub)

			defer func() {
				if err := recover(); err != nil {
					hub.RecoverWithContext(ctx, err)
					panic(err)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
