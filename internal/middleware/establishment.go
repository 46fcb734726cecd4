package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/tenant"
)

// EstablishmentPathValue is the route wildcard carrying the establishment slug.
const EstablishmentPathValue = "establishment"

// EstablishmentConfig holds configuration for establishment resolution.
type EstablishmentConfig struct {
	Resolver tenant.Resolver
	Logger   *slog.Logger
}

// ResolveEstablishment looks up the establishment named by the
// {establishment} path wildcard and stores it in the request context.
//
// Responses:
//   - unknown slug: 404
//   - paused establishment: 503 with Retry-After
//   - closed or unrecognised status: 404
//   - resolver failure: 500
//
// The request logger gains an establishment_id attribute on success.
func ResolveEstablishment(cfg EstablishmentConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := GetLogger(ctx, cfg.Logger)

			slug := r.PathValue(EstablishmentPathValue)
			if slug == "" {
				respondNotFound(w, r, "Establishment not found")
				return
			}

			t, err := cfg.Resolver.BySlug(ctx, slug)
			if err != nil {
				if errors.Is(err, tenant.ErrTenantNotFound) {
					respondNotFound(w, r, "Establishment not found")
					return
				}
				logger.ErrorContext(ctx, "failed to resolve establishment",
					"slug", slug,
					"error", err,
				)
				respondInternalError(w, r, err)
				return
			}

			switch t.Status {
			case tenant.StatusActive:
			case tenant.StatusPaused:
				w.Header().Set("Retry-After", "3600")
				respondUnavailable(w, r, "This establishment is not taking orders right now")
				return
			default:
				respondNotFound(w, r, "Establishment not found")
				return
			}

			ctx = domain.NewContextWithEstablishment(ctx, t.Establishment())
			ctx = WithLogger(ctx, logger.With(slog.String("establishment_id", t.ID.String())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireEstablishment rejects requests that reached a handler without a
// resolved establishment.
func RequireEstablishment(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if domain.EstablishmentFromContext(r.Context()) == nil {
			respondNotFound(w, r, "Establishment not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}
