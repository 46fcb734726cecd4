package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/tenant"
)

// =============================================================================
// MOCK RESOLVER
// =============================================================================

// mockResolver is a mock implementation of tenant.Resolver for testing.
type mockResolver struct {
	bySlugFunc func(ctx context.Context, slug string) (*tenant.Tenant, error)
	byIDFunc   func(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
}

func (m *mockResolver) BySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	if m.bySlugFunc != nil {
		return m.bySlugFunc(ctx, slug)
	}
	return nil, tenant.ErrTenantNotFound
}

func (m *mockResolver) ByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	if m.byIDFunc != nil {
		return m.byIDFunc(ctx, id)
	}
	return nil, tenant.ErrTenantNotFound
}

func newEstablishmentRequest(slug string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/e/"+slug+"/cart", nil)
	req.SetPathValue(EstablishmentPathValue, slug)
	return req
}

// =============================================================================
// TESTS: ResolveEstablishment
// =============================================================================

func Test_ResolveEstablishment(t *testing.T) {
	activeID := uuid.New()

	tests := []struct {
		name             string
		slug             string
		tenant           *tenant.Tenant
		resolveErr       error
		expectHandler    bool
		expectStatus     int
		expectCode       string
		expectRetryAfter bool
	}{
		{
			name:          "active establishment continues",
			slug:          "pizzaria-roma",
			tenant:        &tenant.Tenant{ID: activeID, Slug: "pizzaria-roma", Status: tenant.StatusActive},
			expectHandler: true,
			expectStatus:  http.StatusOK,
		},
		{
			name:         "unknown slug returns 404",
			slug:         "nowhere",
			resolveErr:   tenant.ErrTenantNotFound,
			expectStatus: http.StatusNotFound,
			expectCode:   domain.ENOTFOUND,
		},
		{
			name:             "paused establishment returns 503 with retry-after",
			slug:             "paused",
			tenant:           &tenant.Tenant{ID: uuid.New(), Slug: "paused", Status: tenant.StatusPaused},
			expectStatus:     http.StatusServiceUnavailable,
			expectCode:       domain.EUNAVAILABLE,
			expectRetryAfter: true,
		},
		{
			name:         "closed establishment returns 404",
			slug:         "closed",
			tenant:       &tenant.Tenant{ID: uuid.New(), Slug: "closed", Status: tenant.StatusClosed},
			expectStatus: http.StatusNotFound,
			expectCode:   domain.ENOTFOUND,
		},
		{
			name:         "unrecognised status returns 404",
			slug:         "odd",
			tenant:       &tenant.Tenant{ID: uuid.New(), Slug: "odd", Status: "archived"},
			expectStatus: http.StatusNotFound,
			expectCode:   domain.ENOTFOUND,
		},
		{
			name:         "resolver failure returns 500",
			slug:         "broken",
			resolveErr:   errors.New("database connection failed"),
			expectStatus: http.StatusInternalServerError,
			expectCode:   domain.EINTERNAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &mockResolver{
				bySlugFunc: func(ctx context.Context, slug string) (*tenant.Tenant, error) {
					assert.Equal(t, tt.slug, slug, "resolver called with wrong slug")
					if tt.resolveErr != nil {
						return nil, tt.resolveErr
					}
					return tt.tenant, nil
				},
			}

			var handlerCalled bool
			var est *domain.Establishment
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				est = domain.EstablishmentFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			ResolveEstablishment(EstablishmentConfig{Resolver: resolver})(handler).ServeHTTP(rec, newEstablishmentRequest(tt.slug))

			assert.Equal(t, tt.expectStatus, rec.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)

			if tt.expectHandler {
				require.NotNil(t, est, "establishment should be in context")
				assert.Equal(t, tt.tenant.ID, est.ID)
				assert.Equal(t, tt.tenant.Slug, est.Slug)
			}

			if tt.expectCode != "" {
				var body struct {
					Error struct {
						Code    string `json:"code"`
						Message string `json:"message"`
					} `json:"error"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.expectCode, body.Error.Code)
				assert.NotContains(t, body.Error.Message, "database", "internal details must not leak")
			}

			assert.Equal(t, tt.expectRetryAfter, rec.Header().Get("Retry-After") != "")
		})
	}
}

func Test_ResolveEstablishment_MissingPathValue(t *testing.T) {
	resolver := &mockResolver{
		bySlugFunc: func(ctx context.Context, slug string) (*tenant.Tenant, error) {
			t.Fatal("resolver should not be called without a slug")
			return nil, nil
		},
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	rec := httptest.NewRecorder()
	ResolveEstablishment(EstablishmentConfig{Resolver: resolver})(handler).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_ResolveEstablishment_WithMemoryResolverAndMux(t *testing.T) {
	id := uuid.New()
	resolver := tenant.NewMemoryResolver(tenant.Tenant{ID: id, Slug: "roma", Name: "Roma", Status: tenant.StatusActive})

	mux := http.NewServeMux()
	mux.Handle("GET /e/{establishment}/ping", ResolveEstablishment(EstablishmentConfig{Resolver: resolver})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(domain.EstablishmentIDFromContext(r.Context()).String()))
		}),
	))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/e/ROMA/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id.String(), rec.Body.String(), "slugs are case-insensitive")
}

// =============================================================================
// TESTS: RequireEstablishment
// =============================================================================

func Test_RequireEstablishment(t *testing.T) {
	tests := []struct {
		name             string
		est              *domain.Establishment
		expectHandlerRun bool
		expectStatus     int
	}{
		{
			name:             "establishment present in context - continues",
			est:              &domain.Establishment{ID: uuid.New(), Slug: "roma"},
			expectHandlerRun: true,
			expectStatus:     http.StatusOK,
		},
		{
			name:             "no establishment in context - returns 404",
			expectHandlerRun: false,
			expectStatus:     http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var handlerCalled bool
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			ctx := context.Background()
			if tt.est != nil {
				ctx = domain.NewContextWithEstablishment(ctx, tt.est)
			}

			rec := httptest.NewRecorder()
			RequireEstablishment(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

			assert.Equal(t, tt.expectHandlerRun, handlerCalled)
			assert.Equal(t, tt.expectStatus, rec.Code)
		})
	}
}
