package domain

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestEstablishmentContext(t *testing.T) {
	t.Run("EstablishmentFromContext returns nil when absent", func(t *testing.T) {
		if got := EstablishmentFromContext(context.Background()); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("EstablishmentIDFromContext returns uuid.Nil when absent", func(t *testing.T) {
		if got := EstablishmentIDFromContext(context.Background()); got != uuid.Nil {
			t.Errorf("expected uuid.Nil, got %s", got)
		}
	})

	t.Run("establishment round-trips through context", func(t *testing.T) {
		est := &Establishment{ID: uuid.New(), Slug: "pizzaria-do-ze"}
		ctx := NewContextWithEstablishment(context.Background(), est)

		got := EstablishmentFromContext(ctx)
		if got == nil || got.ID != est.ID || got.Slug != est.Slug {
			t.Fatalf("expected %+v, got %+v", est, got)
		}
		if id := EstablishmentIDFromContext(ctx); id != est.ID {
			t.Errorf("expected %s, got %s", est.ID, id)
		}
	})

	t.Run("RequireEstablishmentID errors when absent", func(t *testing.T) {
		_, err := RequireEstablishmentID(context.Background())
		if err != ErrEstablishmentRequired {
			t.Errorf("expected ErrEstablishmentRequired, got %v", err)
		}
	})

	t.Run("RequireEstablishmentID returns the id when present", func(t *testing.T) {
		est := &Establishment{ID: uuid.New()}
		id, err := RequireEstablishmentID(NewContextWithEstablishment(context.Background(), est))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != est.ID {
			t.Errorf("expected %s, got %s", est.ID, id)
		}
	})
}

func TestRequestIDContext(t *testing.T) {
	t.Run("RequestIDFromContext returns empty string when no request ID", func(t *testing.T) {
		if requestID := RequestIDFromContext(context.Background()); requestID != "" {
			t.Errorf("expected empty string, got %q", requestID)
		}
	})

	t.Run("request ID and establishment coexist", func(t *testing.T) {
		est := &Establishment{ID: uuid.New()}
		ctx := NewContextWithEstablishment(context.Background(), est)
		ctx = NewContextWithRequestID(ctx, "req-12345")

		if got := RequestIDFromContext(ctx); got != "req-12345" {
			t.Errorf("expected %q, got %q", "req-12345", got)
		}
		if got := EstablishmentIDFromContext(ctx); got != est.ID {
			t.Errorf("expected %s, got %s", est.ID, got)
		}
	})
}
