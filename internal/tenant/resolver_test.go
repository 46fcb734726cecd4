package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResolver(t *testing.T) {
	ctx := context.Background()
	pizzaria := Tenant{ID: uuid.New(), Slug: "Bella-Napoli", Name: "Bella Napoli", Status: StatusActive}
	r := NewMemoryResolver(pizzaria)

	got, err := r.BySlug(ctx, "bella-napoli")
	require.NoError(t, err)
	assert.Equal(t, pizzaria.ID, got.ID)
	assert.Equal(t, "bella-napoli", got.Slug)

	got, err = r.ByID(ctx, pizzaria.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bella Napoli", got.Name)

	_, err = r.BySlug(ctx, "unknown")
	assert.ErrorIs(t, err, ErrTenantNotFound)
	_, err = r.ByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestTenant_IsActive(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusActive, true},
		{StatusPaused, false},
		{StatusClosed, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, (&Tenant{Status: tt.status}).IsActive())
		})
	}

	var nilTenant *Tenant
	assert.False(t, nilTenant.IsActive())
}

func TestTenant_Establishment(t *testing.T) {
	tn := &Tenant{ID: uuid.New(), Slug: "bella-napoli", Name: "Bella Napoli", Status: StatusActive}

	est := tn.Establishment()

	assert.Equal(t, tn.ID, est.ID)
	assert.Equal(t, "bella-napoli", est.Slug)
}
