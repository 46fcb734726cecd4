package delivery_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/cardapio/internal/delivery"
	"github.com/dukerupert/cardapio/internal/domain"
)

func TestFlatFeeProvider_Quote(t *testing.T) {
	provider := delivery.NewFlatFeeProvider(decimal.RequireFromString("7.5"), decimal.RequireFromString("100"))
	est := uuid.New()

	tests := []struct {
		name     string
		mode     delivery.Mode
		subtotal string
		wantFee  string
		wantFree bool
	}{
		{"delivery below threshold", delivery.ModeDelivery, "59.80", "7.50", false},
		{"delivery at threshold", delivery.ModeDelivery, "100.00", "0.00", true},
		{"delivery above threshold", delivery.ModeDelivery, "132.40", "0.00", true},
		{"pickup is free", delivery.ModePickup, "12.00", "0.00", false},
		{"empty subtotal still pays the fee", delivery.ModeDelivery, "0", "7.50", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := provider.Quote(context.Background(), delivery.QuoteParams{
				EstablishmentID: est,
				Mode:            tt.mode,
				Subtotal:        decimal.RequireFromString(tt.subtotal),
			})

			require.NoError(t, err)
			assert.Equal(t, tt.mode, q.Mode)
			assert.Equal(t, tt.wantFee, q.Fee.StringFixed(2))
			assert.Equal(t, tt.wantFree, q.FreeDelivery)
		})
	}
}

func TestFlatFeeProvider_NoThreshold(t *testing.T) {
	provider := delivery.NewFlatFeeProvider(decimal.NewFromInt(5), decimal.Zero)

	q, err := provider.Quote(context.Background(), delivery.QuoteParams{
		EstablishmentID: uuid.New(),
		Mode:            delivery.ModeDelivery,
		Subtotal:        decimal.NewFromInt(10000),
	})

	require.NoError(t, err)
	assert.Equal(t, "5.00", q.Fee.StringFixed(2))
	assert.False(t, q.FreeDelivery)
}

func TestFlatFeeProvider_Errors(t *testing.T) {
	provider := delivery.NewFlatFeeProvider(decimal.NewFromInt(5), decimal.Zero)

	tests := []struct {
		name    string
		params  delivery.QuoteParams
		wantErr error
	}{
		{
			name:    "missing establishment",
			params:  delivery.QuoteParams{Mode: delivery.ModeDelivery},
			wantErr: delivery.ErrEstablishmentRequired,
		},
		{
			name:    "unknown mode",
			params:  delivery.QuoteParams{EstablishmentID: uuid.New(), Mode: "drone"},
			wantErr: delivery.ErrInvalidMode,
		},
		{
			name: "negative subtotal",
			params: delivery.QuoteParams{
				EstablishmentID: uuid.New(),
				Mode:            delivery.ModeDelivery,
				Subtotal:        decimal.NewFromInt(-1),
			},
			wantErr: delivery.ErrInvalidSubtotal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := provider.Quote(context.Background(), tt.params)

			assert.Nil(t, q)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}
}
