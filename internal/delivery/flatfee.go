package delivery

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FlatFeeProvider charges a fixed delivery fee, waived at or above an
// optional subtotal threshold. Pickup orders are free.
type FlatFeeProvider struct {
	fee       decimal.Decimal
	freeAbove decimal.Decimal
}

// NewFlatFeeProvider creates a flat-fee provider. A zero freeAbove disables
// the free-delivery threshold.
func NewFlatFeeProvider(fee, freeAbove decimal.Decimal) Provider {
	return &FlatFeeProvider{fee: fee.Round(2), freeAbove: freeAbove.Round(2)}
}

// Quote prices the order.
func (p *FlatFeeProvider) Quote(ctx context.Context, params QuoteParams) (*Quote, error) {
	switch {
	case params.EstablishmentID == uuid.Nil:
		return nil, ErrEstablishmentRequired
	case !params.Mode.Valid():
		return nil, ErrInvalidMode
	case params.Subtotal.IsNegative():
		return nil, ErrInvalidSubtotal
	}

	q := &Quote{Mode: params.Mode, Fee: decimal.Zero}
	if params.Mode == ModePickup {
		return q, nil
	}

	if p.freeAbove.IsPositive() && params.Subtotal.GreaterThanOrEqual(p.freeAbove) {
		q.FreeDelivery = true
		return q, nil
	}

	q.Fee = p.fee
	return q, nil
}
