package coupon

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/cardapio/internal/domain"
)

// MockValidator is a test implementation of domain.CouponValidator and Redeemer.
type MockValidator struct {
	ValidateFunc func(ctx context.Context, establishmentID uuid.UUID, code string, subtotal decimal.Decimal) (domain.CouponVerdict, error)
	RedeemFunc   func(ctx context.Context, establishmentID uuid.UUID, code string) error
}

// Validate delegates to ValidateFunc or reports the coupon as not found.
func (m *MockValidator) Validate(ctx context.Context, establishmentID uuid.UUID, code string, subtotal decimal.Decimal) (domain.CouponVerdict, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, establishmentID, code, subtotal)
	}
	return reject(ReasonNotFound), nil
}

// Redeem delegates to RedeemFunc or succeeds.
func (m *MockValidator) Redeem(ctx context.Context, establishmentID uuid.UUID, code string) error {
	if m.RedeemFunc != nil {
		return m.RedeemFunc(ctx, establishmentID, code)
	}
	return nil
}
