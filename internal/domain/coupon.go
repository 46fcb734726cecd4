package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountKind enumerates the supported coupon discount strategies.
type DiscountKind string

const (
	// DiscountFixed subtracts a fixed amount, capped at the subtotal.
	DiscountFixed DiscountKind = "fixed"
	// DiscountPercent subtracts subtotal × value / 100.
	DiscountPercent DiscountKind = "percent"
)

// Valid reports whether k is a known discount kind.
func (k DiscountKind) Valid() bool {
	return k == DiscountFixed || k == DiscountPercent
}

var hundred = decimal.NewFromInt(100)

// CouponTerms are the discount terms of an accepted coupon.
type CouponTerms struct {
	Code  string          `json:"code"`
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`

	// MinSubtotal is the smallest subtotal the coupon discounts. Below it the
	// coupon stays attached but gives nothing, so lowering the quantity after
	// validation cannot keep a discount the coupon would have refused.
	MinSubtotal decimal.Decimal `json:"min_subtotal,omitzero"`
}

// Discount computes the discount for subtotal, rounded to centavos and
// clamped to [0, subtotal] so the discounted total is never negative.
func (t CouponTerms) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || !t.Value.IsPositive() {
		return decimal.Zero
	}
	if subtotal.LessThan(t.MinSubtotal) {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch t.Kind {
	case DiscountPercent:
		d = subtotal.Mul(t.Value).Div(hundred).Round(2)
	case DiscountFixed:
		d = t.Value
	default:
		return decimal.Zero
	}

	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}

// DiscountedTotal returns max(0, subtotal - discount).
func DiscountedTotal(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// CouponVerdict is the answer of a CouponValidator.
// Reason is set only when Valid is false.
type CouponVerdict struct {
	Valid       bool            `json:"valid"`
	Kind        DiscountKind    `json:"discount_kind,omitempty"`
	Value       decimal.Decimal `json:"discount_value,omitempty"`
	MinSubtotal decimal.Decimal `json:"min_subtotal,omitzero"`
	Reason      string          `json:"invalid_reason,omitempty"`
}

// CouponValidator checks a coupon code for an establishment against a subtotal.
// A coupon that exists but does not apply yields an invalid verdict, not an error;
// errors are reserved for infrastructure failures.
type CouponValidator interface {
	Validate(ctx context.Context, establishmentID uuid.UUID, code string, subtotal decimal.Decimal) (CouponVerdict, error)
}
