// Package coupon validates discount codes for an establishment.
package coupon

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/cardapio/internal/domain"
)

// Reasons shown to customers when a coupon does not apply.
const (
	ReasonNotFound    = "Coupon not found"
	ReasonInactive    = "Coupon is no longer active"
	ReasonNotStarted  = "Coupon is not valid yet"
	ReasonExpired     = "Coupon has expired"
	ReasonExhausted   = "Coupon usage limit reached"
	reasonMinSubtotal = "Minimum order of R$ %s for this coupon"
)

// Coupon is a stored discount code and its redemption rules.
type Coupon struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
	Code            string
	Kind            domain.DiscountKind
	Value           decimal.Decimal

	// MinSubtotal is the smallest subtotal the coupon applies to.
	MinSubtotal decimal.Decimal

	StartsAt  *time.Time
	ExpiresAt *time.Time

	// UsageLimit caps redemptions; nil is unlimited.
	UsageLimit *int
	TimesUsed  int

	Active bool
}

// Evaluate applies the redemption rules to c for subtotal at now. A coupon
// that does not apply yields an invalid verdict carrying the reason.
func Evaluate(c Coupon, subtotal decimal.Decimal, now time.Time) domain.CouponVerdict {
	switch {
	case !c.Active:
		return reject(ReasonInactive)
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return reject(ReasonNotStarted)
	case c.ExpiresAt != nil && !now.Before(*c.ExpiresAt):
		return reject(ReasonExpired)
	case c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit:
		return reject(ReasonExhausted)
	case subtotal.LessThan(c.MinSubtotal):
		return reject(fmt.Sprintf(reasonMinSubtotal, c.MinSubtotal.StringFixed(2)))
	case !c.Kind.Valid() || !c.Value.IsPositive():
		return reject(ReasonInactive)
	}

	return domain.CouponVerdict{
		Valid:       true,
		Kind:        c.Kind,
		Value:       c.Value,
		MinSubtotal: c.MinSubtotal,
	}
}

func reject(reason string) domain.CouponVerdict {
	return domain.CouponVerdict{Valid: false, Reason: reason}
}
