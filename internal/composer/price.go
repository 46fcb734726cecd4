package composer

import (
	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/shopspring/decimal"
)

// ComputeUnitPrice returns the price of one unit: the selected variation's
// effective price plus every selected additive's price times its quantity.
//
// Flavor-split companions do not change the price. An unknown variation
// contributes zero; callers gate on ValidateSelection before charging.
func ComputeUnitPrice(product *domain.Product, sel Selection) decimal.Decimal {
	price := decimal.Zero
	if v, ok := product.Variation(sel.VariationID); ok {
		price = v.EffectivePrice()
	}

	for _, g := range product.AdditiveGroups {
		for _, a := range g.Additives {
			q := sel.additives[a.ID]
			if q <= 0 {
				continue
			}
			price = price.Add(a.Price.Mul(decimal.NewFromInt(int64(q))))
		}
	}

	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// Subtotal is the unit price times the selection quantity.
func Subtotal(product *domain.Product, sel Selection) decimal.Decimal {
	return ComputeUnitPrice(product, sel).Mul(decimal.NewFromInt(int64(sel.Quantity)))
}

// Discount is the applied coupon's discount on the current subtotal, clamped
// so the total is never negative.
func Discount(product *domain.Product, sel Selection) decimal.Decimal {
	if sel.Coupon == nil {
		return decimal.Zero
	}
	return sel.Coupon.Discount(Subtotal(product, sel))
}

// Total is max(0, subtotal - discount).
func Total(product *domain.Product, sel Selection) decimal.Decimal {
	return domain.DiscountedTotal(Subtotal(product, sel), Discount(product, sel))
}
