package composer

import (
	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssembleLineItem produces the priced cart entry for a valid selection.
//
// Callers check ValidateSelection first; an invalid selection returns
// ErrSelectionInvalid rather than a partially priced item. Additives are
// listed in group order, then additive order. Candidates are only used to
// name flavor companions.
func AssembleLineItem(product *domain.Product, sel Selection, candidates ...domain.Product) (domain.LineItem, error) {
	if v := ValidateSelection(product, sel); !v.Valid {
		return domain.LineItem{}, ErrSelectionInvalid
	}

	variation, _ := product.Variation(sel.VariationID)

	additives := make([]domain.LineAdditive, 0)
	for _, g := range product.AdditiveGroups {
		for _, a := range g.Additives {
			q := sel.additives[a.ID]
			if q <= 0 {
				continue
			}
			additives = append(additives, domain.LineAdditive{
				ID:        a.ID,
				GroupID:   g.ID,
				Name:      a.Name,
				UnitPrice: a.Price,
				Quantity:  q,
			})
		}
	}

	item := domain.LineItem{
		ID:          uuid.New(),
		ProductID:   product.ID,
		ProductName: product.Name,
		ImageURL:    product.ImageURL,
		Variation: domain.LineVariation{
			ID:    variation.ID,
			Name:  variation.Name,
			Price: variation.EffectivePrice(),
		},
		Additives: additives,
		Flavors:   filledFlavors(sel, candidates),
		Note:      sel.Note,
		Quantity:  sel.Quantity,
		UnitPrice: ComputeUnitPrice(product, sel),
		Discount:  decimal.Zero,
	}
	if sel.Coupon != nil {
		terms := *sel.Coupon
		item.Coupon = &terms
	}
	item.Reprice()

	return item, nil
}
