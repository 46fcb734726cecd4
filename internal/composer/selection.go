// Package composer turns a product configuration (variation, additives, flavor
// split, note, quantity and coupon) into a priced cart line item.
//
// Selection values are immutable snapshots: every operation that changes a
// selection returns a new value and leaves its input untouched, so observers
// holding an older snapshot never see it change underneath them.
package composer

import (
	"maps"
	"slices"

	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/google/uuid"
)

// MaxNoteLength bounds the free-text note sent to the kitchen.
const MaxNoteLength = 500

// Selection is the state of one product configuration session.
type Selection struct {
	VariationID uuid.UUID

	// additives maps additive id to selected quantity; only entries > 0 are kept.
	additives map[uuid.UUID]int

	// Split enables dividing one unit among FlavorCount flavors. Flavors holds
	// slots 2..FlavorCount in order; uuid.Nil marks an empty slot.
	Split       bool
	FlavorCount int
	Flavors     []uuid.UUID

	Note     string
	Quantity int
	Coupon   *domain.CouponTerms
}

// NewSelection returns the defaults for a fresh session: first variation, no
// additives, split off, quantity 1, no coupon.
func NewSelection(product *domain.Product) Selection {
	sel := Selection{Quantity: 1}
	if len(product.Variations) > 0 {
		sel.VariationID = product.Variations[0].ID
	}
	return sel
}

// AdditiveQuantity returns the selected quantity of an additive (0 if unselected).
func (s Selection) AdditiveQuantity(id uuid.UUID) int {
	return s.additives[id]
}

// Additives returns a copy of the additive id → quantity map.
func (s Selection) Additives() map[uuid.UUID]int {
	return maps.Clone(s.additives)
}

// GroupTotal sums selected quantities across the additives of group.
func (s Selection) GroupTotal(group domain.AdditiveGroup) int {
	total := 0
	for _, a := range group.Additives {
		total += s.additives[a.ID]
	}
	return total
}

// clone deep-copies the mutable parts so the copy can be changed freely.
func (s Selection) clone() Selection {
	c := s
	c.additives = maps.Clone(s.additives)
	c.Flavors = slices.Clone(s.Flavors)
	if s.Coupon != nil {
		terms := *s.Coupon
		c.Coupon = &terms
	}
	return c
}

// WithVariation selects a variation of product.
func (s Selection) WithVariation(product *domain.Product, id uuid.UUID) (Selection, error) {
	if _, ok := product.Variation(id); !ok {
		return s, domain.ErrVariationNotFound
	}
	c := s.clone()
	c.VariationID = id
	return c, nil
}

// WithNote sets the free-text note.
func (s Selection) WithNote(note string) (Selection, error) {
	if len([]rune(note)) > MaxNoteLength {
		return s, ErrNoteTooLong
	}
	c := s.clone()
	c.Note = note
	return c, nil
}

// WithQuantity sets the line quantity; it must be at least 1.
func (s Selection) WithQuantity(quantity int) (Selection, error) {
	if quantity < 1 {
		return s, domain.ErrInvalidQuantity
	}
	c := s.clone()
	c.Quantity = quantity
	return c, nil
}

// WithCoupon attaches coupon terms; nil removes the coupon.
func (s Selection) WithCoupon(terms *domain.CouponTerms) Selection {
	c := s.clone()
	c.Coupon = nil
	if terms != nil {
		t := *terms
		c.Coupon = &t
	}
	return c
}
