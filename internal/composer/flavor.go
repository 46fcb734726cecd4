package composer

import (
	"slices"

	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/google/uuid"
)

// SetSplit turns the flavor split on or off.
//
// Enabling requires a product that allows splitting and a count within
// 2..product.FlavorLimit(). Changing the count keeps the chosen companions of
// the slots that still exist and drops the rest; new slots start empty.
// Disabling clears all companions.
func SetSplit(product *domain.Product, sel Selection, enabled bool, count int) (Selection, error) {
	if !enabled {
		if !sel.Split {
			return sel, nil
		}
		c := sel.clone()
		c.Split = false
		c.FlavorCount = 0
		c.Flavors = nil
		return c, nil
	}

	limit := product.FlavorLimit()
	if limit == 0 {
		return sel, ErrSplitNotAllowed
	}
	if count < 2 || count > limit {
		return sel, ErrInvalidFlavorCount
	}

	c := sel.clone()
	c.Split = true
	c.FlavorCount = count

	slots := count - 1
	if len(c.Flavors) > slots {
		c.Flavors = c.Flavors[:slots]
	}
	for len(c.Flavors) < slots {
		c.Flavors = append(c.Flavors, uuid.Nil)
	}
	return c, nil
}

// SetFlavorSlot assigns a companion product to slot (2..FlavorCount); uuid.Nil
// clears the slot. Slot 1 is the base product and cannot be changed.
func SetFlavorSlot(product *domain.Product, candidates []domain.Product, sel Selection, slot int, productID uuid.UUID) (Selection, error) {
	if !sel.Split {
		return sel, ErrSplitNotEnabled
	}
	if slot < 2 || slot > sel.FlavorCount {
		return sel, ErrInvalidFlavorSlot
	}

	idx := slot - 2
	if productID != uuid.Nil {
		available := AvailableCandidates(product, candidates, sel, slot)
		if !slices.ContainsFunc(available, func(p domain.Product) bool { return p.ID == productID }) {
			return sel, ErrFlavorUnavailable
		}
	}

	c := sel.clone()
	c.Flavors[idx] = productID
	return c, nil
}

// AvailableCandidates lists the candidates that may fill slot: every candidate
// except the base product and products already chosen in other slots.
func AvailableCandidates(product *domain.Product, candidates []domain.Product, sel Selection, slot int) []domain.Product {
	taken := make(map[uuid.UUID]struct{}, len(sel.Flavors)+1)
	taken[product.ID] = struct{}{}
	for i, id := range sel.Flavors {
		if i+2 == slot || id == uuid.Nil {
			continue
		}
		taken[id] = struct{}{}
	}

	out := make([]domain.Product, 0, len(candidates))
	for _, p := range candidates {
		if _, ok := taken[p.ID]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

// filledFlavors resolves the non-empty companion slots against candidates.
// A companion missing from candidates is listed by id only.
func filledFlavors(sel Selection, candidates []domain.Product) []domain.LineFlavor {
	if !sel.Split {
		return nil
	}

	var out []domain.LineFlavor
	for i, id := range sel.Flavors {
		if id == uuid.Nil {
			continue
		}
		f := domain.LineFlavor{Slot: i + 2, ProductID: id}
		for _, p := range candidates {
			if p.ID == id {
				f.Name = p.Name
				break
			}
		}
		out = append(out, f)
	}
	return out
}
