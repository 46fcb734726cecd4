package composer

import (
	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/google/uuid"
)

// AdjustAdditiveQuantity changes the quantity of additive within group by
// delta (floored at 0). It is the only admission point for additive
// quantities: the change is refused, and sel returned unchanged with false,
// when it would push the group past MaxSelection or give a single-unit
// additive more than one unit. Reductions are always admitted.
//
// An accepted change to 0 removes the additive from the selection.
func AdjustAdditiveQuantity(group domain.AdditiveGroup, additive domain.Additive, sel Selection, delta int) (Selection, bool) {
	current := sel.additives[additive.ID]
	if delta > 0 && delta > group.MaxSelection-current {
		// Would exceed the group even alone; also keeps current+delta from
		// overflowing.
		return sel, false
	}
	next := max(current+delta, 0)

	if next == current {
		return sel, true
	}

	if next > current {
		if !additive.AllowsMultipleUnits && next > 1 {
			return sel, false
		}
		if sel.GroupTotal(group)-current+next > group.MaxSelection {
			return sel, false
		}
	}

	c := sel.clone()
	if c.additives == nil {
		c.additives = make(map[uuid.UUID]int)
	}
	if next == 0 {
		delete(c.additives, additive.ID)
	} else {
		c.additives[additive.ID] = next
	}
	return c, true
}
