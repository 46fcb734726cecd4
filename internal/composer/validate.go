package composer

import (
	"fmt"

	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/google/uuid"
)

// Verdict is the result of ValidateSelection. When Valid is false, Group
// points at the first required group that is under-filled (nil when the
// variation is the problem).
type Verdict struct {
	Valid  bool                  `json:"valid"`
	Group  *domain.AdditiveGroup `json:"-"`
	Reason string                `json:"reason,omitempty"`
}

// GroupID returns the failing group's id, or uuid.Nil.
func (v Verdict) GroupID() uuid.UUID {
	if v.Group == nil {
		return uuid.Nil
	}
	return v.Group.ID
}

// ValidateSelection reports whether sel can be added to the cart.
//
// Over-selection is not checked: AdjustAdditiveQuantity refuses it at
// mutation time, so it cannot be present here.
func ValidateSelection(product *domain.Product, sel Selection) Verdict {
	if _, ok := product.Variation(sel.VariationID); !ok {
		return Verdict{Reason: "Choose a variation"}
	}

	for i := range product.AdditiveGroups {
		g := &product.AdditiveGroups[i]
		if !g.Required {
			continue
		}
		if sel.GroupTotal(*g) < g.MinSelection {
			return Verdict{
				Group:  g,
				Reason: fmt.Sprintf("Choose at least %d in %q", g.MinSelection, g.Name),
			}
		}
	}

	return Verdict{Valid: true}
}

// GroupStatus is the per-group progress shown next to each additive group.
type GroupStatus struct {
	GroupID   uuid.UUID `json:"group_id"`
	Selected  int       `json:"selected"`
	Min       int       `json:"min"`
	Max       int       `json:"max"`
	Required  bool      `json:"required"`
	Satisfied bool      `json:"satisfied"`
	Full      bool      `json:"full"`
}

// GroupProgress returns the status of every additive group, in product order.
func GroupProgress(product *domain.Product, sel Selection) []GroupStatus {
	out := make([]GroupStatus, 0, len(product.AdditiveGroups))
	for _, g := range product.AdditiveGroups {
		total := sel.GroupTotal(g)
		out = append(out, GroupStatus{
			GroupID:   g.ID,
			Selected:  total,
			Min:       g.MinSelection,
			Max:       g.MaxSelection,
			Required:  g.Required,
			Satisfied: !g.Required || total >= g.MinSelection,
			Full:      total >= g.MaxSelection,
		})
	}
	return out
}
