package storefront

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/cardapio/internal/composer"
	"github.com/dukerupert/cardapio/internal/delivery"
	"github.com/dukerupert/cardapio/internal/domain"
)

// sessionView is the JSON form of a composer snapshot.
type sessionView struct {
	ID          uuid.UUID              `json:"id"`
	Version     uint64                 `json:"version"`
	Ready       bool                   `json:"ready"`
	Product     *domain.Product        `json:"product"`
	Selection   selectionView          `json:"selection"`
	Candidates  []candidateView        `json:"candidates"`
	FlavorSlots []flavorSlotView       `json:"flavor_slots,omitempty"`
	Verdict     verdictView            `json:"verdict"`
	Groups      []composer.GroupStatus `json:"groups"`
	UnitPrice   decimal.Decimal        `json:"unit_price"`
	Subtotal    decimal.Decimal        `json:"subtotal"`
	Discount    decimal.Decimal        `json:"discount"`
	Total       decimal.Decimal        `json:"total"`

	// AdditiveAccepted is set only by the additive endpoint.
	AdditiveAccepted *bool `json:"additive_accepted,omitempty"`
}

type selectionView struct {
	VariationID uuid.UUID           `json:"variation_id"`
	Additives   []additiveQuantity  `json:"additives"`
	Split       bool                `json:"split"`
	FlavorCount int                 `json:"flavor_count,omitempty"`
	Flavors     []uuid.UUID         `json:"flavors,omitempty"`
	Note        string              `json:"note,omitempty"`
	Quantity    int                 `json:"quantity"`
	Coupon      *domain.CouponTerms `json:"coupon,omitempty"`
}

type additiveQuantity struct {
	GroupID    uuid.UUID `json:"group_id"`
	AdditiveID uuid.UUID `json:"additive_id"`
	Quantity   int       `json:"quantity"`
}

type candidateView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"image_url,omitempty"`
}

type flavorSlotView struct {
	Slot      int         `json:"slot"`
	ProductID *uuid.UUID  `json:"product_id,omitempty"`
	Available []uuid.UUID `json:"available"`
}

type verdictView struct {
	Valid   bool       `json:"valid"`
	GroupID *uuid.UUID `json:"group_id,omitempty"`
	Reason  string     `json:"reason,omitempty"`
}

func newSessionView(snap composer.Snapshot) sessionView {
	v := sessionView{
		ID:         snap.SessionID,
		Version:    snap.Version,
		Ready:      snap.Ready,
		Product:    snap.Product,
		Candidates: make([]candidateView, 0, len(snap.Candidates)),
		Verdict:    verdictView{Valid: snap.Verdict.Valid, Reason: snap.Verdict.Reason},
		Groups:     snap.Groups,
		UnitPrice:  snap.UnitPrice,
		Subtotal:   snap.Subtotal,
		Discount:   snap.Discount,
		Total:      snap.Total,
	}
	if id := snap.Verdict.GroupID(); id != uuid.Nil {
		v.Verdict.GroupID = &id
	}
	if v.Groups == nil {
		v.Groups = []composer.GroupStatus{}
	}

	sel := snap.Selection
	v.Selection = selectionView{
		VariationID: sel.VariationID,
		Additives:   []additiveQuantity{},
		Split:       sel.Split,
		FlavorCount: sel.FlavorCount,
		Flavors:     sel.Flavors,
		Note:        sel.Note,
		Quantity:    sel.Quantity,
		Coupon:      sel.Coupon,
	}

	for _, c := range snap.Candidates {
		v.Candidates = append(v.Candidates, candidateView{ID: c.ID, Name: c.Name, ImageURL: c.ImageURL})
	}

	if snap.Product == nil {
		return v
	}

	// Group display order, then additive order within the group.
	for _, g := range snap.Product.AdditiveGroups {
		for _, a := range g.Additives {
			if q := sel.AdditiveQuantity(a.ID); q > 0 {
				v.Selection.Additives = append(v.Selection.Additives, additiveQuantity{
					GroupID: g.ID, AdditiveID: a.ID, Quantity: q,
				})
			}
		}
	}

	if sel.Split {
		for i, id := range sel.Flavors {
			slot := i + 2
			fs := flavorSlotView{Slot: slot, Available: []uuid.UUID{}}
			if id != uuid.Nil {
				id := id
				fs.ProductID = &id
			}
			for _, c := range composer.AvailableCandidates(snap.Product, snap.Candidates, sel, slot) {
				fs.Available = append(fs.Available, c.ID)
			}
			v.FlavorSlots = append(v.FlavorSlots, fs)
		}
	}

	return v
}

// cartView is the JSON form of a cart.
type cartView struct {
	Items  []domain.LineItem `json:"items"`
	Mode   delivery.Mode     `json:"mode"`
	Totals domain.CartTotals `json:"totals"`
}

// addedView answers a successful add-to-cart.
type addedView struct {
	Item domain.LineItem `json:"item"`
	Cart cartView        `json:"cart"`
}
