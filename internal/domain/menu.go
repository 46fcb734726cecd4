package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MENU DOMAIN ERRORS
// =============================================================================

var (
	ErrProductNotFound   = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrVariationNotFound = &Error{Code: EINVALID, Message: "Variation does not belong to this product"}
	ErrAdditiveNotFound  = &Error{Code: EINVALID, Message: "Additive does not belong to this product"}
)

// MaxFlavorSplit is the largest number of flavors a single unit can be divided into.
const MaxFlavorSplit = 4

// Product is a menu item as exposed to the order composer.
type Product struct {
	ID              uuid.UUID `json:"id" validate:"required"`
	EstablishmentID uuid.UUID `json:"establishment_id" validate:"required"`
	SubcategoryID   uuid.UUID `json:"subcategory_id"`
	Name            string    `json:"name" validate:"required,max=200"`
	Description     string    `json:"description,omitempty"`
	ImageURL        string    `json:"image_url,omitempty" validate:"omitempty,url"`

	// Featured is shown as "destaque" on the menu.
	Featured bool `json:"featured"`

	// OnSale is shown as "em promoção" on the menu.
	OnSale bool `json:"on_sale"`

	// AllowsFlavorSplit lets one unit be divided among up to MaxFlavors products
	// (half-and-half pizza). Split selections are informational for the kitchen.
	AllowsFlavorSplit bool `json:"allows_flavor_split"`
	MaxFlavors        int  `json:"max_flavors,omitempty" validate:"omitempty,min=2,max=4"`

	Variations     []Variation     `json:"variations" validate:"required,min=1,dive"`
	AdditiveGroups []AdditiveGroup `json:"additive_groups,omitempty" validate:"dive"`
}

// Variation is a priced size or option of a product (small, large, ...).
type Variation struct {
	ID               uuid.UUID        `json:"id" validate:"required"`
	Name             string           `json:"name" validate:"required"`
	BasePrice        decimal.Decimal  `json:"base_price" validate:"gt=0"`
	PromotionalPrice *decimal.Decimal `json:"promotional_price,omitempty" validate:"omitempty,gt=0"`
}

// EffectivePrice returns the promotional price when set, else the base price.
func (v Variation) EffectivePrice() decimal.Decimal {
	if v.PromotionalPrice != nil {
		return *v.PromotionalPrice
	}
	return v.BasePrice
}

// AdditiveGroup is a bounded set of add-ons the customer picks from.
type AdditiveGroup struct {
	ID           uuid.UUID  `json:"id" validate:"required"`
	Name         string     `json:"name" validate:"required"`
	Description  string     `json:"description,omitempty"`
	MinSelection int        `json:"min_selection" validate:"gte=0"`
	MaxSelection int        `json:"max_selection" validate:"gtefield=MinSelection"`
	Required     bool       `json:"required"`
	Additives    []Additive `json:"additives" validate:"required,min=1,dive"`
}

// Additive finds an additive of the group by id.
func (g AdditiveGroup) Additive(id uuid.UUID) (Additive, bool) {
	for _, a := range g.Additives {
		if a.ID == id {
			return a, true
		}
	}
	return Additive{}, false
}

// Additive is an optional paid or free add-on.
type Additive struct {
	ID                  uuid.UUID       `json:"id" validate:"required"`
	Name                string          `json:"name" validate:"required"`
	Price               decimal.Decimal `json:"price" validate:"gte=0"`
	AllowsMultipleUnits bool            `json:"allows_multiple_units"`
}

// Variation finds a variation of the product by id.
func (p *Product) Variation(id uuid.UUID) (Variation, bool) {
	for _, v := range p.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return Variation{}, false
}

// Group finds an additive group of the product by id.
func (p *Product) Group(id uuid.UUID) (AdditiveGroup, bool) {
	for _, g := range p.AdditiveGroups {
		if g.ID == id {
			return g, true
		}
	}
	return AdditiveGroup{}, false
}

// FlavorLimit returns the maximum flavor count usable for a split, or 0 when
// the product cannot be split.
func (p *Product) FlavorLimit() int {
	if !p.AllowsFlavorSplit || p.MaxFlavors < 2 {
		return 0
	}
	return min(p.MaxFlavors, MaxFlavorSplit)
}

// Subcategory groups products under a parent category.
// Flavor-split candidates come from the siblings of a product's subcategory.
type Subcategory struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
}
