package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrEmptyCart        = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be at least 1"}

	// ErrCouponAlreadyInCart is returned when a fixed-amount coupon is already
	// discounting another line of the same cart.
	ErrCouponAlreadyInCart = &Error{Code: ECONFLICT, Message: "This coupon is already applied to another item in the cart"}
)

// =============================================================================
// ORDER DOMAIN ERRORS
// =============================================================================

var (
	ErrOrderNotFound           = &Error{Code: ENOTFOUND, Message: "No pending order for this payment"}
	ErrPaymentAlreadyProcessed = &Error{Code: ECONFLICT, Message: "Payment already processed"}
	ErrPaymentMismatch         = &Error{Code: EINVALID, Message: "Payment does not match the pending order"}
)

// LineItem is one priced, fully configured cart entry. It is the only thing the
// order composer hands to a CartStore.
type LineItem struct {
	ID          uuid.UUID      `json:"id"`
	ProductID   uuid.UUID      `json:"product_id"`
	ProductName string         `json:"product_name"`
	ImageURL    string         `json:"image_url,omitempty"`
	Variation   LineVariation  `json:"variation"`
	Additives   []LineAdditive `json:"additives"`
	Flavors     []LineFlavor   `json:"flavors,omitempty"`
	Note        string         `json:"note,omitempty"`
	Quantity    int            `json:"quantity"`

	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`

	// Coupon is kept so the discount can be recomputed when quantity changes.
	Coupon *CouponTerms `json:"coupon,omitempty"`
}

// LineVariation is the chosen variation with its effective price.
type LineVariation struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// LineAdditive is a selected additive with its unit price and quantity.
type LineAdditive struct {
	ID        uuid.UUID       `json:"id"`
	GroupID   uuid.UUID       `json:"group_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineFlavor is a companion product of a flavor split. Slot 1 is the line's own
// product and is not listed.
type LineFlavor struct {
	Slot      int       `json:"slot"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
}

// Reprice recomputes subtotal, discount and total from unit price, quantity and
// coupon terms.
func (li *LineItem) Reprice() {
	li.Subtotal = li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
	li.Discount = decimal.Zero
	if li.Coupon != nil {
		li.Discount = li.Coupon.Discount(li.Subtotal)
	}
	li.Total = DiscountedTotal(li.Subtotal, li.Discount)
}

// CartTotals are the read-only aggregates of a cart.
type CartTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
}

// CartStore holds the composed line items of one customer cart.
// Implementations must not expose their internal list for direct mutation.
type CartStore interface {
	// AddItem appends a fully assembled line item.
	AddItem(ctx context.Context, item LineItem) error

	// RemoveItem removes a line item by id.
	RemoveItem(ctx context.Context, id uuid.UUID) error

	// IncrementQuantity adds one unit to a line item.
	IncrementQuantity(ctx context.Context, id uuid.UUID) error

	// DecrementQuantity removes one unit from a line item; at quantity 1 the
	// line is removed.
	DecrementQuantity(ctx context.Context, id uuid.UUID) error

	// Items returns a copy of the current line items.
	Items(ctx context.Context) []LineItem

	// Totals returns the cart aggregates.
	Totals(ctx context.Context) (CartTotals, error)
}
