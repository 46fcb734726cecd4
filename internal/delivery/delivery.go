// Package delivery quotes the delivery fee of a cart.
package delivery

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider defines the interface for delivery fee quotes.
// Implementations can integrate with courier platforms or distance-based
// pricing; the default is a flat fee.
type Provider interface {
	// Quote returns the delivery fee for an order.
	Quote(ctx context.Context, params QuoteParams) (*Quote, error)
}

// Mode is how the customer receives the order.
type Mode string

const (
	ModeDelivery Mode = "delivery"
	ModePickup   Mode = "pickup"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeDelivery || m == ModePickup
}

// QuoteParams contains parameters for quoting a delivery fee.
type QuoteParams struct {
	EstablishmentID uuid.UUID
	Mode            Mode

	// Subtotal is the sum of the cart's discounted line totals.
	Subtotal decimal.Decimal
}

// Quote is a delivery fee offer.
type Quote struct {
	Mode Mode            `json:"mode"`
	Fee  decimal.Decimal `json:"fee"`

	// FreeDelivery is set when the fee was waived by the free-delivery
	// threshold.
	FreeDelivery bool `json:"free_delivery"`
}
