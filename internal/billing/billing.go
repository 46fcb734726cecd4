// Package billing starts customer payments for checked-out carts.
package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider defines the interface for payment processing.
// Implementations can use Stripe, Mercado Pago, PagSeguro, etc.
type Provider interface {
	// CreatePaymentIntent creates a payment intent for a one-time charge.
	// Returns the payment intent with client_secret for frontend confirmation.
	CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// VerifyWebhookSignature verifies that a webhook request is authentic.
	// Orders are only sent to the kitchen from verified payment events.
	VerifyWebhookSignature(payload []byte, signature string, secret string) error
}

// CreatePaymentIntentParams contains parameters for creating a payment intent.
type CreatePaymentIntentParams struct {
	// AmountCents is the amount in the smallest currency unit (centavos for BRL).
	AmountCents int64

	// Currency code (ISO 4217), lowercase, e.g. "brl".
	Currency string

	// Description appears in the Stripe dashboard.
	Description string

	// Metadata for filtering and reporting (always include establishment_id
	// and cart_id).
	Metadata map[string]string

	// IdempotencyKey prevents duplicate payment intents for the same checkout.
	IdempotencyKey string
}

// PaymentIntent represents a created payment intent.
type PaymentIntent struct {
	// ID is the provider's payment intent ID (pi_...).
	ID string `json:"id"`

	// ClientSecret is used by Stripe.js on the frontend to confirm payment.
	ClientSecret string `json:"client_secret"`

	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`

	// Status: requires_payment_method, requires_confirmation, succeeded, etc.
	Status string `json:"status"`

	Metadata map[string]string `json:"-"`
}

var hundred = decimal.NewFromInt(100)

// ToCents converts a BRL amount to centavos, rounding half away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
