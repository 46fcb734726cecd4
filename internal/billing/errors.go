package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAPIKey is returned when Stripe API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrAmountTooSmall is returned when payment amount is below Stripe's minimum.
	ErrAmountTooSmall = &PaymentError{Code: "invalid", Message: "Order total is below the minimum of R$ 0,50"}

	// ErrIdempotencyConflict is returned when idempotency key matches a different request.
	ErrIdempotencyConflict = &PaymentError{Code: "conflict", Message: "This checkout was already started with different items"}

	// ErrInvalidWebhookSignature is returned when webhook signature verification fails.
	ErrInvalidWebhookSignature = &PaymentError{Code: "invalid", Message: "Invalid webhook signature"}
)

// MinimumAmountCents is Stripe's minimum charge for BRL.
const MinimumAmountCents = 50

// PaymentError is a billing failure safe to show to customers.
type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("billing: %s: %v", e.Message, e.Err)
	}
	return "billing: " + e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *PaymentError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *PaymentError) ErrorMessage() string {
	return e.Message
}

// StripeError wraps a Stripe API error with additional context.
type StripeError struct {
	Message       string // Human-readable error message
	Code          string // Stripe error code (e.g., "card_declined")
	DeclineCode   string // Card decline reason (if applicable)
	StatusCode    int    // HTTP status code from Stripe
	RequestID     string // Stripe request ID for debugging
	OriginalError error  // Original error from Stripe SDK
}

func (e *StripeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: %s", e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.OriginalError
}

// ErrorCode maps Stripe failures to unavailable so customers can retry.
func (e *StripeError) ErrorCode() string {
	return "unavailable"
}

// ErrorMessage returns the user-facing message.
func (e *StripeError) ErrorMessage() string {
	if e.IsDeclined() {
		return "Payment was declined"
	}
	return "Payment could not be started, please try again"
}

// IsDeclined returns true if error is due to card decline.
func (e *StripeError) IsDeclined() bool {
	return e.Code == "card_declined" || e.DeclineCode != ""
}

// IsTemporary returns true if error is likely transient and retryable.
func (e *StripeError) IsTemporary() bool {
	return e.Code == "rate_limit" || e.Code == "api_connection_error" || e.StatusCode >= 500
}
