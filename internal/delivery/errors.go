package delivery

// ============================================================================
// DELIVERY ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.

const (
	codeInvalid     = "invalid"
	codeUnavailable = "unavailable"
)

// ============================================================================
// DELIVERY ERROR TYPE
// ============================================================================

// DeliveryError represents a delivery-specific error with a code and message.
type DeliveryError struct {
	Code    string
	Message string
}

func (e *DeliveryError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *DeliveryError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *DeliveryError) ErrorMessage() string {
	return e.Message
}

func newDeliveryError(code, message string) *DeliveryError {
	return &DeliveryError{Code: code, Message: message}
}

// ============================================================================
// DELIVERY DOMAIN ERRORS
// ============================================================================

var (
	// ErrEstablishmentRequired is returned when the establishment ID is missing.
	ErrEstablishmentRequired = newDeliveryError(codeInvalid, "Establishment ID is required")

	// ErrInvalidMode is returned for a mode other than delivery or pickup.
	ErrInvalidMode = newDeliveryError(codeInvalid, "Choose delivery or pickup")

	// ErrInvalidSubtotal is returned when the subtotal is negative.
	ErrInvalidSubtotal = newDeliveryError(codeInvalid, "Subtotal cannot be negative")

	// ErrNoQuote is returned when a provider cannot price the order.
	ErrNoQuote = newDeliveryError(codeUnavailable, "Delivery is not available right now")
)
