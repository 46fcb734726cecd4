package coupon

import "github.com/dukerupert/cardapio/internal/domain"

// The handler layer maps these codes to HTTP status codes.
const (
	codeInternal    = domain.EINTERNAL
	codeUnavailable = domain.EUNAVAILABLE
)

// ============================================================================
// COUPON ERROR TYPE
// ============================================================================

// CouponError is an infrastructure failure while validating or redeeming a
// coupon. Coupons that simply do not apply are reported as invalid verdicts.
type CouponError struct {
	Code    string
	Message string
	Err     error
}

func (e *CouponError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CouponError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *CouponError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *CouponError) ErrorMessage() string {
	return e.Message
}

func newCouponError(code, message string, err error) *CouponError {
	return &CouponError{Code: code, Message: message, Err: err}
}

// ============================================================================
// COUPON DOMAIN ERRORS
// ============================================================================

var (
	ErrNotRedeemable = newCouponError(codeUnavailable, "Coupon can no longer be redeemed", nil)
)
