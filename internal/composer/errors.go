package composer

import (
	"github.com/dukerupert/cardapio/internal/domain"
)

// Selection errors - use domain.EINVALID
var (
	ErrSelectionInvalid   = domain.Errorf(domain.EINVALID, "", "Selection is incomplete")
	ErrGroupNotFound      = domain.Errorf(domain.EINVALID, "", "Additive group does not belong to this product")
	ErrSplitNotAllowed    = domain.Errorf(domain.EINVALID, "", "This product cannot be split into flavors")
	ErrSplitNotEnabled    = domain.Errorf(domain.EINVALID, "", "Flavor split is not enabled")
	ErrInvalidFlavorCount = domain.Errorf(domain.EINVALID, "", "Unsupported number of flavors")
	ErrInvalidFlavorSlot  = domain.Errorf(domain.EINVALID, "", "Invalid flavor slot")
	ErrFlavorUnavailable  = domain.Errorf(domain.EINVALID, "", "Flavor is not available for this slot")
	ErrNoteTooLong        = domain.Errorf(domain.EINVALID, "", "Note is too long")
	ErrCouponCodeRequired = domain.Errorf(domain.EINVALID, "", "Enter a coupon code")
)

// ErrCouponUnavailable is returned when the coupon service fails; the
// customer may retry.
var ErrCouponUnavailable = domain.Errorf(domain.EUNAVAILABLE, "", "Could not validate the coupon. Please try again")

// Session errors
var (
	ErrSessionNotFound = domain.Errorf(domain.ENOTFOUND, "", "Configuration session not found")
	ErrSessionClosed   = domain.Errorf(domain.EGONE, "", "Configuration session is closed")
	ErrCouponInFlight  = domain.Errorf(domain.ECONFLICT, "", "Coupon validation already in progress")
	ErrSessionNotReady = domain.Errorf(domain.ECONFLICT, "", "Configuration session is still loading")
)

// CouponRejectedError carries the validator's reason for refusing a coupon.
type CouponRejectedError struct {
	Code   string
	Reason string
}

func (e *CouponRejectedError) Error() string {
	return "coupon " + e.Code + " rejected: " + e.Reason
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *CouponRejectedError) ErrorCode() string {
	return domain.EINVALID
}

// ErrorMessage returns the validator's reason, safe to show to customers.
func (e *CouponRejectedError) ErrorMessage() string {
	return e.Reason
}
