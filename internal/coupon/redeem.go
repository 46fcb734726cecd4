package coupon

import (
	"context"

	"github.com/google/uuid"
)

// Redeemer records that a coupon was used by a completed checkout.
type Redeemer interface {
	// Redeem increments the coupon's usage count. It returns ErrNotRedeemable
	// when the coupon reached its usage limit or was deactivated in the
	// meantime.
	Redeem(ctx context.Context, establishmentID uuid.UUID, code string) error
}
