package coupon

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/cardapio/internal/domain"
)

// StaticValidator keeps coupons in memory. It is used for local development
// and tests.
type StaticValidator struct {
	mu      sync.Mutex
	coupons map[staticKey]*Coupon
	now     func() time.Time
}

type staticKey struct {
	establishmentID uuid.UUID
	code            string
}

// Compile-time checks.
var (
	_ domain.CouponValidator = (*StaticValidator)(nil)
	_ Redeemer               = (*StaticValidator)(nil)
)

// NewStaticValidator creates a validator holding the given coupons. A nil now
// uses time.Now.
func NewStaticValidator(now func() time.Time, coupons ...Coupon) *StaticValidator {
	if now == nil {
		now = time.Now
	}
	s := &StaticValidator{
		coupons: make(map[staticKey]*Coupon, len(coupons)),
		now:     now,
	}
	for _, c := range coupons {
		s.Add(c)
	}
	return s
}

// Add stores c, replacing a coupon with the same establishment and code.
func (s *StaticValidator) Add(c Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[keyFor(c.EstablishmentID, c.Code)] = &c
}

// Validate evaluates the stored coupon's rules against subtotal.
func (s *StaticValidator) Validate(_ context.Context, establishmentID uuid.UUID, code string, subtotal decimal.Decimal) (domain.CouponVerdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[keyFor(establishmentID, code)]
	if !ok {
		return reject(ReasonNotFound), nil
	}
	return Evaluate(*c, subtotal, s.now()), nil
}

// Redeem increments the usage count.
func (s *StaticValidator) Redeem(_ context.Context, establishmentID uuid.UUID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[keyFor(establishmentID, code)]
	if !ok || !c.Active || (c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit) {
		return ErrNotRedeemable
	}
	c.TimesUsed++
	return nil
}

func keyFor(establishmentID uuid.UUID, code string) staticKey {
	return staticKey{establishmentID: establishmentID, code: strings.ToUpper(strings.TrimSpace(code))}
}
