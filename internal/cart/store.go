// Package cart keeps customer carts in memory, one Store per cart session.
package cart

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/cardapio/internal/delivery"
	"github.com/dukerupert/cardapio/internal/domain"
)

// Store holds the line items of one cart. It is safe for concurrent use.
type Store struct {
	establishmentID uuid.UUID
	delivery        delivery.Provider
	now             func() time.Time

	mu          sync.Mutex
	items       []domain.LineItem
	mode        delivery.Mode
	lastTouched time.Time

	// generation counts paid orders taken out of the cart.
	generation uint64
}

// Compile-time check that Store implements domain.CartStore.
var _ domain.CartStore = (*Store)(nil)

// NewStore creates an empty delivery cart for an establishment.
func NewStore(establishmentID uuid.UUID, provider delivery.Provider) *Store {
	return newStore(establishmentID, provider, time.Now)
}

func newStore(establishmentID uuid.UUID, provider delivery.Provider, now func() time.Time) *Store {
	return &Store{
		establishmentID: establishmentID,
		delivery:        provider,
		now:             now,
		mode:            delivery.ModeDelivery,
		lastTouched:     now(),
	}
}

// EstablishmentID returns the establishment the cart belongs to.
func (s *Store) EstablishmentID() uuid.UUID {
	return s.establishmentID
}

// Snapshot is a consistent view of a cart: the totals are computed from
// exactly the listed items and mode.
type Snapshot struct {
	Items  []domain.LineItem
	Mode   delivery.Mode
	Totals domain.CartTotals

	// Generation changes every time paid lines leave the cart, so equal
	// contents before and after an order are still told apart.
	Generation uint64
}

// AddItem appends a line item. Its totals are recomputed from unit price,
// quantity and coupon terms. A fixed-amount coupon discounts one line per
// cart; adding a second line with the same fixed code fails with
// domain.ErrCouponAlreadyInCart.
func (s *Store) AddItem(_ context.Context, item domain.LineItem) error {
	if item.Quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item = cloneItem(item)
	item.Reprice()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fixedCouponInUse(item.Coupon) {
		return domain.ErrCouponAlreadyInCart
	}
	s.items = append(s.items, item)
	s.touch()
	return nil
}

// RemoveItem removes a line item.
func (s *Store) RemoveItem(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrCartItemNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.touch()
	return nil
}

// IncrementQuantity adds one unit to a line item.
func (s *Store) IncrementQuantity(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrCartItemNotFound
	}
	s.items[i].Quantity++
	s.items[i].Reprice()
	s.touch()
	return nil
}

// DecrementQuantity removes one unit from a line item. A line at quantity 1
// is removed.
func (s *Store) DecrementQuantity(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrCartItemNotFound
	}
	if s.items[i].Quantity <= 1 {
		s.items = slices.Delete(s.items, i, i+1)
	} else {
		s.items[i].Quantity--
		s.items[i].Reprice()
	}
	s.touch()
	return nil
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items(_ context.Context) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.LineItem, len(s.items))
	for i, item := range s.items {
		out[i] = cloneItem(item)
	}
	return out
}

// SetMode switches between delivery and pickup.
func (s *Store) SetMode(mode delivery.Mode) error {
	if !mode.Valid() {
		return delivery.ErrInvalidMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.touch()
	return nil
}

// Mode returns how the order will be received.
func (s *Store) Mode() delivery.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Totals aggregates the line items and quotes the delivery fee. An empty cart
// has no fee.
func (s *Store) Totals(ctx context.Context) (domain.CartTotals, error) {
	s.mu.Lock()
	items, mode := s.items, s.mode
	totals, lines := aggregate(items)
	s.mu.Unlock()

	return s.quote(ctx, totals, lines, mode)
}

// Snapshot copies the items and mode under one lock and prices that copy, so
// a concurrent change cannot land between the list and its totals.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	snap := Snapshot{
		Items:      make([]domain.LineItem, len(s.items)),
		Mode:       s.mode,
		Generation: s.generation,
	}
	for i, item := range s.items {
		snap.Items[i] = cloneItem(item)
	}
	s.mu.Unlock()

	totals, lines := aggregate(snap.Items)
	totals, err := s.quote(ctx, totals, lines, snap.Mode)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Totals = totals
	return snap, nil
}

// RemoveCharged takes paid units out of the cart. charged maps line ids to
// the quantity that was paid for. A line whose quantity grew after the charge
// keeps the extra units; lines not in charged are untouched. It returns the
// number of lines changed.
func (s *Store) RemoveCharged(_ context.Context, charged map[uuid.UUID]int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	kept := s.items[:0]
	for _, item := range s.items {
		paid, ok := charged[item.ID]
		if !ok {
			kept = append(kept, item)
			continue
		}
		changed++
		if item.Quantity > paid {
			item.Quantity -= paid
			item.Reprice()
			kept = append(kept, item)
		}
	}
	clear(s.items[len(kept):])
	s.items = kept
	if changed > 0 {
		s.generation++
		s.touch()
	}
	return changed
}

func aggregate(items []domain.LineItem) (domain.CartTotals, decimal.Decimal) {
	totals := domain.CartTotals{
		Subtotal:    decimal.Zero,
		DeliveryFee: decimal.Zero,
		Discount:    decimal.Zero,
	}
	lines := decimal.Zero
	for _, item := range items {
		totals.Subtotal = totals.Subtotal.Add(item.Subtotal)
		totals.Discount = totals.Discount.Add(item.Discount)
		lines = lines.Add(item.Total)
		totals.ItemCount += item.Quantity
	}
	return totals, lines
}

func (s *Store) quote(ctx context.Context, totals domain.CartTotals, lines decimal.Decimal, mode delivery.Mode) (domain.CartTotals, error) {
	if totals.ItemCount > 0 && s.delivery != nil {
		quote, err := s.delivery.Quote(ctx, delivery.QuoteParams{
			EstablishmentID: s.establishmentID,
			Mode:            mode,
			Subtotal:        lines,
		})
		if err != nil {
			return domain.CartTotals{}, err
		}
		totals.DeliveryFee = quote.Fee
	}

	totals.Total = lines.Add(totals.DeliveryFee)
	return totals, nil
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouched
}

func (s *Store) touch() {
	s.lastTouched = s.now()
}

func (s *Store) fixedCouponInUse(terms *domain.CouponTerms) bool {
	if terms == nil || terms.Kind != domain.DiscountFixed {
		return false
	}
	return slices.ContainsFunc(s.items, func(item domain.LineItem) bool {
		return item.Coupon != nil &&
			item.Coupon.Kind == domain.DiscountFixed &&
			strings.EqualFold(item.Coupon.Code, terms.Code)
	})
}

func (s *Store) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(s.items, func(item domain.LineItem) bool {
		return item.ID == id
	})
}

func cloneItem(item domain.LineItem) domain.LineItem {
	item.Additives = slices.Clone(item.Additives)
	item.Flavors = slices.Clone(item.Flavors)
	if item.Coupon != nil {
		c := *item.Coupon
		item.Coupon = &c
	}
	return item
}
