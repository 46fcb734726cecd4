package checkout

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/cardapio/internal/cart"
	"github.com/dukerupert/cardapio/internal/domain"
)

// order is a checkout waiting for, or done with, its payment.
type order struct {
	id              uuid.UUID
	establishmentID uuid.UUID
	cartID          string
	intentID        string
	amountCents     int64
	snapshot        cart.Snapshot
	createdAt       time.Time
	completed       bool
}

// charged maps each paid line to its paid quantity.
func (o *order) charged() map[uuid.UUID]int {
	m := make(map[uuid.UUID]int, len(o.snapshot.Items))
	for _, item := range o.snapshot.Items {
		m[item.ID] = item.Quantity
	}
	return m
}

// pendingOrders indexes orders by payment intent id. Like carts they live in
// memory only.
type pendingOrders struct {
	mu       sync.Mutex
	byIntent map[string]*order
}

func newPendingOrders() *pendingOrders {
	return &pendingOrders{byIntent: make(map[string]*order)}
}

// put stores o unless its intent is already known, and reports whether it
// was stored. A replayed intent keeps the order recorded first.
func (p *pendingOrders) put(o *order) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byIntent[o.intentID]; ok {
		return false
	}
	p.byIntent[o.intentID] = o
	return true
}

func (p *pendingOrders) get(intentID string) (*order, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.byIntent[intentID]
	return o, ok
}

func (p *pendingOrders) drop(intentID string) (*order, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.byIntent[intentID]
	if ok {
		delete(p.byIntent, intentID)
	}
	return o, ok
}

// complete checks a successful payment against its order and marks the order
// completed. Only the first caller for an intent gets the order.
func (p *pendingOrders) complete(pay Payment) (*order, error) {
	const op = "checkout.complete_payment"

	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.byIntent[pay.IntentID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.completed {
		return nil, domain.ErrPaymentAlreadyProcessed
	}

	switch {
	case pay.Metadata["establishment_id"] != o.establishmentID.String():
		return nil, mismatch(op, "establishment", pay.Metadata["establishment_id"])
	case pay.Metadata["cart_id"] != o.cartID:
		return nil, mismatch(op, "cart", pay.Metadata["cart_id"])
	case pay.AmountCents != o.amountCents:
		return nil, mismatch(op, "amount", fmt.Sprint(pay.AmountCents))
	}

	o.completed = true
	return o, nil
}

// sweep drops orders created before cutoff.
func (p *pendingOrders) sweep(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for id, o := range p.byIntent {
		if o.createdAt.Before(cutoff) {
			delete(p.byIntent, id)
			n++
		}
	}
	return n
}

func (p *pendingOrders) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byIntent)
}

func mismatch(op, field, got string) error {
	return &domain.Error{
		Code:    domain.ErrPaymentMismatch.Code,
		Message: domain.ErrPaymentMismatch.Message,
		Op:      op,
		Err:     fmt.Errorf("%w: %s %q", domain.ErrPaymentMismatch, field, got),
	}
}
