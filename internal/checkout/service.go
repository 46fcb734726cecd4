// Package checkout turns a cart into a payment intent and, once the payment
// succeeds, into a kitchen ticket.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/cardapio/internal/billing"
	"github.com/dukerupert/cardapio/internal/cart"
	"github.com/dukerupert/cardapio/internal/coupon"
	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/kitchen"
	"github.com/dukerupert/cardapio/internal/telemetry"
)

// Cart is the cart surface checkout needs. *cart.Store implements it.
type Cart interface {
	Snapshot(ctx context.Context) (cart.Snapshot, error)
	RemoveCharged(ctx context.Context, charged map[uuid.UUID]int) int
}

// CartFinder returns the live cart of an establishment, if it still exists.
type CartFinder func(establishmentID uuid.UUID, cartID string) (Cart, bool)

// Deps are the collaborators of the checkout service.
type Deps struct {
	Billing billing.Provider
	Kitchen kitchen.Publisher

	// Carts finds the cart a paid order came from. Nil leaves carts as they
	// are after payment.
	Carts CartFinder

	// Coupons records coupon usage. Nil skips redemption.
	Coupons coupon.Redeemer

	// Currency is the ISO 4217 code charged, "brl" when empty.
	Currency string

	// PendingTTL is how long an unpaid or completed order is remembered.
	// Default 24h.
	PendingTTL time.Duration

	Logger   *slog.Logger
	Reporter telemetry.Reporter
	Metrics  *telemetry.BusinessMetrics
	Now      func() time.Time
}

// Params identifies the cart being checked out.
type Params struct {
	EstablishmentID uuid.UUID
	CartID          string
	Cart            Cart
}

// Result is a started checkout. The client confirms the payment with
// PaymentIntent.ClientSecret; the order reaches the kitchen when the payment
// provider reports success.
type Result struct {
	PaymentIntent *billing.PaymentIntent `json:"payment_intent"`
	Totals        domain.CartTotals      `json:"totals"`
	OrderID       uuid.UUID              `json:"order_id"`
}

// Payment is a payment outcome reported by the provider.
type Payment struct {
	IntentID    string
	AmountCents int64

	// Metadata is the metadata set on the intent at checkout.
	Metadata map[string]string
}

// Service runs checkouts.
type Service struct {
	deps    Deps
	pending *pendingOrders
}

// NewService creates a checkout service.
func NewService(deps Deps) *Service {
	if deps.Kitchen == nil {
		deps.Kitchen = kitchen.NopPublisher{}
	}
	if deps.Currency == "" {
		deps.Currency = "brl"
	}
	if deps.PendingTTL <= 0 {
		deps.PendingTTL = 24 * time.Hour
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Reporter == nil {
		deps.Reporter = telemetry.NopReporter{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps, pending: newPendingOrders()}
}

// Checkout prices a consistent snapshot of the cart and creates a payment
// intent for it. The cart is left untouched: tickets, coupon redemption and
// removal of the paid lines happen in CompletePayment.
//
// The idempotency key is derived from the cart contents and from the number
// of orders already paid from this cart, so a double submit gets the same
// intent back while a later order from the same cart gets a new one.
func (s *Service) Checkout(ctx context.Context, p Params) (*Result, error) {
	const op = "checkout.checkout"
	est := p.EstablishmentID.String()

	snap, err := p.Cart.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(snap.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	cents := billing.ToCents(snap.Totals.Total)
	orderID := newOrderID(p.EstablishmentID, p.CartID, snap, cents)

	pi, err := s.deps.Billing.CreatePaymentIntent(ctx, billing.CreatePaymentIntentParams{
		AmountCents: cents,
		Currency:    s.deps.Currency,
		Description: fmt.Sprintf("Pedido com %d itens", snap.Totals.ItemCount),
		Metadata: map[string]string{
			"establishment_id": est,
			"cart_id":          p.CartID,
			"order_id":         orderID.String(),
			"item_count":       fmt.Sprint(snap.Totals.ItemCount),
		},
		IdempotencyKey: fmt.Sprintf("checkout:%s:%s", p.CartID, orderID),
	})
	if err != nil {
		s.deps.Logger.ErrorContext(ctx, "payment intent failed",
			"op", op,
			"establishment_id", est,
			"error", err,
		)
		return nil, err
	}

	if s.pending.put(&order{
		id:              orderID,
		establishmentID: p.EstablishmentID,
		cartID:          p.CartID,
		intentID:        pi.ID,
		amountCents:     cents,
		snapshot:        snap,
		createdAt:       s.deps.Now(),
	}) {
		s.deps.Metrics.RecordCheckoutStarted(est)
	}

	s.deps.Logger.InfoContext(ctx, "checkout started",
		"establishment_id", est,
		"order_id", orderID,
		"payment_intent_id", pi.ID,
		"total", snap.Totals.Total.StringFixed(2),
		"items", snap.Totals.ItemCount,
	)

	return &Result{PaymentIntent: pi, Totals: snap.Totals, OrderID: orderID}, nil
}

// CompletePayment places the order paid by p: it sends the kitchen ticket,
// redeems the coupons that discounted the order and takes the paid units out
// of the cart. Lines added while the customer was paying stay in the cart.
//
// The intent's metadata must name the establishment and cart the order was
// started from. A payment reported twice returns
// domain.ErrPaymentAlreadyProcessed the second time.
func (s *Service) CompletePayment(ctx context.Context, p Payment) error {
	const op = "checkout.complete_payment"

	o, err := s.pending.complete(p)
	if err != nil {
		return err
	}
	est := o.establishmentID.String()

	ticket := kitchen.NewTicket(kitchen.TicketParams{
		OrderID:         o.id,
		EstablishmentID: o.establishmentID,
		CartID:          o.cartID,
		PaymentIntentID: o.intentID,
		Mode:            string(o.snapshot.Mode),
		Items:           o.snapshot.Items,
		Total:           o.snapshot.Totals.Total,
		PlacedAt:        s.deps.Now(),
	})
	if err := s.deps.Kitchen.Publish(ctx, ticket); err != nil {
		// The customer has paid; the order is reported for manual handling
		// instead of failing the payment event.
		s.deps.Logger.ErrorContext(ctx, "kitchen ticket not delivered",
			"establishment_id", est,
			"order_id", o.id,
			"error", err,
		)
		s.deps.Reporter.Report(ctx, err,
			slog.String("op", op),
			slog.String("order_id", o.id.String()),
		)
		s.deps.Metrics.RecordTicketFailed(est)
	}

	s.redeemCoupons(ctx, o.establishmentID, o.snapshot.Items)

	if s.deps.Carts != nil {
		if c, ok := s.deps.Carts(o.establishmentID, o.cartID); ok {
			c.RemoveCharged(ctx, o.charged())
		} else {
			s.deps.Logger.InfoContext(ctx, "cart gone before payment completed",
				"establishment_id", est,
				"order_id", o.id,
			)
		}
	}

	s.deps.Metrics.RecordCheckout(est, o.snapshot.Totals.Total)
	s.deps.Logger.InfoContext(ctx, "order placed",
		"establishment_id", est,
		"order_id", o.id,
		"payment_intent_id", o.intentID,
		"total", o.snapshot.Totals.Total.StringFixed(2),
	)
	return nil
}

// PaymentFailed records a declined or failed attempt. The order stays
// pending because the customer may retry the same intent with another card.
func (s *Service) PaymentFailed(ctx context.Context, p Payment, reason string) {
	o, ok := s.pending.get(p.IntentID)
	if !ok {
		s.deps.Logger.WarnContext(ctx, "payment failed for unknown order",
			"payment_intent_id", p.IntentID,
			"reason", reason,
		)
		return
	}

	s.deps.Logger.WarnContext(ctx, "payment failed",
		"establishment_id", o.establishmentID,
		"order_id", o.id,
		"payment_intent_id", p.IntentID,
		"reason", reason,
	)
	s.deps.Metrics.RecordPaymentFailed(o.establishmentID.String(), "failed")
}

// PaymentCanceled forgets the order of a canceled intent. The cart is left
// as it is.
func (s *Service) PaymentCanceled(ctx context.Context, p Payment) {
	o, ok := s.pending.drop(p.IntentID)
	if !ok {
		s.deps.Logger.InfoContext(ctx, "canceled payment for unknown order",
			"payment_intent_id", p.IntentID,
		)
		return
	}

	s.deps.Logger.InfoContext(ctx, "payment canceled",
		"establishment_id", o.establishmentID,
		"order_id", o.id,
		"payment_intent_id", p.IntentID,
	)
	s.deps.Metrics.RecordPaymentFailed(o.establishmentID.String(), "canceled")
}

// Sweep forgets orders older than PendingTTL and returns how many were
// dropped.
func (s *Service) Sweep(_ context.Context) int {
	return s.pending.sweep(s.deps.Now().Add(-s.deps.PendingTTL))
}

// Pending returns the number of remembered orders.
func (s *Service) Pending() int {
	return s.pending.count()
}

// redeemCoupons counts one use per distinct coupon code that discounted the
// order.
func (s *Service) redeemCoupons(ctx context.Context, establishmentID uuid.UUID, items []domain.LineItem) {
	if s.deps.Coupons == nil {
		return
	}

	var codes []string
	for _, item := range items {
		if item.Coupon == nil || !item.Discount.IsPositive() {
			continue
		}
		if !slices.Contains(codes, item.Coupon.Code) {
			codes = append(codes, item.Coupon.Code)
		}
	}

	for _, code := range codes {
		if err := s.deps.Coupons.Redeem(ctx, establishmentID, code); err != nil {
			s.deps.Logger.WarnContext(ctx, "coupon redemption not recorded",
				"establishment_id", establishmentID,
				"coupon", code,
				"error", err,
			)
			s.deps.Reporter.Report(ctx, err, slog.String("coupon", code))
		}
	}
}

// orderNamespace scopes the name-based order ids.
var orderNamespace = uuid.MustParse("7d1c8a52-3f0e-4b7a-9c55-2e6f1b0d4a93")

// newOrderID derives the order id from everything that is charged: the same
// cart contents at the same cart generation always yield the same id.
func newOrderID(establishmentID uuid.UUID, cartID string, snap cart.Snapshot, cents int64) uuid.UUID {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%d|%s|%d", establishmentID, cartID, snap.Generation, snap.Mode, cents)
	for _, item := range snap.Items {
		fmt.Fprintf(&b, "|%s:%d:%s", item.ID, item.Quantity, item.Total.StringFixed(2))
	}
	return uuid.NewSHA1(orderNamespace, []byte(b.String()))
}
