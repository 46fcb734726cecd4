package checkout_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/cardapio/internal/billing"
	"github.com/dukerupert/cardapio/internal/cart"
	"github.com/dukerupert/cardapio/internal/checkout"
	"github.com/dukerupert/cardapio/internal/coupon"
	"github.com/dukerupert/cardapio/internal/delivery"
	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/kitchen"
	"github.com/dukerupert/cardapio/internal/telemetry"
)

type countingReporter struct{ errs []error }

func (r *countingReporter) Report(_ context.Context, err error, _ ...slog.Attr) {
	r.errs = append(r.errs, err)
}

type fixture struct {
	est      uuid.UUID
	now      time.Time
	store    *cart.Store
	billing  *billing.MockProvider
	kitchen  *kitchen.MockPublisher
	coupons  *coupon.MockValidator
	reporter *countingReporter
	metrics  *telemetry.BusinessMetrics
	svc      *checkout.Service
	redeemed []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		est:      uuid.New(),
		now:      time.Date(2026, 7, 3, 21, 0, 0, 0, time.UTC),
		billing:  billing.NewMockProvider(),
		kitchen:  &kitchen.MockPublisher{},
		reporter: &countingReporter{},
		metrics:  telemetry.NewBusinessMetrics("test", prometheus.NewRegistry()),
	}
	f.coupons = &coupon.MockValidator{
		RedeemFunc: func(_ context.Context, _ uuid.UUID, code string) error {
			f.redeemed = append(f.redeemed, code)
			return nil
		},
	}
	f.store = cart.NewStore(f.est, delivery.NewFlatFeeProvider(decimal.RequireFromString("5.00"), decimal.Zero))
	f.svc = checkout.NewService(checkout.Deps{
		Billing: f.billing,
		Kitchen: f.kitchen,
		Carts: func(est uuid.UUID, cartID string) (checkout.Cart, bool) {
			if est != f.est || cartID != "cart-1" {
				return nil, false
			}
			return f.store, true
		},
		Coupons:    f.coupons,
		PendingTTL: time.Hour,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Reporter:   f.reporter,
		Metrics:    f.metrics,
		Now:        func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) add(t *testing.T, unit string, qty int, terms *domain.CouponTerms) domain.LineItem {
	t.Helper()
	item := domain.LineItem{
		ID:          uuid.New(),
		ProductName: "Pizza",
		Variation:   domain.LineVariation{Name: "Grande"},
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString(unit),
		Coupon:      terms,
	}
	require.NoError(t, f.store.AddItem(context.Background(), item))
	return item
}

func (f *fixture) params() checkout.Params {
	return checkout.Params{EstablishmentID: f.est, CartID: "cart-1", Cart: f.store}
}

// paid is the payment the provider reports once the customer confirms res.
func paid(res *checkout.Result) checkout.Payment {
	return checkout.Payment{
		IntentID:    res.PaymentIntent.ID,
		AmountCents: res.PaymentIntent.AmountCents,
		Metadata:    res.PaymentIntent.Metadata,
	}
}

func fixed(code, value string) *domain.CouponTerms {
	return &domain.CouponTerms{Code: code, Kind: domain.DiscountFixed, Value: decimal.RequireFromString(value)}
}

func percent(code, value string) *domain.CouponTerms {
	return &domain.CouponTerms{Code: code, Kind: domain.DiscountPercent, Value: decimal.RequireFromString(value)}
}

func TestCheckout_StartsPaymentOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "45.00", 2, fixed("PIZZA5", "5"))
	f.add(t, "8.90", 1, nil)

	res, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)

	// 90.00 - 5 + 8.90 + 5.00 delivery
	assert.Equal(t, "98.90", res.Totals.Total.StringFixed(2))
	assert.Equal(t, int64(9890), res.PaymentIntent.AmountCents)
	assert.Equal(t, "brl", res.PaymentIntent.Currency)
	assert.Equal(t, []string{"CreatePaymentIntent(9890, brl)"}, f.billing.CallLog)

	assert.Empty(t, f.kitchen.Published, "nothing reaches the kitchen before payment")
	assert.Empty(t, f.redeemed)
	assert.Len(t, f.store.Items(ctx), 2, "cart is kept until payment succeeds")
	assert.Equal(t, 1, f.svc.Pending())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckoutsStarted.WithLabelValues(f.est.String())))
}

func TestCheckout_PaymentMetadata(t *testing.T) {
	f := newFixture(t)
	f.add(t, "30.00", 1, nil)

	var got billing.CreatePaymentIntentParams
	f.billing.CreatePaymentIntentFunc = func(_ context.Context, p billing.CreatePaymentIntentParams) (*billing.PaymentIntent, error) {
		got = p
		return &billing.PaymentIntent{ID: "pi_1", AmountCents: p.AmountCents, Currency: p.Currency}, nil
	}

	res, err := f.svc.Checkout(context.Background(), f.params())
	require.NoError(t, err)

	assert.Equal(t, f.est.String(), got.Metadata["establishment_id"])
	assert.Equal(t, "cart-1", got.Metadata["cart_id"])
	assert.Equal(t, res.OrderID.String(), got.Metadata["order_id"])
	assert.Equal(t, "checkout:cart-1:"+res.OrderID.String(), got.IdempotencyKey)
}

func TestCheckout_DoubleSubmitReusesIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "30.00", 1, nil)

	first, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)
	again, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)

	assert.Equal(t, first.PaymentIntent.ID, again.PaymentIntent.ID)
	assert.Equal(t, first.OrderID, again.OrderID)
	assert.Len(t, f.billing.PaymentIntents, 1)
	assert.Equal(t, 1, f.svc.Pending())
}

func TestCheckout_ChangedCartGetsNewIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.add(t, "30.00", 1, nil)

	first, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)
	require.NoError(t, f.store.IncrementQuantity(ctx, item.ID))
	second, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)

	assert.NotEqual(t, first.PaymentIntent.ID, second.PaymentIntent.ID)
	assert.Equal(t, int64(6500), second.PaymentIntent.AmountCents)
}

// After an order is paid, the next order from the same cart must not reuse
// the paid intent even when it has the same lines and amount.
func TestCheckout_NextOrderFromSameCartGetsNewIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.add(t, "30.00", 2, nil)

	first, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)

	// Two more units are added while the customer pays for the first two.
	require.NoError(t, f.store.IncrementQuantity(ctx, item.ID))
	require.NoError(t, f.store.IncrementQuantity(ctx, item.ID))
	require.NoError(t, f.svc.CompletePayment(ctx, paid(first)))

	items := f.store.Items(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)

	second, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)

	assert.Equal(t, first.PaymentIntent.AmountCents, second.PaymentIntent.AmountCents)
	assert.NotEqual(t, first.PaymentIntent.ID, second.PaymentIntent.ID)
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Len(t, f.billing.PaymentIntents, 2)

	require.NoError(t, f.svc.CompletePayment(ctx, paid(second)))
	assert.Len(t, f.kitchen.Published, 2)
	assert.Empty(t, f.store.Items(ctx))
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Checkout(context.Background(), f.params())

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, f.billing.CallLog)
}

func TestCheckout_PaymentIntentFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "30.00", 1, fixed("PIZZA5", "5"))
	f.billing.CreatePaymentIntentFunc = func(context.Context, billing.CreatePaymentIntentParams) (*billing.PaymentIntent, error) {
		return nil, &billing.StripeError{Message: "api down", Code: "api_connection_error"}
	}

	_, err := f.svc.Checkout(ctx, f.params())

	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.Len(t, f.store.Items(ctx), 1)
	assert.Zero(t, f.svc.Pending())
	assert.Empty(t, f.kitchen.Published)
	assert.Empty(t, f.redeemed)
}

func TestCompletePayment_PlacesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "45.00", 2, percent("DEZ", "10"))
	f.add(t, "40.00", 1, percent("DEZ", "10"))
	f.add(t, "8.90", 1, fixed("PIZZA5", "5"))

	res, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)

	require.NoError(t, f.svc.CompletePayment(ctx, paid(res)))

	require.Len(t, f.kitchen.Published, 1)
	ticket := f.kitchen.Published[0]
	assert.Equal(t, res.OrderID, ticket.ID)
	assert.Equal(t, res.PaymentIntent.ID, ticket.PaymentIntentID)
	assert.Equal(t, "delivery", ticket.Mode)
	assert.Len(t, ticket.Items, 3)
	assert.True(t, res.Totals.Total.Equal(ticket.Total))

	assert.ElementsMatch(t, []string{"DEZ", "PIZZA5"}, f.redeemed, "one redemption per distinct code")
	assert.Empty(t, f.store.Items(ctx), "paid lines leave the cart")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckoutsCompleted.WithLabelValues(f.est.String())))
}

// A line added between pricing and payment was never charged and must
// survive the order.
func TestCompletePayment_KeepsLinesAddedDuringCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	charged := f.add(t, "30.00", 1, nil)

	var late domain.LineItem
	f.billing.CreatePaymentIntentFunc = func(_ context.Context, p billing.CreatePaymentIntentParams) (*billing.PaymentIntent, error) {
		late = f.add(t, "12.00", 1, nil)
		return &billing.PaymentIntent{ID: "pi_race", AmountCents: p.AmountCents, Currency: p.Currency, Metadata: p.Metadata}, nil
	}

	res, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)
	assert.Equal(t, int64(3500), res.PaymentIntent.AmountCents)
	assert.Equal(t, 1, res.Totals.ItemCount)

	require.NoError(t, f.svc.CompletePayment(ctx, paid(res)))

	require.Len(t, f.kitchen.Published, 1)
	require.Len(t, f.kitchen.Published[0].Items, 1)
	items := f.store.Items(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, late.ID, items[0].ID)
	assert.NotEqual(t, charged.ID, items[0].ID)
}

func TestCompletePayment_ReportedTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "30.00", 1, fixed("PIZZA5", "5"))

	res, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)
	require.NoError(t, f.svc.CompletePayment(ctx, paid(res)))

	err = f.svc.CompletePayment(ctx, paid(res))

	assert.ErrorIs(t, err, domain.ErrPaymentAlreadyProcessed)
	assert.Len(t, f.kitchen.Published, 1)
	assert.Equal(t, []string{"PIZZA5"}, f.redeemed)
}

func TestCompletePayment_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *checkout.Payment)
		wantErr error
	}{
		{
			name:    "unknown intent",
			modify:  func(p *checkout.Payment) { p.IntentID = "pi_unknown" },
			wantErr: domain.ErrOrderNotFound,
		},
		{
			name: "other establishment",
			modify: func(p *checkout.Payment) {
				p.Metadata = map[string]string{"establishment_id": uuid.NewString(), "cart_id": "cart-1"}
			},
			wantErr: domain.ErrPaymentMismatch,
		},
		{
			name: "other cart",
			modify: func(p *checkout.Payment) {
				p.Metadata = map[string]string{"establishment_id": p.Metadata["establishment_id"], "cart_id": "cart-2"}
			},
			wantErr: domain.ErrPaymentMismatch,
		},
		{
			name:    "missing metadata",
			modify:  func(p *checkout.Payment) { p.Metadata = nil },
			wantErr: domain.ErrPaymentMismatch,
		},
		{
			name:    "different amount",
			modify:  func(p *checkout.Payment) { p.AmountCents-- },
			wantErr: domain.ErrPaymentMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.add(t, "30.00", 1, nil)
			res, err := f.svc.Checkout(ctx, f.params())
			require.NoError(t, err)

			p := paid(res)
			tt.modify(&p)
			err = f.svc.CompletePayment(ctx, p)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.kitchen.Published)
			assert.Len(t, f.store.Items(ctx), 1)

			// The genuine event still places the order.
			require.NoError(t, f.svc.CompletePayment(ctx, paid(res)))
			assert.Len(t, f.kitchen.Published, 1)
		})
	}
}

func TestCompletePayment_TicketFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "30.00", 1, nil)
	f.kitchen.PublishFunc = func(context.Context, kitchen.Ticket) error {
		return errors.New("nats: connection closed")
	}

	res, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)

	require.NoError(t, f.svc.CompletePayment(ctx, paid(res)))

	assert.Empty(t, f.store.Items(ctx))
	require.Len(t, f.reporter.errs, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TicketsFailed.WithLabelValues(f.est.String())))
}

func TestCompletePayment_RedeemFailureIsReported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "30.00", 1, fixed("PIZZA5", "5"))
	f.coupons.RedeemFunc = func(context.Context, uuid.UUID, string) error {
		return coupon.ErrNotRedeemable
	}

	res, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)

	require.NoError(t, f.svc.CompletePayment(ctx, paid(res)))
	require.Len(t, f.reporter.errs, 1)
	assert.ErrorIs(t, f.reporter.errs[0], coupon.ErrNotRedeemable)
}

func TestCompletePayment_CouponBelowMinimumIsNotRedeemed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	terms := fixed("MENOS20", "20")
	terms.MinSubtotal = decimal.RequireFromString("100")
	f.add(t, "50.00", 1, terms)

	res, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)
	assert.Equal(t, "0.00", res.Totals.Discount.StringFixed(2))

	require.NoError(t, f.svc.CompletePayment(ctx, paid(res)))
	assert.Empty(t, f.redeemed)
}

func TestCompletePayment_CartGone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "30.00", 1, nil)
	p := f.params()
	p.CartID = "cart-expired"

	res, err := f.svc.Checkout(ctx, p)
	require.NoError(t, err)

	require.NoError(t, f.svc.CompletePayment(ctx, paid(res)))
	assert.Len(t, f.kitchen.Published, 1)
}

func TestCheckout_PickupHasNoFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "30.00", 1, nil)
	require.NoError(t, f.store.SetMode(delivery.ModePickup))

	res, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)
	assert.Equal(t, "30.00", res.Totals.Total.StringFixed(2))

	// Switching back after checkout does not change the paid order.
	require.NoError(t, f.store.SetMode(delivery.ModeDelivery))
	require.NoError(t, f.svc.CompletePayment(ctx, paid(res)))
	assert.Equal(t, "pickup", f.kitchen.Published[0].Mode)
}

func TestPaymentFailedAndCanceled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "30.00", 1, nil)
	res, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)
	est := f.est.String()

	f.svc.PaymentFailed(ctx, paid(res), "card_declined")
	assert.Equal(t, 1, f.svc.Pending(), "a failed attempt can be retried")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PaymentsFailed.WithLabelValues(est, "failed")))

	f.svc.PaymentCanceled(ctx, paid(res))
	assert.Zero(t, f.svc.Pending())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PaymentsFailed.WithLabelValues(est, "canceled")))
	assert.Len(t, f.store.Items(ctx), 1, "cart is untouched")

	assert.ErrorIs(t, f.svc.CompletePayment(ctx, paid(res)), domain.ErrOrderNotFound)
	assert.Empty(t, f.kitchen.Published)
}

func TestService_Sweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "30.00", 1, nil)
	_, err := f.svc.Checkout(ctx, f.params())
	require.NoError(t, err)

	f.now = f.now.Add(30 * time.Minute)
	assert.Zero(t, f.svc.Sweep(ctx))

	f.now = f.now.Add(31 * time.Minute)
	assert.Equal(t, 1, f.svc.Sweep(ctx))
	assert.Zero(t, f.svc.Pending())
}
