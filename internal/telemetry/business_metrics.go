package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// BusinessMetrics holds Prometheus metrics for menu and cart observability.
// All metrics carry an establishment_id label for per-restaurant dashboards.
//
// Recording methods are safe on a nil receiver so components can run
// without metrics in tests.
type BusinessMetrics struct {
	// Configuration sessions
	SessionsOpened     *prometheus.CounterVec
	SessionsAbandoned  *prometheus.CounterVec
	AdditivesRejected  *prometheus.CounterVec
	CatalogFetchFailed *prometheus.CounterVec

	// Coupons
	CouponsApplied  *prometheus.CounterVec
	CouponsRejected *prometheus.CounterVec
	CouponErrors    *prometheus.CounterVec

	// Cart
	LineItemsAdded *prometheus.CounterVec
	LineItemValue  *prometheus.HistogramVec

	// Checkout
	CheckoutsStarted   *prometheus.CounterVec
	PaymentsFailed     *prometheus.CounterVec
	CheckoutsCompleted *prometheus.CounterVec
	CheckoutValue      *prometheus.HistogramVec
	TicketsFailed      *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics on reg.
// A nil reg uses the default Prometheus registerer.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "cardapio"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	const subsystem = "business"
	factory := promauto.With(reg)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, append([]string{"establishment_id"}, labels...))
	}

	// Values in BRL; most orders land between R$10 and R$300.
	valueBuckets := []float64{10, 25, 50, 75, 100, 150, 200, 300, 500}

	return &BusinessMetrics{
		SessionsOpened:     counter("sessions_opened_total", "Product configuration sessions opened"),
		SessionsAbandoned:  counter("sessions_abandoned_total", "Configuration sessions closed without adding to cart", "reason"),
		AdditivesRejected:  counter("additive_adjustments_rejected_total", "Additive changes rejected by group capacity"),
		CatalogFetchFailed: counter("catalog_fetch_failures_total", "Catalog fetches that fell back to an empty list", "kind"),

		CouponsApplied:  counter("coupons_applied_total", "Coupons accepted", "kind"),
		CouponsRejected: counter("coupons_rejected_total", "Coupons rejected by the validator"),
		CouponErrors:    counter("coupon_validation_errors_total", "Coupon validations that failed to run"),

		LineItemsAdded: counter("line_items_added_total", "Line items added to carts"),
		LineItemValue: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "line_item_value_brl",
			Help:      "Total of line items added to carts",
			Buckets:   valueBuckets,
		}, []string{"establishment_id"}),

		CheckoutsStarted:   counter("checkouts_started_total", "Payment intents created for carts"),
		PaymentsFailed:     counter("payments_failed_total", "Payments that failed or were canceled", "outcome"),
		CheckoutsCompleted: counter("checkouts_completed_total", "Paid orders sent to the kitchen"),
		CheckoutValue: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checkout_value_brl",
			Help:      "Cart total at checkout",
			Buckets:   valueBuckets,
		}, []string{"establishment_id"}),
		TicketsFailed: counter("kitchen_tickets_failed_total", "Kitchen tickets that could not be published"),
	}
}

// =============================================================================
// Recording helpers
// =============================================================================

func (m *BusinessMetrics) RecordSessionOpened(establishmentID string) {
	if m == nil {
		return
	}
	m.SessionsOpened.WithLabelValues(establishmentID).Inc()
}

func (m *BusinessMetrics) RecordSessionAbandoned(establishmentID, reason string) {
	if m == nil {
		return
	}
	m.SessionsAbandoned.WithLabelValues(establishmentID, reason).Inc()
}

func (m *BusinessMetrics) RecordAdditiveRejected(establishmentID string) {
	if m == nil {
		return
	}
	m.AdditivesRejected.WithLabelValues(establishmentID).Inc()
}

func (m *BusinessMetrics) RecordCatalogFetchFailed(establishmentID, kind string) {
	if m == nil {
		return
	}
	m.CatalogFetchFailed.WithLabelValues(establishmentID, kind).Inc()
}

func (m *BusinessMetrics) RecordCouponApplied(establishmentID, kind string) {
	if m == nil {
		return
	}
	m.CouponsApplied.WithLabelValues(establishmentID, kind).Inc()
}

func (m *BusinessMetrics) RecordCouponRejected(establishmentID string) {
	if m == nil {
		return
	}
	m.CouponsRejected.WithLabelValues(establishmentID).Inc()
}

func (m *BusinessMetrics) RecordCouponError(establishmentID string) {
	if m == nil {
		return
	}
	m.CouponErrors.WithLabelValues(establishmentID).Inc()
}

func (m *BusinessMetrics) RecordLineItemAdded(establishmentID string, total decimal.Decimal) {
	if m == nil {
		return
	}
	m.LineItemsAdded.WithLabelValues(establishmentID).Inc()
	m.LineItemValue.WithLabelValues(establishmentID).Observe(total.InexactFloat64())
}

func (m *BusinessMetrics) RecordCheckoutStarted(establishmentID string) {
	if m == nil {
		return
	}
	m.CheckoutsStarted.WithLabelValues(establishmentID).Inc()
}

func (m *BusinessMetrics) RecordPaymentFailed(establishmentID, outcome string) {
	if m == nil {
		return
	}
	m.PaymentsFailed.WithLabelValues(establishmentID, outcome).Inc()
}

func (m *BusinessMetrics) RecordCheckout(establishmentID string, total decimal.Decimal) {
	if m == nil {
		return
	}
	m.CheckoutsCompleted.WithLabelValues(establishmentID).Inc()
	m.CheckoutValue.WithLabelValues(establishmentID).Observe(total.InexactFloat64())
}

func (m *BusinessMetrics) RecordTicketFailed(establishmentID string) {
	if m == nil {
		return
	}
	m.TicketsFailed.WithLabelValues(establishmentID).Inc()
}
