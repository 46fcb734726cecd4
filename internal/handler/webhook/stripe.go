// Package webhook receives payment events from the payment provider.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v82"

	"github.com/dukerupert/cardapio/internal/billing"
	"github.com/dukerupert/cardapio/internal/checkout"
	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/handler"
	"github.com/dukerupert/cardapio/internal/middleware"
	"github.com/dukerupert/cardapio/internal/telemetry"
)

// PaymentProcessor acts on payment outcomes. *checkout.Service implements it.
type PaymentProcessor interface {
	CompletePayment(ctx context.Context, p checkout.Payment) error
	PaymentFailed(ctx context.Context, p checkout.Payment, reason string)
	PaymentCanceled(ctx context.Context, p checkout.Payment)
}

// StripeWebhookConfig contains configuration for Stripe webhook handling
type StripeWebhookConfig struct {
	// WebhookSecret is the webhook signing secret from Stripe dashboard
	WebhookSecret string
}

// StripeHandler handles Stripe webhook events
type StripeHandler struct {
	provider billing.Provider
	orders   PaymentProcessor
	config   StripeWebhookConfig
	reporter telemetry.Reporter
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(provider billing.Provider, orders PaymentProcessor, config StripeWebhookConfig, reporter telemetry.Reporter) *StripeHandler {
	if reporter == nil {
		reporter = telemetry.NopReporter{}
	}
	return &StripeHandler{
		provider: provider,
		orders:   orders,
		config:   config,
		reporter: reporter,
	}
}

// HandleWebhook handles POST /webhooks/stripe
//
// Only signed events are processed. Once verified, every event is
// acknowledged with 200 so Stripe does not retry events this service has
// already seen or cannot act on.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/webhooks/stripe
//	stripe trigger payment_intent.succeeded
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const op = "webhook.stripe"
	logger := middleware.GetLogger(r.Context())

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, op, "Request body too large"))
			return
		}
		handler.ErrorResponse(w, r, domain.Invalid(op, "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		handler.ErrorResponse(w, r, domain.Invalid(op, "Missing signature"))
		return
	}

	if err := h.provider.VerifyWebhookSignature(payload, signature, h.config.WebhookSecret); err != nil {
		handler.ErrorResponse(w, r, domain.WrapError(err, domain.EUNAUTHORIZED, op, "Invalid signature"))
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "Invalid JSON"))
		return
	}

	logger = logger.With("event_id", event.ID, "event_type", string(event.Type))
	ctx := r.Context()

	switch event.Type {
	case "payment_intent.succeeded":
		h.handlePaymentIntentSucceeded(ctx, logger, event)

	case "payment_intent.payment_failed":
		h.handlePaymentIntentFailed(ctx, logger, event)

	case "payment_intent.canceled":
		h.handlePaymentIntentCanceled(ctx, logger, event)

	default:
		logger.DebugContext(ctx, "unhandled webhook event")
	}

	// Always return 200 to acknowledge receipt
	handler.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// handlePaymentIntentSucceeded sends the paid order to the kitchen.
func (h *StripeHandler) handlePaymentIntentSucceeded(ctx context.Context, logger *slog.Logger, event stripe.Event) {
	pi, ok := parsePaymentIntent(ctx, logger, event)
	if !ok {
		return
	}
	payment := paymentOf(pi)

	err := h.orders.CompletePayment(ctx, payment)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "payment completed", "payment_intent_id", payment.IntentID)
	case errors.Is(err, domain.ErrPaymentAlreadyProcessed):
		logger.InfoContext(ctx, "payment already processed", "payment_intent_id", payment.IntentID)
	default:
		// The customer was charged but no order was placed.
		logger.ErrorContext(ctx, "paid order not placed",
			"payment_intent_id", payment.IntentID,
			"establishment_id", payment.Metadata["establishment_id"],
			"cart_id", payment.Metadata["cart_id"],
			"error", err,
		)
		h.reporter.Report(ctx, err,
			slog.String("op", "webhook.payment_intent_succeeded"),
			slog.String("payment_intent_id", payment.IntentID),
			slog.Int64("amount_cents", payment.AmountCents),
		)
	}
}

// handlePaymentIntentFailed processes failed payment events
func (h *StripeHandler) handlePaymentIntentFailed(ctx context.Context, logger *slog.Logger, event stripe.Event) {
	pi, ok := parsePaymentIntent(ctx, logger, event)
	if !ok {
		return
	}

	reason := "unknown"
	if pi.LastPaymentError != nil {
		reason = string(pi.LastPaymentError.Code)
		if pi.LastPaymentError.DeclineCode != "" {
			reason += ":" + string(pi.LastPaymentError.DeclineCode)
		}
	}
	h.orders.PaymentFailed(ctx, paymentOf(pi), reason)
}

// handlePaymentIntentCanceled processes canceled payment events
func (h *StripeHandler) handlePaymentIntentCanceled(ctx context.Context, logger *slog.Logger, event stripe.Event) {
	pi, ok := parsePaymentIntent(ctx, logger, event)
	if !ok {
		return
	}
	h.orders.PaymentCanceled(ctx, paymentOf(pi))
}

func parsePaymentIntent(ctx context.Context, logger *slog.Logger, event stripe.Event) (*stripe.PaymentIntent, bool) {
	if event.Data == nil {
		logger.WarnContext(ctx, "webhook event without data")
		return nil, false
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		logger.WarnContext(ctx, "error parsing payment intent from webhook", "error", err)
		return nil, false
	}
	if pi.ID == "" {
		logger.WarnContext(ctx, "webhook payment intent without id")
		return nil, false
	}
	return &pi, true
}

func paymentOf(pi *stripe.PaymentIntent) checkout.Payment {
	return checkout.Payment{
		IntentID:    pi.ID,
		AmountCents: pi.Amount,
		Metadata:    pi.Metadata,
	}
}
