package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider with the Stripe API.
type StripeProvider struct {
	client paymentintent.Client
	logger *slog.Logger
}

// Compile-time check that StripeProvider implements Provider.
var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a Stripe-backed billing provider.
func NewStripeProvider(cfg StripeConfig, logger *slog.Logger) (*StripeProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 2
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(retries),
	})

	logger.Info("stripe billing configured", "test_mode", cfg.IsTestMode())
	return &StripeProvider{
		client: paymentintent.Client{B: backend, Key: cfg.APIKey},
		logger: logger,
	}, nil
}

// CreatePaymentIntent creates a card payment intent with automatic payment
// methods enabled.
func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	if params.AmountCents < MinimumAmountCents {
		return nil, ErrAmountTooSmall
	}

	currency := strings.ToLower(params.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyBRL)
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.AmountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	piParams.Context = ctx
	if params.Description != "" {
		piParams.Description = stripe.String(params.Description)
	}
	for k, v := range params.Metadata {
		piParams.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		piParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	pi, err := s.client.New(piParams)
	if err != nil {
		wrapped := wrapStripeError(err)
		s.logger.ErrorContext(ctx, "stripe payment intent failed",
			"amount_cents", params.AmountCents,
			"error", wrapped,
		)
		return nil, wrapped
	}

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the
// payload and the endpoint's signing secret. Events older than Stripe's
// default tolerance are rejected.
func (s *StripeProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	if err := webhook.ValidatePayload(payload, signature, secret); err != nil {
		s.logger.Warn("stripe webhook signature rejected", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}
	return nil
}

// wrapStripeError converts SDK errors into StripeError, and idempotency
// mismatches into ErrIdempotencyConflict.
func wrapStripeError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return &StripeError{Message: err.Error(), Code: "api_connection_error", OriginalError: err}
	}
	if se.Type == stripe.ErrorTypeIdempotency {
		return ErrIdempotencyConflict
	}
	return &StripeError{
		Message:       se.Msg,
		Code:          string(se.Code),
		DeclineCode:   string(se.DeclineCode),
		StatusCode:    se.HTTPStatusCode,
		RequestID:     se.RequestID,
		OriginalError: err,
	}
}
