package billing

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for tests and local development.
// It never calls Stripe. Like Stripe, a repeated IdempotencyKey returns the
// intent created by the first call.
type MockProvider struct {
	// CreatePaymentIntentFunc allows customizing payment intent creation behavior
	CreatePaymentIntentFunc func(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// VerifyWebhookSignatureFunc allows customizing webhook verification behavior
	VerifyWebhookSignatureFunc func(payload []byte, signature string, secret string) error

	// PaymentIntents stores created payment intents by ID
	PaymentIntents map[string]*PaymentIntent

	// CallLog tracks method calls for test assertions
	CallLog []string

	mu          sync.Mutex
	idempotency map[string]*PaymentIntent
}

// Compile-time check that MockProvider implements Provider.
var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		PaymentIntents: make(map[string]*PaymentIntent),
		CallLog:        []string{},
		idempotency:    make(map[string]*PaymentIntent),
	}
}

// CreatePaymentIntent creates a mock payment intent.
func (m *MockProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, fmt.Sprintf("CreatePaymentIntent(%d, %s)", params.AmountCents, params.Currency))

	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, params)
	}

	if params.AmountCents < MinimumAmountCents {
		return nil, ErrAmountTooSmall
	}
	if pi, ok := m.idempotency[params.IdempotencyKey]; ok && params.IdempotencyKey != "" {
		return pi, nil
	}

	id := "pi_" + uuid.New().String()
	pi := &PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.New().String(),
		AmountCents:  params.AmountCents,
		Currency:     params.Currency,
		Status:       "requires_payment_method",
		Metadata:     maps.Clone(params.Metadata),
	}
	if m.PaymentIntents == nil {
		m.PaymentIntents = make(map[string]*PaymentIntent)
	}
	if m.idempotency == nil {
		m.idempotency = make(map[string]*PaymentIntent)
	}
	m.PaymentIntents[id] = pi
	if params.IdempotencyKey != "" {
		m.idempotency[params.IdempotencyKey] = pi
	}
	return pi, nil
}

// VerifyWebhookSignature verifies a mock webhook signature.
func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, "VerifyWebhookSignature")
	m.mu.Unlock()

	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature, secret)
	}

	// Default mock behavior: always verify successfully
	return nil
}
