package delivery

import (
	"context"

	"github.com/shopspring/decimal"
)

// MockProvider is a test implementation of Provider.
type MockProvider struct {
	QuoteFunc func(ctx context.Context, params QuoteParams) (*Quote, error)
}

// Quote delegates to QuoteFunc or returns a free quote in the requested mode.
func (m *MockProvider) Quote(ctx context.Context, params QuoteParams) (*Quote, error) {
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, params)
	}
	return &Quote{Mode: params.Mode, Fee: decimal.Zero}, nil
}
