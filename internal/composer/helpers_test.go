package composer_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/cardapio/internal/domain"
)

// ============================================================================
// Fixtures
// ============================================================================

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

// pizza is a splittable product with a required crust group (exactly one)
// and an optional extras group (up to three).
type pizza struct {
	product domain.Product

	medium domain.Variation
	large  domain.Variation

	crust   domain.AdditiveGroup
	thin    domain.Additive
	stuffed domain.Additive

	extras domain.AdditiveGroup
	cheese domain.Additive // multi-unit
	bacon  domain.Additive // single-unit
}

func newPizza() pizza {
	promo := money("29.90")
	f := pizza{
		medium: domain.Variation{ID: uuid.New(), Name: "Medium", BasePrice: money("29.90")},
		large:  domain.Variation{ID: uuid.New(), Name: "Large", BasePrice: money("45.00"), PromotionalPrice: &promo},

		thin:    domain.Additive{ID: uuid.New(), Name: "Thin crust", Price: decimal.Zero},
		stuffed: domain.Additive{ID: uuid.New(), Name: "Stuffed crust", Price: money("5.00")},

		cheese: domain.Additive{ID: uuid.New(), Name: "Extra cheese", Price: money("4.00"), AllowsMultipleUnits: true},
		bacon:  domain.Additive{ID: uuid.New(), Name: "Bacon", Price: money("6.00")},
	}
	f.crust = domain.AdditiveGroup{
		ID: uuid.New(), Name: "Choose crust",
		MinSelection: 1, MaxSelection: 1, Required: true,
		Additives: []domain.Additive{f.thin, f.stuffed},
	}
	f.extras = domain.AdditiveGroup{
		ID: uuid.New(), Name: "Extras",
		MinSelection: 0, MaxSelection: 3,
		Additives: []domain.Additive{f.cheese, f.bacon},
	}
	f.product = domain.Product{
		ID:                uuid.New(),
		EstablishmentID:   uuid.New(),
		SubcategoryID:     uuid.New(),
		Name:              "Margherita",
		AllowsFlavorSplit: true,
		MaxFlavors:        4,
		Variations:        []domain.Variation{f.medium, f.large},
		AdditiveGroups:    []domain.AdditiveGroup{f.crust, f.extras},
	}
	return f
}

func flavors(names ...string) []domain.Product {
	out := make([]domain.Product, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Product{ID: uuid.New(), Name: n})
	}
	return out
}

// ============================================================================
// Mock Implementations
// ============================================================================

type mockCatalog struct {
	GetProductFunc             func(ctx context.Context, establishmentID, productID uuid.UUID) (*domain.Product, error)
	FetchCandidateProductsFunc func(ctx context.Context, establishmentID uuid.UUID, subcategoryIDs []uuid.UUID) ([]domain.Product, error)
	FetchAdditiveGroupsFunc    func(ctx context.Context, productID uuid.UUID) ([]domain.AdditiveGroup, error)
	SiblingSubcategoryIDsFunc  func(ctx context.Context, subcategoryID uuid.UUID) ([]uuid.UUID, error)
}

func (m *mockCatalog) GetProduct(ctx context.Context, establishmentID, productID uuid.UUID) (*domain.Product, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, establishmentID, productID)
	}
	return nil, domain.ErrProductNotFound
}

func (m *mockCatalog) FetchCandidateProducts(ctx context.Context, establishmentID uuid.UUID, subcategoryIDs []uuid.UUID) ([]domain.Product, error) {
	if m.FetchCandidateProductsFunc != nil {
		return m.FetchCandidateProductsFunc(ctx, establishmentID, subcategoryIDs)
	}
	return nil, nil
}

func (m *mockCatalog) FetchAdditiveGroups(ctx context.Context, productID uuid.UUID) ([]domain.AdditiveGroup, error) {
	if m.FetchAdditiveGroupsFunc != nil {
		return m.FetchAdditiveGroupsFunc(ctx, productID)
	}
	return nil, nil
}

func (m *mockCatalog) SiblingSubcategoryIDs(ctx context.Context, subcategoryID uuid.UUID) ([]uuid.UUID, error) {
	if m.SiblingSubcategoryIDsFunc != nil {
		return m.SiblingSubcategoryIDsFunc(ctx, subcategoryID)
	}
	return []uuid.UUID{subcategoryID}, nil
}

// catalogFor serves f's groups and the given candidates (plus the base
// product, which the session must filter out).
func catalogFor(f pizza, candidates []domain.Product) *mockCatalog {
	return &mockCatalog{
		GetProductFunc: func(_ context.Context, _, productID uuid.UUID) (*domain.Product, error) {
			if productID != f.product.ID {
				return nil, domain.ErrProductNotFound
			}
			p := f.product
			return &p, nil
		},
		FetchAdditiveGroupsFunc: func(context.Context, uuid.UUID) ([]domain.AdditiveGroup, error) {
			return []domain.AdditiveGroup{f.crust, f.extras}, nil
		},
		FetchCandidateProductsFunc: func(context.Context, uuid.UUID, []uuid.UUID) ([]domain.Product, error) {
			return append([]domain.Product{f.product}, candidates...), nil
		},
	}
}

type mockCoupons struct {
	ValidateFunc func(ctx context.Context, establishmentID uuid.UUID, code string, subtotal decimal.Decimal) (domain.CouponVerdict, error)
}

func (m *mockCoupons) Validate(ctx context.Context, establishmentID uuid.UUID, code string, subtotal decimal.Decimal) (domain.CouponVerdict, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, establishmentID, code, subtotal)
	}
	return domain.CouponVerdict{Reason: "Coupon not found"}, nil
}

// recordingCart is a CartStore that only records added items.
type recordingCart struct {
	mu     sync.Mutex
	items  []domain.LineItem
	addErr error
}

func (c *recordingCart) AddItem(_ context.Context, item domain.LineItem) error {
	if c.addErr != nil {
		return c.addErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
	return nil
}

func (c *recordingCart) RemoveItem(context.Context, uuid.UUID) error {
	return errors.New("not implemented in mock")
}

func (c *recordingCart) IncrementQuantity(context.Context, uuid.UUID) error {
	return errors.New("not implemented in mock")
}

func (c *recordingCart) DecrementQuantity(context.Context, uuid.UUID) error {
	return errors.New("not implemented in mock")
}

func (c *recordingCart) Items(context.Context) []domain.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.LineItem(nil), c.items...)
}

func (c *recordingCart) Totals(context.Context) (domain.CartTotals, error) {
	return domain.CartTotals{}, errors.New("not implemented in mock")
}
