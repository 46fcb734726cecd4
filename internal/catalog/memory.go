package catalog

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dukerupert/cardapio/internal/domain"
)

// MemoryProvider is an in-process catalog for tests and local development.
// Everything returned is a deep copy; callers may modify it freely.
type MemoryProvider struct {
	logger *slog.Logger

	mu            sync.RWMutex
	products      map[uuid.UUID]domain.Product
	order         []uuid.UUID
	subcategories map[uuid.UUID]domain.Subcategory
}

// Compile-time check that MemoryProvider implements domain.CatalogProvider.
var _ domain.CatalogProvider = (*MemoryProvider)(nil)

// NewMemoryProvider creates an empty in-memory catalog.
func NewMemoryProvider(logger *slog.Logger) *MemoryProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryProvider{
		logger:        logger,
		products:      make(map[uuid.UUID]domain.Product),
		subcategories: make(map[uuid.UUID]domain.Subcategory),
	}
}

// AddSubcategory registers a subcategory.
func (m *MemoryProvider) AddSubcategory(s domain.Subcategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subcategories[s.ID] = s
}

// AddProduct validates and stores a product, replacing one with the same id.
func (m *MemoryProvider) AddProduct(p domain.Product) error {
	if err := domain.ValidateProduct(&p); err != nil {
		m.logger.Warn("rejecting invalid product", "product_id", p.ID, "error", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[p.ID]; !exists {
		m.order = append(m.order, p.ID)
	}
	m.products[p.ID] = cloneProduct(p)
	return nil
}

// GetProduct returns a product with its variations. Like the PostgreSQL
// provider, additive groups are left for FetchAdditiveGroups.
func (m *MemoryProvider) GetProduct(_ context.Context, establishmentID, productID uuid.UUID) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[productID]
	if !ok || p.EstablishmentID != establishmentID {
		return nil, domain.ErrProductNotFound
	}
	out := cloneProduct(p)
	out.AdditiveGroups = nil
	return &out, nil
}

// FetchCandidateProducts returns the establishment's products in the given
// subcategories, in insertion order.
func (m *MemoryProvider) FetchCandidateProducts(_ context.Context, establishmentID uuid.UUID, subcategoryIDs []uuid.UUID) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Product
	for _, id := range m.order {
		p := m.products[id]
		if p.EstablishmentID != establishmentID || !slices.Contains(subcategoryIDs, p.SubcategoryID) {
			continue
		}
		c := cloneProduct(p)
		c.Variations = nil
		c.AdditiveGroups = nil
		out = append(out, c)
	}
	return out, nil
}

// FetchAdditiveGroups returns the product's additive groups.
func (m *MemoryProvider) FetchAdditiveGroups(_ context.Context, productID uuid.UUID) ([]domain.AdditiveGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return cloneProduct(p).AdditiveGroups, nil
}

// SiblingSubcategoryIDs returns the subcategories sharing subcategoryID's
// parent category, itself included.
func (m *MemoryProvider) SiblingSubcategoryIDs(_ context.Context, subcategoryID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	base, ok := m.subcategories[subcategoryID]
	if !ok {
		return nil, nil
	}

	var ids []uuid.UUID
	for _, s := range m.subcategories {
		if s.CategoryID == base.CategoryID {
			ids = append(ids, s.ID)
		}
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return ids, nil
}

func cloneProduct(p domain.Product) domain.Product {
	p.Variations = slices.Clone(p.Variations)
	for i, v := range p.Variations {
		if v.PromotionalPrice != nil {
			promo := *v.PromotionalPrice
			p.Variations[i].PromotionalPrice = &promo
		}
	}
	p.AdditiveGroups = slices.Clone(p.AdditiveGroups)
	for i := range p.AdditiveGroups {
		p.AdditiveGroups[i].Additives = slices.Clone(p.AdditiveGroups[i].Additives)
	}
	return p
}
