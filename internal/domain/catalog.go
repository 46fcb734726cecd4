package domain

import (
	"context"

	"github.com/google/uuid"
)

// CatalogProvider is the read-only source of menu data.
// All methods are idempotent and side-effect free.
type CatalogProvider interface {
	// GetProduct returns an active product of the establishment with its
	// variations. Additive groups may be omitted; use FetchAdditiveGroups.
	GetProduct(ctx context.Context, establishmentID, productID uuid.UUID) (*Product, error)

	// FetchCandidateProducts returns active products of the establishment in
	// any of the given subcategories.
	FetchCandidateProducts(ctx context.Context, establishmentID uuid.UUID, subcategoryIDs []uuid.UUID) ([]Product, error)

	// FetchAdditiveGroups returns the additive groups of a product, ordered.
	FetchAdditiveGroups(ctx context.Context, productID uuid.UUID) ([]AdditiveGroup, error)

	// SiblingSubcategoryIDs returns every subcategory sharing the parent
	// category of subcategoryID, including subcategoryID itself.
	SiblingSubcategoryIDs(ctx context.Context, subcategoryID uuid.UUID) ([]uuid.UUID, error)
}
