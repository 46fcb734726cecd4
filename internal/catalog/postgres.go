// Package catalog serves menu data (products, variations, additive groups and
// subcategories) to the order composer.
package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/cardapio/internal/domain"
)

// DBTX is the part of pgxpool.Pool (and pgx.Tx) the provider needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresProvider implements domain.CatalogProvider using PostgreSQL.
type PostgresProvider struct {
	db     DBTX
	logger *slog.Logger
}

// Compile-time check that PostgresProvider implements domain.CatalogProvider.
var _ domain.CatalogProvider = (*PostgresProvider)(nil)

// NewPostgresProvider creates a PostgreSQL-backed catalog provider.
func NewPostgresProvider(db DBTX, logger *slog.Logger) *PostgresProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProvider{db: db, logger: logger}
}

// =============================================================================
// QUERIES
// =============================================================================

const getProductSQL = `
SELECT id, establishment_id, subcategory_id, name, description, image_url,
       featured, on_sale, allows_flavor_split, max_flavors
FROM products
WHERE establishment_id = $1 AND id = $2 AND active`

const listVariationsSQL = `
SELECT id, name, base_price, promotional_price
FROM variations
WHERE product_id = $1
ORDER BY sort_order, name`

const listCandidatesSQL = `
SELECT id, establishment_id, subcategory_id, name, description, image_url,
       featured, on_sale, allows_flavor_split, max_flavors
FROM products
WHERE establishment_id = $1 AND subcategory_id = ANY($2::uuid[]) AND active
ORDER BY sort_order, name`

const listAdditiveGroupsSQL = `
SELECT g.id, g.name, g.description, g.min_selection, g.max_selection, g.required,
       a.id, a.name, a.price, a.allows_multiple_units
FROM additive_groups g
JOIN additives a ON a.group_id = g.id AND a.active
WHERE g.product_id = $1
ORDER BY g.sort_order, g.name, g.id, a.sort_order, a.name`

const siblingSubcategoriesSQL = `
SELECT s.id
FROM subcategories s
JOIN subcategories base ON base.category_id = s.category_id
WHERE base.id = $1
ORDER BY s.sort_order, s.name`

// =============================================================================
// CatalogProvider
// =============================================================================

// GetProduct returns an active product with its variations. Additive groups
// are not included; fetch them with FetchAdditiveGroups.
func (p *PostgresProvider) GetProduct(ctx context.Context, establishmentID, productID uuid.UUID) (*domain.Product, error) {
	const op = "catalog.get_product"

	product, err := scanProduct(p.db.QueryRow(ctx, getProductSQL, establishmentID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, op, "failed to load product")
	}

	rows, err := p.db.Query(ctx, listVariationsSQL, productID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load variations")
	}
	product.Variations, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Variation, error) {
		var (
			v     domain.Variation
			promo decimal.NullDecimal
		)
		if err := row.Scan(&v.ID, &v.Name, &v.BasePrice, &promo); err != nil {
			return v, err
		}
		if promo.Valid {
			v.PromotionalPrice = &promo.Decimal
		}
		return v, nil
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load variations")
	}

	if err := domain.ValidateProduct(&product); err != nil {
		p.logger.WarnContext(ctx, "product failed catalog validation",
			"product_id", productID,
			"error", err,
		)
		return nil, err
	}

	return &product, nil
}

// FetchCandidateProducts returns the active products of the given
// subcategories, without variations or groups.
func (p *PostgresProvider) FetchCandidateProducts(ctx context.Context, establishmentID uuid.UUID, subcategoryIDs []uuid.UUID) ([]domain.Product, error) {
	if len(subcategoryIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(subcategoryIDs))
	for i, id := range subcategoryIDs {
		ids[i] = id.String()
	}

	rows, err := p.db.Query(ctx, listCandidatesSQL, establishmentID, ids)
	if err != nil {
		return nil, domain.Internal(err, "catalog.fetch_candidates", "failed to list candidate products")
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, domain.Internal(err, "catalog.fetch_candidates", "failed to list candidate products")
	}
	return products, nil
}

// FetchAdditiveGroups returns the additive groups of a product in display
// order. Groups that break the min/max invariants are dropped and logged so a
// misconfigured group cannot block add-to-cart.
func (p *PostgresProvider) FetchAdditiveGroups(ctx context.Context, productID uuid.UUID) ([]domain.AdditiveGroup, error) {
	const op = "catalog.fetch_additive_groups"

	rows, err := p.db.Query(ctx, listAdditiveGroupsSQL, productID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list additive groups")
	}
	defer rows.Close()

	var groups []domain.AdditiveGroup
	for rows.Next() {
		var (
			g domain.AdditiveGroup
			a domain.Additive
		)
		if err := rows.Scan(
			&g.ID, &g.Name, &g.Description, &g.MinSelection, &g.MaxSelection, &g.Required,
			&a.ID, &a.Name, &a.Price, &a.AllowsMultipleUnits,
		); err != nil {
			return nil, domain.Internal(err, op, "failed to scan additive group")
		}

		if n := len(groups); n > 0 && groups[n-1].ID == g.ID {
			groups[n-1].Additives = append(groups[n-1].Additives, a)
			continue
		}
		g.Additives = []domain.Additive{a}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to list additive groups")
	}

	return keepValidGroups(ctx, p.logger, productID, groups), nil
}

// SiblingSubcategoryIDs returns every subcategory under the same parent
// category as subcategoryID, itself included.
func (p *PostgresProvider) SiblingSubcategoryIDs(ctx context.Context, subcategoryID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := p.db.Query(ctx, siblingSubcategoriesSQL, subcategoryID)
	if err != nil {
		return nil, domain.Internal(err, "catalog.sibling_subcategories", "failed to list subcategories")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, domain.Internal(err, "catalog.sibling_subcategories", "failed to list subcategories")
	}
	return ids, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p          domain.Product
		subcat     uuid.NullUUID
		desc, img  *string
		maxFlavors *int
	)
	err := row.Scan(
		&p.ID, &p.EstablishmentID, &subcat, &p.Name, &desc, &img,
		&p.Featured, &p.OnSale, &p.AllowsFlavorSplit, &maxFlavors,
	)
	if err != nil {
		return p, err
	}
	if subcat.Valid {
		p.SubcategoryID = subcat.UUID
	}
	if desc != nil {
		p.Description = *desc
	}
	if img != nil {
		p.ImageURL = *img
	}
	if maxFlavors != nil {
		p.MaxFlavors = *maxFlavors
	}
	return p, nil
}

func keepValidGroups(ctx context.Context, logger *slog.Logger, productID uuid.UUID, groups []domain.AdditiveGroup) []domain.AdditiveGroup {
	out := groups[:0]
	for _, g := range groups {
		if err := domain.Validate("catalog.additive_group", g); err != nil {
			logger.WarnContext(ctx, "skipping invalid additive group",
				"product_id", productID,
				"group_id", g.ID,
				"error", err,
			)
			continue
		}
		out = append(out, g)
	}
	return out
}
