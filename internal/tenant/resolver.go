package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Resolver resolves establishments from various identifiers.
type Resolver interface {
	// BySlug resolves an establishment by its URL slug.
	BySlug(ctx context.Context, slug string) (*Tenant, error)

	// ByID resolves an establishment by ID.
	ByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}

// Querier is the part of pgxpool.Pool the resolver needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DBResolver implements Resolver using database queries.
type DBResolver struct {
	db Querier
}

// NewDBResolver creates a new database-backed establishment resolver.
func NewDBResolver(db Querier) *DBResolver {
	return &DBResolver{db: db}
}

const (
	bySlugSQL = `SELECT id, slug, name, status FROM establishments WHERE slug = lower($1)`
	byIDSQL   = `SELECT id, slug, name, status FROM establishments WHERE id = $1`
)

// BySlug resolves an establishment by slug.
func (r *DBResolver) BySlug(ctx context.Context, slug string) (*Tenant, error) {
	return r.scan(r.db.QueryRow(ctx, bySlugSQL, slug))
}

// ByID resolves an establishment by ID.
func (r *DBResolver) ByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return r.scan(r.db.QueryRow(ctx, byIDSQL, id))
}

func (r *DBResolver) scan(row pgx.Row) (*Tenant, error) {
	var t Tenant
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("resolve establishment: %w", err)
	}
	return &t, nil
}

// MemoryResolver resolves establishments from a fixed set, for tests and
// local development.
type MemoryResolver struct {
	mu     sync.RWMutex
	bySlug map[string]Tenant
	byID   map[uuid.UUID]Tenant
}

// NewMemoryResolver creates a resolver holding tenants.
func NewMemoryResolver(tenants ...Tenant) *MemoryResolver {
	r := &MemoryResolver{
		bySlug: make(map[string]Tenant),
		byID:   make(map[uuid.UUID]Tenant),
	}
	for _, t := range tenants {
		r.Add(t)
	}
	return r
}

// Add stores t, replacing any establishment with the same ID or slug.
func (r *MemoryResolver) Add(t Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.Slug = strings.ToLower(t.Slug)
	r.bySlug[t.Slug] = t
	r.byID[t.ID] = t
}

// BySlug resolves an establishment by slug.
func (r *MemoryResolver) BySlug(_ context.Context, slug string) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bySlug[strings.ToLower(slug)]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return &t, nil
}

// ByID resolves an establishment by ID.
func (r *MemoryResolver) ByID(_ context.Context, id uuid.UUID) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return &t, nil
}

// Compile-time checks that the resolvers implement Resolver.
var (
	_ Resolver = (*DBResolver)(nil)
	_ Resolver = (*MemoryResolver)(nil)
)
