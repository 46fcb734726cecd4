// Package tenant resolves the establishment a storefront request belongs to.
package tenant

import (
	"github.com/google/uuid"

	"github.com/dukerupert/cardapio/internal/domain"
)

// Establishment statuses.
const (
	StatusActive = "active"
	StatusPaused = "paused"
	StatusClosed = "closed"
)

// Tenant represents a resolved establishment.
type Tenant struct {
	ID     uuid.UUID
	Slug   string
	Name   string
	Status string // active, paused, closed
}

// IsActive returns true if the establishment is taking orders.
func (t *Tenant) IsActive() bool {
	return t != nil && t.Status == StatusActive
}

// Establishment returns the minimal form stored in request contexts.
func (t *Tenant) Establishment() *domain.Establishment {
	return &domain.Establishment{ID: t.ID, Slug: t.Slug}
}
