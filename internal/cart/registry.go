package cart

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/cardapio/internal/delivery"
)

// DefaultCartTTL is how long an untouched cart is kept.
const DefaultCartTTL = 24 * time.Hour

// Registry maps cart session ids to stores.
type Registry struct {
	delivery delivery.Provider
	ttl      time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	carts map[string]*Store
}

// NewRegistry creates a registry whose carts quote delivery through provider.
// A non-positive ttl uses DefaultCartTTL.
func NewRegistry(provider delivery.Provider, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &Registry{
		delivery: provider,
		ttl:      ttl,
		now:      time.Now,
		carts:    make(map[string]*Store),
	}
}

// Get returns the cart for a session id, if it belongs to the establishment.
func (r *Registry) Get(establishmentID uuid.UUID, sessionID string) (*Store, bool) {
	if sessionID == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.carts[sessionID]
	if !ok || s.establishmentID != establishmentID {
		return nil, false
	}
	return s, true
}

// GetOrCreate returns the cart for sessionID, or creates one under a new
// session id when there is none for this establishment. The returned id is
// the one the caller should keep.
func (r *Registry) GetOrCreate(establishmentID uuid.UUID, sessionID string) (*Store, string, error) {
	if s, ok := r.Get(establishmentID, sessionID); ok {
		return s, sessionID, nil
	}

	id, err := GenerateSessionID()
	if err != nil {
		return nil, "", err
	}

	s := newStore(establishmentID, r.delivery, r.now)
	r.mu.Lock()
	r.carts[id] = s
	r.mu.Unlock()
	return s, id, nil
}

// Remove forgets a cart.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sessionID)
}

// Len returns the number of carts held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carts)
}

// Sweep forgets carts idle for longer than the TTL and returns how many were
// removed.
func (r *Registry) Sweep(_ context.Context) int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.carts {
		if s.idleSince().Before(cutoff) {
			delete(r.carts, id)
			removed++
		}
	}
	return removed
}

// GenerateSessionID creates a cryptographically random cart session id.
func GenerateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.URLEncoding.EncodeToString(b), nil
}
