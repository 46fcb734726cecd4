package composer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/cardapio/internal/domain"
)

// DefaultSessionTTL is how long an untouched session survives before Sweep
// discards it.
const DefaultSessionTTL = 30 * time.Minute

// Registry holds the open configuration sessions of the server.
type Registry struct {
	deps Deps
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty registry. A ttl <= 0 uses DefaultSessionTTL.
func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		deps:     deps.withDefaults(),
		ttl:      ttl,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Open looks up the product, starts a session for it and waits for its
// catalog data to load.
func (r *Registry) Open(ctx context.Context, establishmentID, productID uuid.UUID) (*Session, error) {
	const op = "composer.Registry.Open"

	product, err := r.deps.Catalog.GetProduct(ctx, establishmentID, productID)
	if err != nil {
		return nil, domain.WrapError(err, domain.ErrorCode(err), op, domain.ErrorMessage(err))
	}

	s := NewSession(establishmentID, *product, r.deps)
	s.onClose = r.forget

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		r.forget(s)
		return nil, err
	}

	r.deps.Logger.InfoContext(ctx, "configuration session opened",
		"session_id", s.ID(),
		"establishment_id", establishmentID,
		"product_id", productID,
	)
	return s, nil
}

// Get returns an open session of the establishment.
func (r *Registry) Get(establishmentID, sessionID uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok || s.EstablishmentID() != establishmentID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close cancels a session of the establishment.
func (r *Registry) Close(establishmentID, sessionID uuid.UUID) error {
	s, err := r.Get(establishmentID, sessionID)
	if err != nil {
		return err
	}
	s.Close()
	return nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were closed.
func (r *Registry) Sweep(ctx context.Context) int {
	cutoff := r.deps.Now().Add(-r.ttl)

	r.mu.RLock()
	var idle []*Session
	for _, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range idle {
		s.closeWithReason("expired")
	}
	if len(idle) > 0 {
		r.deps.Logger.InfoContext(ctx, "expired idle configuration sessions",
			slog.Int("count", len(idle)),
		)
	}
	return len(idle)
}

func (r *Registry) forget(s *Session) {
	r.mu.Lock()
	delete(r.sessions, s.ID())
	r.mu.Unlock()
}
