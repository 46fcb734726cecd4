// Package storefront serves the customer-facing JSON API of an
// establishment: product detail, configuration sessions and the cart.
package storefront

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/cardapio/internal/cart"
	"github.com/dukerupert/cardapio/internal/cookie"
	"github.com/dukerupert/cardapio/internal/delivery"
	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/middleware"
)

// establishmentPath is the storefront root the cart cookie is scoped to.
func establishmentPath(r *http.Request) string {
	if est := domain.EstablishmentFromContext(r.Context()); est != nil && est.Slug != "" {
		return "/e/" + est.Slug
	}
	return "/e/" + r.PathValue(middleware.EstablishmentPathValue)
}

// pathUUID parses a uuid path wildcard. A malformed id can never name an
// existing resource, so it maps to notFound.
func pathUUID(r *http.Request, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

// cartFor returns the request's existing cart, or nil.
func cartFor(r *http.Request, carts *cart.Registry, establishmentID uuid.UUID) *cart.Store {
	store, ok := carts.Get(establishmentID, cookie.Get(r, cookie.CartCookieName))
	if !ok {
		return nil
	}
	return store
}

// getOrCreateCart returns the request's cart, creating it (and setting the
// cookie) when the customer has none yet.
func getOrCreateCart(w http.ResponseWriter, r *http.Request, carts *cart.Registry, cookies *cookie.Config, establishmentID uuid.UUID) (*cart.Store, string, error) {
	current := cookie.Get(r, cookie.CartCookieName)
	store, id, err := carts.GetOrCreate(establishmentID, current)
	if err != nil {
		return nil, "", domain.Internal(err, "storefront.cart", "failed to start cart")
	}
	if id != current {
		cookies.SetSession(w, cookie.CartCookieName, id, establishmentPath(r))
	}
	return store, id, nil
}

func buildCartView(r *http.Request, store *cart.Store) (cartView, error) {
	if store == nil {
		return cartView{Items: []domain.LineItem{}, Mode: delivery.ModeDelivery}, nil
	}
	snap, err := store.Snapshot(r.Context())
	if err != nil {
		return cartView{}, err
	}
	return cartView{Items: snap.Items, Mode: snap.Mode, Totals: snap.Totals}, nil
}
