package storefront

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/cardapio/internal/cart"
	"github.com/dukerupert/cardapio/internal/checkout"
	"github.com/dukerupert/cardapio/internal/cookie"
	"github.com/dukerupert/cardapio/internal/delivery"
	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/handler"
)

// CheckoutService starts payment for a cart.
type CheckoutService interface {
	Checkout(ctx context.Context, p checkout.Params) (*checkout.Result, error)
}

// CartHandler handles all cart-related storefront routes
type CartHandler struct {
	carts    *cart.Registry
	checkout CheckoutService
	cookies  *cookie.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Registry, checkoutService CheckoutService, cookies *cookie.Config) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkoutService, cookies: cookies}
}

type modeRequest struct {
	Mode delivery.Mode `json:"mode" validate:"required,oneof=delivery pickup"`
}

// View handles GET /e/{establishment}/cart
// A customer without a cart sees an empty one; no cookie is set.
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	estID, err := domain.RequireEstablishmentID(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.writeCart(w, r, cartFor(r, h.carts, estID))
}

// Increment handles POST /e/{establishment}/cart/items/{item}/increment
func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, (*cart.Store).IncrementQuantity)
}

// Decrement handles POST /e/{establishment}/cart/items/{item}/decrement
// Decrementing a line with quantity 1 removes it.
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, (*cart.Store).DecrementQuantity)
}

// Remove handles DELETE /e/{establishment}/cart/items/{item}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, (*cart.Store).RemoveItem)
}

// SetMode handles POST /e/{establishment}/cart/mode
func (h *CartHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	estID, err := domain.RequireEstablishmentID(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	var req modeRequest
	if err := handler.DecodeJSON(r, "storefront.set_mode", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	store, _, err := getOrCreateCart(w, r, h.carts, h.cookies, estID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := store.SetMode(req.Mode); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.writeCart(w, r, store)
}

// Checkout handles POST /e/{establishment}/cart/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	estID, err := domain.RequireEstablishmentID(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cartID := cookie.Get(r, cookie.CartCookieName)
	store, ok := h.carts.Get(estID, cartID)
	if !ok {
		handler.ErrorResponse(w, r, domain.ErrEmptyCart)
		return
	}

	result, err := h.checkout.Checkout(r.Context(), checkout.Params{
		EstablishmentID: estID,
		CartID:          cartID,
		Cart:            store,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, result)
}

func (h *CartHandler) mutateItem(w http.ResponseWriter, r *http.Request, fn func(*cart.Store, context.Context, uuid.UUID) error) {
	ctx := r.Context()

	estID, err := domain.RequireEstablishmentID(ctx)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	itemID, err := pathUUID(r, "item", domain.ErrCartItemNotFound)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	store := cartFor(r, h.carts, estID)
	if store == nil {
		handler.ErrorResponse(w, r, domain.ErrCartItemNotFound)
		return
	}
	if err := fn(store, ctx, itemID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.writeCart(w, r, store)
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, store *cart.Store) {
	view, err := buildCartView(r, store)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, view)
}
