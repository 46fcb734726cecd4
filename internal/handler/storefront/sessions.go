package storefront

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/cardapio/internal/cart"
	"github.com/dukerupert/cardapio/internal/composer"
	"github.com/dukerupert/cardapio/internal/cookie"
	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/handler"
)

// SessionHandler drives product configuration sessions.
type SessionHandler struct {
	sessions *composer.Registry
	carts    *cart.Registry
	cookies  *cookie.Config
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *composer.Registry, carts *cart.Registry, cookies *cookie.Config) *SessionHandler {
	return &SessionHandler{sessions: sessions, carts: carts, cookies: cookies}
}

// Request payloads.
type (
	openSessionRequest struct {
		ProductID uuid.UUID `json:"product_id" validate:"required"`
	}
	variationRequest struct {
		VariationID uuid.UUID `json:"variation_id" validate:"required"`
	}
	additiveRequest struct {
		GroupID    uuid.UUID `json:"group_id" validate:"required"`
		AdditiveID uuid.UUID `json:"additive_id" validate:"required"`
		Delta      int       `json:"delta" validate:"required,min=-10,max=10"`
	}
	splitRequest struct {
		Enabled bool `json:"enabled"`
		Count   int  `json:"count" validate:"required_if=Enabled true"`
	}
	flavorRequest struct {
		Slot      int       `json:"slot" validate:"required,min=2"`
		ProductID uuid.UUID `json:"product_id"`
	}
	noteRequest struct {
		Note string `json:"note"`
	}
	quantityRequest struct {
		Quantity int    `json:"quantity" validate:"omitempty,min=1"`
		Action   string `json:"action" validate:"omitempty,oneof=increment decrement"`
	}
	couponRequest struct {
		Code string `json:"code" validate:"required,max=64"`
	}
)

// session resolves the {session} wildcard within the request's establishment.
func (h *SessionHandler) session(r *http.Request) (*composer.Session, error) {
	estID, err := domain.RequireEstablishmentID(r.Context())
	if err != nil {
		return nil, err
	}
	id, err := pathUUID(r, "session", composer.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(estID, id)
}

// respond writes the snapshot or the error.
func respond(w http.ResponseWriter, r *http.Request, snap composer.Snapshot, err error) {
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, newSessionView(snap))
}

// Open handles POST /e/{establishment}/sessions
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	estID, err := domain.RequireEstablishmentID(ctx)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var req openSessionRequest
	if err := handler.DecodeJSON(r, "storefront.open_session", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	s, err := h.sessions.Open(ctx, estID, req.ProductID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Location", establishmentPath(r)+"/sessions/"+s.ID().String())
	handler.WriteJSON(w, http.StatusCreated, newSessionView(s.Snapshot()))
}

// Get handles GET /e/{establishment}/sessions/{session}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, newSessionView(s.Snapshot()))
}

// SelectVariation handles POST /e/{establishment}/sessions/{session}/variation
func (h *SessionHandler) SelectVariation(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	var req variationRequest
	if err := handler.DecodeJSON(r, "storefront.select_variation", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	snap, err := s.SelectVariation(req.VariationID)
	respond(w, r, snap, err)
}

// AdjustAdditive handles POST /e/{establishment}/sessions/{session}/additives
//
// A change refused for capacity is not an error: the response is 200 with
// additive_accepted false and the unchanged selection.
func (h *SessionHandler) AdjustAdditive(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	var req additiveRequest
	if err := handler.DecodeJSON(r, "storefront.adjust_additive", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	snap, accepted, err := s.AdjustAdditive(req.GroupID, req.AdditiveID, req.Delta)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	v := newSessionView(snap)
	v.AdditiveAccepted = &accepted
	handler.WriteJSON(w, http.StatusOK, v)
}

// SetSplit handles POST /e/{establishment}/sessions/{session}/split
func (h *SessionHandler) SetSplit(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	var req splitRequest
	if err := handler.DecodeJSON(r, "storefront.set_split", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	snap, err := s.SetSplit(req.Enabled, req.Count)
	respond(w, r, snap, err)
}

// SetFlavor handles POST /e/{establishment}/sessions/{session}/flavors
// A nil product_id clears the slot.
func (h *SessionHandler) SetFlavor(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	var req flavorRequest
	if err := handler.DecodeJSON(r, "storefront.set_flavor", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	snap, err := s.SetFlavorSlot(req.Slot, req.ProductID)
	respond(w, r, snap, err)
}

// SetNote handles POST /e/{establishment}/sessions/{session}/note
func (h *SessionHandler) SetNote(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	var req noteRequest
	if err := handler.DecodeJSON(r, "storefront.set_note", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	snap, err := s.SetNote(req.Note)
	respond(w, r, snap, err)
}

// SetQuantity handles POST /e/{establishment}/sessions/{session}/quantity
// The body carries either an absolute quantity or an increment/decrement action.
func (h *SessionHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	var req quantityRequest
	if err := handler.DecodeJSON(r, "storefront.set_quantity", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var snap composer.Snapshot
	switch req.Action {
	case "increment":
		snap, err = s.IncrementQuantity()
	case "decrement":
		snap, err = s.DecrementQuantity()
	default:
		snap, err = s.SetQuantity(req.Quantity)
	}
	respond(w, r, snap, err)
}

// ApplyCoupon handles POST /e/{establishment}/sessions/{session}/coupon
func (h *SessionHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	var req couponRequest
	if err := handler.DecodeJSON(r, "storefront.apply_coupon", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	snap, err := s.ApplyCoupon(r.Context(), req.Code)
	respond(w, r, snap, err)
}

// RemoveCoupon handles DELETE /e/{establishment}/sessions/{session}/coupon
func (h *SessionHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	snap, err := s.RemoveCoupon()
	respond(w, r, snap, err)
}

// AddToCart handles POST /e/{establishment}/sessions/{session}/cart
//
// On success the session is closed and the response carries the new line
// item and the updated cart.
func (h *SessionHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	store, _, err := getOrCreateCart(w, r, h.carts, h.cookies, s.EstablishmentID())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	item, err := s.AddToCart(r.Context(), store)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := buildCartView(r, store)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, addedView{Item: item, Cart: view})
}

// Close handles DELETE /e/{establishment}/sessions/{session}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	estID, err := domain.RequireEstablishmentID(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	id, err := pathUUID(r, "session", composer.ErrSessionNotFound)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := h.sessions.Close(estID, id); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
