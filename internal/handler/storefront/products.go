package storefront

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/handler"
	"github.com/dukerupert/cardapio/internal/middleware"
)

// ProductHandler serves product detail.
type ProductHandler struct {
	catalog domain.CatalogProvider
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog domain.CatalogProvider, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

// Detail handles GET /e/{establishment}/products/{product}
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	estID, err := domain.RequireEstablishmentID(ctx)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	productID, err := pathUUID(r, "product", domain.ErrProductNotFound)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := h.catalog.GetProduct(ctx, estID, productID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	groups, err := h.catalog.FetchAdditiveGroups(ctx, productID)
	if err != nil {
		middleware.GetLogger(ctx, h.logger).WarnContext(ctx, "additive groups unavailable",
			"product_id", productID,
			"error", err,
		)
	}
	product.AdditiveGroups = groups

	handler.WriteJSON(w, http.StatusOK, product)
}
