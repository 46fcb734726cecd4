package routes

import (
	"github.com/dukerupert/cardapio/internal/middleware"
	"github.com/dukerupert/cardapio/internal/router"
)

// RegisterWebhookRoutes registers payment provider callbacks. They sit outside
// the establishment group: the establishment comes from the signed event.
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	if deps.StripeHandler == nil {
		return
	}
	hooks := r.Group(middleware.MaxBodySize(middleware.WebhookMaxBodySize))
	hooks.Post("/webhooks/stripe", deps.StripeHandler.HandleWebhook)
}
