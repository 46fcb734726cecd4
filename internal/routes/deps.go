package routes

import (
	"net/http"

	"github.com/dukerupert/cardapio/internal/handler/storefront"
	"github.com/dukerupert/cardapio/internal/handler/webhook"
	"github.com/dukerupert/cardapio/internal/middleware"
	"github.com/dukerupert/cardapio/internal/router"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	// Resolves {establishment} and rejects paused or closed ones.
	Establishment router.Middleware

	// Throttles coupon attempts; nil disables throttling.
	CouponLimiter *middleware.RateLimiter

	// Products
	ProductHandler *storefront.ProductHandler

	// Configuration sessions
	SessionHandler *storefront.SessionHandler

	// Cart and checkout
	CartHandler *storefront.CartHandler
}

// OpsDeps contains dependencies for operational endpoints
type OpsDeps struct {
	HealthHandler  http.Handler
	MetricsHandler http.Handler
}

// WebhookDeps contains dependencies for payment provider callbacks
type WebhookDeps struct {
	StripeHandler *webhook.StripeHandler
}
