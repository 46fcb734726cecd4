package routes

import (
	"github.com/dukerupert/cardapio/internal/middleware"
	"github.com/dukerupert/cardapio/internal/router"
)

// RegisterStorefrontRoutes registers the customer-facing JSON API of every
// establishment under /e/{establishment}.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	est := r.Group(deps.Establishment, middleware.MaxBodySize())

	// Product detail
	est.Get("/e/{establishment}/products/{product}", deps.ProductHandler.Detail)

	// Configuration sessions
	est.Post("/e/{establishment}/sessions", deps.SessionHandler.Open)
	est.Get("/e/{establishment}/sessions/{session}", deps.SessionHandler.Get)
	est.Delete("/e/{establishment}/sessions/{session}", deps.SessionHandler.Close)
	est.Post("/e/{establishment}/sessions/{session}/variation", deps.SessionHandler.SelectVariation)
	est.Post("/e/{establishment}/sessions/{session}/additives", deps.SessionHandler.AdjustAdditive)
	est.Post("/e/{establishment}/sessions/{session}/split", deps.SessionHandler.SetSplit)
	est.Post("/e/{establishment}/sessions/{session}/flavors", deps.SessionHandler.SetFlavor)
	est.Post("/e/{establishment}/sessions/{session}/note", deps.SessionHandler.SetNote)
	est.Post("/e/{establishment}/sessions/{session}/quantity", deps.SessionHandler.SetQuantity)
	est.Delete("/e/{establishment}/sessions/{session}/coupon", deps.SessionHandler.RemoveCoupon)
	est.Post("/e/{establishment}/sessions/{session}/cart", deps.SessionHandler.AddToCart)

	// Coupon codes can be guessed, so applying one is rate limited
	var couponLimit []router.Middleware
	if deps.CouponLimiter != nil {
		couponLimit = append(couponLimit, deps.CouponLimiter.Middleware)
	}
	est.Post("/e/{establishment}/sessions/{session}/coupon", deps.SessionHandler.ApplyCoupon, couponLimit...)

	// Cart
	est.Get("/e/{establishment}/cart", deps.CartHandler.View)
	est.Post("/e/{establishment}/cart/mode", deps.CartHandler.SetMode)
	est.Post("/e/{establishment}/cart/items/{item}/increment", deps.CartHandler.Increment)
	est.Post("/e/{establishment}/cart/items/{item}/decrement", deps.CartHandler.Decrement)
	est.Delete("/e/{establishment}/cart/items/{item}", deps.CartHandler.Remove)
	est.Post("/e/{establishment}/cart/checkout", deps.CartHandler.Checkout)
}
