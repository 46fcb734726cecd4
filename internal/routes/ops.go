package routes

import (
	"github.com/dukerupert/cardapio/internal/router"
)

// RegisterOpsRoutes registers health and metrics endpoints.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Handle("GET", "/healthz", deps.HealthHandler)
	if deps.MetricsHandler != nil {
		r.Handle("GET", "/metrics", deps.MetricsHandler)
	}
}
