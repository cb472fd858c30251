package handler

import (
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/health"
)

// NewRouter registers the search API, analytics stats and health probes.
func NewRouter(h *Handler, analyticsStats http.HandlerFunc, checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	if analyticsStats != nil {
		mux.HandleFunc("GET /api/v1/analytics/stats", analyticsStats)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	return mux
}
