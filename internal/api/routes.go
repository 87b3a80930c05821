package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// LLM proxy boundary, kept off the versioned prefix to match the
	// original client contract.
	r.HandleFunc("/api/chat", handler.Chat).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Position routes
	api.HandleFunc("/positions", handler.GetPositions).Methods("GET")
	api.HandleFunc("/positions", handler.AddPosition).Methods("POST")
	api.HandleFunc("/positions", handler.ClearPositions).Methods("DELETE")
	api.HandleFunc("/positions/{id}", handler.RemovePosition).Methods("DELETE")

	// Valuation routes
	api.HandleFunc("/metrics", handler.GetMetrics).Methods("GET")
	api.HandleFunc("/refresh", handler.RefreshPrices).Methods("POST")
	api.HandleFunc("/cache/clear", handler.ClearPriceData).Methods("POST")

	// Import/export
	api.HandleFunc("/export", handler.Export).Methods("GET")
	api.HandleFunc("/import", handler.Import).Methods("POST")

	// Server-side advisory context
	api.HandleFunc("/advise", handler.Advise).Methods("POST")

	return r
}
