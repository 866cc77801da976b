package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkarlsen/tradelens/internal/api/handlers"
	"github.com/mkarlsen/tradelens/pkg/config"
	"github.com/mkarlsen/tradelens/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, perfHandler *handlers.PerformanceHandler, streamHandler *handlers.StreamHandler, healthHandler *handlers.HealthHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	// Health check
	r.HandleFunc("/health", healthHandler.Check).Methods("GET")

	// API
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/performance", perfHandler.GetPerformance).Methods("GET")
	api.HandleFunc("/performance/grouped", perfHandler.GetGrouped).Methods("GET")
	api.HandleFunc("/performance/stream", streamHandler.Stream).Methods("GET")

	// Apply middleware
	r.Use(requestIDMiddleware())
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(rateLimitMiddleware(cfg.RateLimit, log))

	return r
}

// notFoundHandler keeps 404s in the same JSON shape as the rest of the API
func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Not found",
	})
}
