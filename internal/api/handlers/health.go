package handlers

import (
	"net/http"

	"github.com/mkarlsen/tradelens/pkg/database"
	"github.com/mkarlsen/tradelens/pkg/logger"
)

// HealthHandler handles the health check endpoint
type HealthHandler struct {
	db     *database.DB
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: log,
	}
}

// Check returns service health including database connectivity
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus, err := h.db.HealthCheck(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Database health check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "degraded",
			"service":  "tradelens-api",
			"database": dbStatus,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"service":  "tradelens-api",
		"database": dbStatus,
	})
}
