package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/mkarlsen/tradelens/internal/analytics"
	"github.com/mkarlsen/tradelens/internal/report"
	"github.com/mkarlsen/tradelens/internal/store"
	"github.com/mkarlsen/tradelens/pkg/logger"
)

const userIDHeader = "X-User-ID"

// PerformanceService is the slice of the report service the handlers use
type PerformanceService interface {
	ComputePerformance(ctx context.Context, userID int64, spec analytics.FilterSpec) (*report.PerformanceResponse, error)
	ComputeGrouped(ctx context.Context, userID int64, spec analytics.FilterSpec, key analytics.GroupKey) (*report.GroupedResponse, error)
	Freshness(ctx context.Context, userID int64) (store.Probe, error)
}

// PerformanceHandler handles performance analytics API endpoints
type PerformanceHandler struct {
	service PerformanceService
	logger  *logger.Logger
}

// NewPerformanceHandler creates a new performance handler
func NewPerformanceHandler(service PerformanceService, log *logger.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		service: service,
		logger:  log,
	}
}

// GetPerformance returns the performance summary for the requesting user
// GET /api/performance?start_date=&end_date=&symbol=&side=&status=&min_pnl=&max_pnl=
func (h *PerformanceHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	spec, err := report.ParseFilterSpec(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ComputePerformance(ctx, userID, spec)
	if err != nil {
		h.respondComputeError(w, userID, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetGrouped returns per-bucket metrics for the requesting user
// GET /api/performance/grouped?group_by=day&start_date=&end_date=
func (h *PerformanceHandler) GetGrouped(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	spec, err := report.ParseFilterSpec(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := report.ParseGroupKey(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ComputeGrouped(ctx, userID, spec, key)
	if err != nil {
		h.respondComputeError(w, userID, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// respondComputeError maps pipeline errors to status codes. A data
// inconsistency is a server-side failure, not something to paper over.
func (h *PerformanceHandler) respondComputeError(w http.ResponseWriter, userID int64, err error) {
	var compErr *analytics.ComputationError
	if errors.As(err, &compErr) {
		h.logger.WithError(compErr).WithField("user_id", userID).Error("Trade data inconsistency")
		respondError(w, http.StatusInternalServerError, "Trade data is inconsistent; computation aborted")
		return
	}

	h.logger.WithError(err).WithField("user_id", userID).Error("Failed to compute performance")
	respondError(w, http.StatusInternalServerError, "Failed to compute performance")
}

// userIDFrom extracts the user id header, writing a 400 when absent or
// malformed. Authentication itself is handled upstream.
func userIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		respondError(w, http.StatusBadRequest, userIDHeader+" header is required")
		return 0, false
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, userIDHeader+" must be a positive integer")
		return 0, false
	}

	return userID, true
}
