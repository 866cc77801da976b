package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mkarlsen/tradelens/internal/analytics"
	"github.com/mkarlsen/tradelens/internal/report"
	"github.com/mkarlsen/tradelens/internal/store"
	"github.com/mkarlsen/tradelens/pkg/config"
	"github.com/mkarlsen/tradelens/pkg/logger"
)

// StreamHandler pushes performance updates over a websocket. The server
// polls the freshness probe on an interval and re-sends the summary only
// when the underlying trade collection changed, so dashboards get push
// updates without hammering the summary endpoint.
type StreamHandler struct {
	service  PerformanceService
	cfg      config.StreamConfig
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(service PerformanceService, cfg config.StreamConfig, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		service: service,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: log,
	}
}

// Stream upgrades the connection and streams performance summaries
// GET /api/performance/stream?start_date=&end_date=&symbol=...
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(w, r)
	if !ok {
		return
	}

	spec, err := report.ParseFilterSpec(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: we never expect client messages, but reading is how we
	// notice the peer going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	log := h.logger.WithField("user_id", userID)
	log.Debug("Performance stream opened")
	defer log.Debug("Performance stream closed")

	// Initial snapshot, then push on every probe change.
	var lastProbe store.Probe
	if !h.push(ctx, conn, userID, spec, &lastProbe, true) {
		return
	}

	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.push(ctx, conn, userID, spec, &lastProbe, false) {
				return
			}
		}
	}
}

// push sends a fresh summary when the probe moved (or on the initial
// send). Returns false when the stream should terminate.
func (h *StreamHandler) push(ctx context.Context, conn *websocket.Conn, userID int64, spec analytics.FilterSpec, lastProbe *store.Probe, force bool) bool {
	probe, err := h.service.Freshness(ctx, userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Warn("Freshness probe failed during stream")
		return false
	}

	if !force && probe.TradeCount == lastProbe.TradeCount && probe.MaxUpdatedAt.Equal(lastProbe.MaxUpdatedAt) {
		return true
	}

	result, err := h.service.ComputePerformance(ctx, userID, spec)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Warn("Computation failed during stream")
		return false
	}

	conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	if err := conn.WriteJSON(result); err != nil {
		return false
	}

	*lastProbe = probe
	return true
}
