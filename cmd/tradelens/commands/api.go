package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/tradelens/internal/api"
	"github.com/mkarlsen/tradelens/internal/api/handlers"
	"github.com/mkarlsen/tradelens/internal/cache"
	"github.com/mkarlsen/tradelens/internal/report"
	"github.com/mkarlsen/tradelens/internal/store"
	"github.com/mkarlsen/tradelens/pkg/config"
	"github.com/mkarlsen/tradelens/pkg/database"
	"github.com/mkarlsen/tradelens/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the analytics API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                      - Health check
  GET  /api/performance             - Performance summary
  GET  /api/performance/grouped     - Grouped metrics (time series / comparison)
  GET  /api/performance/stream      - Live metrics stream (websocket)

Example:
  go run ./cmd/tradelens api
  go run ./cmd/tradelens api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Wire the analytics pipeline
	tradeStore := store.NewRepository(db.Pool)
	resultCache := cache.New(log)
	service := report.NewService(tradeStore, resultCache, log)

	// 5. Create handlers and router
	perfHandler := handlers.NewPerformanceHandler(service, log)
	streamHandler := handlers.NewStreamHandler(service, cfg.Stream, log)
	healthHandler := handlers.NewHealthHandler(db, log)

	router := api.NewRouter(cfg, perfHandler, streamHandler, healthHandler, log)

	// 6. Start server with graceful shutdown
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
