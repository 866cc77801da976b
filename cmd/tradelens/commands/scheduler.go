package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/tradelens/internal/cache"
	"github.com/mkarlsen/tradelens/internal/report"
	"github.com/mkarlsen/tradelens/internal/scheduler"
	"github.com/mkarlsen/tradelens/internal/scheduler/jobs"
	"github.com/mkarlsen/tradelens/internal/store"
	"github.com/mkarlsen/tradelens/pkg/config"
	"github.com/mkarlsen/tradelens/pkg/database"
	"github.com/mkarlsen/tradelens/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the cache warming scheduler",
	Long: `Runs the background scheduler.

Jobs:
  warm_cache - precomputes performance summaries for recently
               active users on a cron schedule

Example:
  go run ./cmd/tradelens scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	if !cfg.Warmer.Enabled {
		log.Warn("Cache warmer is disabled (WARMER_ENABLED=false), nothing to schedule")
		return nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	tradeStore := store.NewRepository(db.Pool)
	resultCache := cache.New(log)
	service := report.NewService(tradeStore, resultCache, log)

	sched := scheduler.New(log)

	warmJob := jobs.NewWarmCacheJob(service, tradeStore, cfg.Warmer.MaxUsers, cfg.Warmer.Schedule, log)
	if err := sched.AddJob(warmJob); err != nil {
		return fmt.Errorf("add warm cache job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	log.Info("Scheduler running, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return nil
}
