package jobs

import (
	"context"
	"fmt"

	"github.com/mkarlsen/tradelens/internal/report"
	"github.com/mkarlsen/tradelens/pkg/logger"
)

// ActiveUserSource yields the users worth precomputing for
type ActiveUserSource interface {
	ActiveUserIDs(ctx context.Context, limit int) ([]int64, error)
}

// WarmCacheJob precomputes the unfiltered performance summary for the
// most recently active users, so their first dashboard load after a
// trading session hits a warm cache.
type WarmCacheJob struct {
	service  *report.Service
	users    ActiveUserSource
	maxUsers int
	schedule string
	logger   *logger.Logger
}

// NewWarmCacheJob creates a new cache warming job
func NewWarmCacheJob(service *report.Service, users ActiveUserSource, maxUsers int, schedule string, log *logger.Logger) *WarmCacheJob {
	return &WarmCacheJob{
		service:  service,
		users:    users,
		maxUsers: maxUsers,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *WarmCacheJob) Name() string {
	return "warm_cache"
}

// Schedule returns the cron schedule expression
func (j *WarmCacheJob) Schedule() string {
	return j.schedule
}

// Run warms the cache for recently active users. A failure for one user
// does not stop the rest; the job only fails when no user succeeded.
func (j *WarmCacheJob) Run(ctx context.Context) error {
	userIDs, err := j.users.ActiveUserIDs(ctx, j.maxUsers)
	if err != nil {
		return fmt.Errorf("failed to list active users: %w", err)
	}

	if len(userIDs) == 0 {
		j.logger.Debug("No active users to warm")
		return nil
	}

	warmed := 0
	for _, userID := range userIDs {
		if err := j.service.WarmUser(ctx, userID); err != nil {
			j.logger.WithError(err).WithField("user_id", userID).Warn("Failed to warm cache for user")
			continue
		}
		warmed++
	}

	j.logger.WithFields(map[string]interface{}{
		"warmed": warmed,
		"total":  len(userIDs),
	}).Info("Cache warming completed")

	if warmed == 0 {
		return fmt.Errorf("cache warming failed for all %d users", len(userIDs))
	}

	return nil
}
