package report

import (
	"context"
	"fmt"

	"github.com/mkarlsen/tradelens/internal/analytics"
	"github.com/mkarlsen/tradelens/internal/cache"
	"github.com/mkarlsen/tradelens/internal/store"
	"github.com/mkarlsen/tradelens/pkg/logger"
)

// Store is the trade-storage collaborator the service reads from
type Store interface {
	GetTrades(ctx context.Context, userID int64) ([]analytics.RawTrade, error)
	GetFreshnessProbe(ctx context.Context, userID int64) (store.Probe, error)
}

// BucketMetrics is one grouped bucket with its computed metric set
type BucketMetrics struct {
	Label   string
	Metrics analytics.MetricsResult
}

// Service orchestrates the analytics pipeline: store fetch, normalize,
// filter, group, compute, cache, assemble. Computation itself is
// stateless; the result cache is the only shared mutable state.
type Service struct {
	store  Store
	cache  *cache.ResultCache
	logger *logger.Logger
}

// NewService creates a new report service
func NewService(st Store, resultCache *cache.ResultCache, log *logger.Logger) *Service {
	return &Service{
		store:  st,
		cache:  resultCache,
		logger: log,
	}
}

// ComputePerformance returns the performance summary for a user under the
// given filter. Results are memoized by filter signature and recomputed
// transparently when the freshness probe disagrees with the cached entry.
func (s *Service) ComputePerformance(ctx context.Context, userID int64, spec analytics.FilterSpec) (*PerformanceResponse, error) {
	probe, err := s.store.GetFreshnessProbe(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to probe trade freshness: %w", err)
	}

	entry, err := s.cache.GetOrCompute(ctx, userID, spec.Signature(), toCacheProbe(probe),
		func(ctx context.Context) (interface{}, error) {
			filtered, err := s.loadFiltered(ctx, userID, spec)
			if err != nil {
				return nil, err
			}
			return analytics.Compute(filtered), nil
		})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Performance computation failed")
		return nil, err
	}

	return assemblePerformance(entry.Value.(analytics.MetricsResult), entry.ComputedAt), nil
}

// ComputeGrouped returns per-bucket metrics for a user under the given
// filter and group key. Grouped results are cached under a signature that
// includes the group key, so they invalidate together with the summary.
func (s *Service) ComputeGrouped(ctx context.Context, userID int64, spec analytics.FilterSpec, key analytics.GroupKey) (*GroupedResponse, error) {
	probe, err := s.store.GetFreshnessProbe(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to probe trade freshness: %w", err)
	}

	signature := spec.Signature() + ":group=" + string(key)

	entry, err := s.cache.GetOrCompute(ctx, userID, signature, toCacheProbe(probe),
		func(ctx context.Context) (interface{}, error) {
			filtered, err := s.loadFiltered(ctx, userID, spec)
			if err != nil {
				return nil, err
			}

			buckets := analytics.GroupBy(filtered, key)
			result := make([]BucketMetrics, 0, len(buckets))
			for _, b := range buckets {
				result = append(result, BucketMetrics{
					Label:   b.Label,
					Metrics: analytics.Compute(b.Trades),
				})
			}
			return result, nil
		})
	if err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"user_id":  userID,
			"group_by": key,
		}).Error("Grouped computation failed")
		return nil, err
	}

	return assembleGrouped(key, entry.Value.([]BucketMetrics), entry.ComputedAt), nil
}

// InvalidateUser drops all cached results for a user. The CRUD layer
// calls this after any trade insert, update, or delete.
func (s *Service) InvalidateUser(userID int64) int {
	return s.cache.Invalidate(userID)
}

// WarmUser precomputes the unfiltered performance summary so the first
// dashboard load hits a warm cache.
func (s *Service) WarmUser(ctx context.Context, userID int64) error {
	_, err := s.ComputePerformance(ctx, userID, analytics.FilterSpec{})
	return err
}

// Freshness exposes the store probe, used by the live metrics stream to
// detect trade mutations cheaply.
func (s *Service) Freshness(ctx context.Context, userID int64) (store.Probe, error) {
	return s.store.GetFreshnessProbe(ctx, userID)
}

// loadFiltered runs the front of the pipeline: fetch, normalize, filter
func (s *Service) loadFiltered(ctx context.Context, userID int64, spec analytics.FilterSpec) (analytics.TradeSet, error) {
	rows, err := s.store.GetTrades(ctx, userID)
	if err != nil {
		return analytics.TradeSet{}, fmt.Errorf("failed to load trades: %w", err)
	}

	normalized, err := analytics.Normalize(rows)
	if err != nil {
		return analytics.TradeSet{}, err
	}

	return analytics.Filter(normalized, spec), nil
}

func toCacheProbe(p store.Probe) cache.Probe {
	return cache.Probe{
		TradeCount:   p.TradeCount,
		MaxUpdatedAt: p.MaxUpdatedAt,
	}
}
