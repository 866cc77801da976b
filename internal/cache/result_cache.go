package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mkarlsen/tradelens/pkg/logger"
)

// Probe is a cheap freshness token supplied by the trade store. A cached
// entry is fresh only while both fields match what the store reports.
type Probe struct {
	TradeCount   int
	MaxUpdatedAt time.Time
}

// Equal reports whether two probes describe the same trade collection state
func (p Probe) Equal(other Probe) bool {
	return p.TradeCount == other.TradeCount && p.MaxUpdatedAt.Equal(other.MaxUpdatedAt)
}

// Entry is one memoized computation result
type Entry struct {
	Value      interface{}
	Probe      Probe
	ComputedAt time.Time
}

// ComputeFunc produces the value for a cold or stale key. It receives a
// context detached from any single caller so a caller timeout never
// abandons the computation mid-flight.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// ResultCache memoizes metric computations keyed by (user, filter
// signature). Invalidation is correctness-driven via the freshness probe,
// never time-driven: there is no TTL. Concurrent requests for the same
// uncached key coalesce into a single in-flight computation.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	flight  singleflight.Group
	logger  *logger.Logger
}

// New creates a new ResultCache
func New(log *logger.Logger) *ResultCache {
	return &ResultCache{
		entries: make(map[string]*Entry),
		logger:  log,
	}
}

func cacheKey(userID int64, signature string) string {
	return fmt.Sprintf("%d:%s", userID, signature)
}

// GetOrCompute returns the cached entry for (userID, signature) when it is
// still fresh against the probe, and otherwise computes and stores a new
// one. At most one computation per key is in flight at a time; other
// callers await its result. A caller whose context expires stops waiting,
// but the computation runs to completion and populates the cache for the
// next caller.
func (c *ResultCache) GetOrCompute(ctx context.Context, userID int64, signature string, probe Probe, compute ComputeFunc) (*Entry, error) {
	key := cacheKey(userID, signature)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && entry.Probe.Equal(probe) {
		return entry, nil
	}

	if ok {
		c.logger.WithFields(map[string]interface{}{
			"user_id":      userID,
			"cached_count": entry.Probe.TradeCount,
			"probe_count":  probe.TradeCount,
		}).Debug("Cache entry stale, recomputing")
	}

	ch := c.flight.DoChan(key, func() (interface{}, error) {
		// Detached from the caller: cancellation must never corrupt the
		// cache with a half-finished computation.
		value, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		fresh := &Entry{
			Value:      value,
			Probe:      probe,
			ComputedAt: time.Now().UTC(),
		}

		c.mu.Lock()
		c.entries[key] = fresh
		c.mu.Unlock()

		return fresh, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops all cached entries for a user. Called after any trade
// mutation for that user.
func (c *ResultCache) Invalidate(userID int64) int {
	prefix := fmt.Sprintf("%d:", userID)

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		c.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"count":   count,
		}).Debug("Invalidated cache entries")
	}

	return count
}

// Len returns the number of cached entries
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Peek returns the cached entry for a key without any freshness check.
// Intended for tests and diagnostics.
func (c *ResultCache) Peek(userID int64, signature string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(userID, signature)]
	return entry, ok
}
