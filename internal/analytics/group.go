package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// GroupKey selects the bucketing dimension for grouped metrics
type GroupKey string

const (
	GroupByDay      GroupKey = "day"
	GroupByWeek     GroupKey = "week"
	GroupByMonth    GroupKey = "month"
	GroupBySymbol   GroupKey = "symbol"
	GroupByStrategy GroupKey = "strategy"
)

// ParseGroupKey converts a raw group key string to a GroupKey
func ParseGroupKey(s string) (GroupKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day":
		return GroupByDay, nil
	case "week":
		return GroupByWeek, nil
	case "month":
		return GroupByMonth, nil
	case "symbol":
		return GroupBySymbol, nil
	case "strategy":
		return GroupByStrategy, nil
	default:
		return "", NewInvalidFilterError("group_by", "must be one of: day, week, month, symbol, strategy")
	}
}

// IsTimeSeries reports whether the key produces a continuous time series
func (k GroupKey) IsTimeSeries() bool {
	return k == GroupByDay || k == GroupByWeek || k == GroupByMonth
}

// Bucket is one labeled group of trades
type Bucket struct {
	Label  string
	Trades TradeSet
}

// GroupBy buckets trades by the given key and returns the buckets in
// label order. Time buckets are keyed by exit_time for closed trades and
// entry_time for open ones, UTC-aligned. Continuous time keys include
// empty buckets spanning the set's range so charts show gaps instead of
// skipping dates; symbol/strategy keys only emit non-empty buckets.
func GroupBy(ts TradeSet, key GroupKey) []Bucket {
	if ts.Len() == 0 {
		return []Bucket{}
	}

	if key.IsTimeSeries() {
		return groupByTime(ts, key)
	}
	return groupByLabel(ts, key)
}

func groupByLabel(ts TradeSet, key GroupKey) []Bucket {
	groups := make(map[string][]Trade)
	order := make([]string, 0)

	for _, t := range ts.trades {
		var label string
		switch key {
		case GroupBySymbol:
			label = t.Symbol
		case GroupByStrategy:
			label = t.Strategy
			if label == "" {
				label = "unlabeled"
			}
		}

		if _, seen := groups[label]; !seen {
			order = append(order, label)
		}
		groups[label] = append(groups[label], t)
	}

	sort.Strings(order)

	buckets := make([]Bucket, 0, len(order))
	for _, label := range order {
		buckets = append(buckets, Bucket{
			Label:  label,
			Trades: TradeSet{trades: groups[label]},
		})
	}

	return buckets
}

func groupByTime(ts TradeSet, key GroupKey) []Bucket {
	groups := make(map[string][]Trade)

	var minBucket, maxBucket time.Time
	for i, t := range ts.trades {
		bucket := truncateToBucket(bucketTime(t), key)
		label := bucketLabel(bucket, key)
		groups[label] = append(groups[label], t)

		if i == 0 || bucket.Before(minBucket) {
			minBucket = bucket
		}
		if i == 0 || bucket.After(maxBucket) {
			maxBucket = bucket
		}
	}

	// Walk the full range so gaps appear as empty buckets.
	buckets := make([]Bucket, 0, len(groups))
	for cursor := minBucket; !cursor.After(maxBucket); cursor = nextBucket(cursor, key) {
		label := bucketLabel(cursor, key)
		buckets = append(buckets, Bucket{
			Label:  label,
			Trades: TradeSet{trades: groups[label]},
		})
	}

	return buckets
}

// bucketTime returns the timestamp a trade is bucketed by: exit_time for
// closed trades, entry_time otherwise.
func bucketTime(t Trade) time.Time {
	if t.Closed() {
		return t.ExitTime.UTC()
	}
	return t.EntryTime.UTC()
}

func truncateToBucket(ts time.Time, key GroupKey) time.Time {
	ts = ts.UTC()
	switch key {
	case GroupByDay:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	case GroupByWeek:
		// ISO weeks start Monday
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GroupByMonth:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return ts
}

func nextBucket(ts time.Time, key GroupKey) time.Time {
	switch key {
	case GroupByDay:
		return ts.AddDate(0, 0, 1)
	case GroupByWeek:
		return ts.AddDate(0, 0, 7)
	case GroupByMonth:
		return ts.AddDate(0, 1, 0)
	}
	return ts
}

func bucketLabel(bucket time.Time, key GroupKey) string {
	switch key {
	case GroupByDay:
		return bucket.Format("2006-01-02")
	case GroupByWeek:
		year, week := bucket.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GroupByMonth:
		return bucket.Format("2006-01")
	}
	return bucket.Format(time.RFC3339)
}
