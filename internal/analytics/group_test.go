package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupBy_EmptySet(t *testing.T) {
	buckets := GroupBy(NewTradeSet(nil), GroupByDay)
	assert.Empty(t, buckets)
}

func TestGroupBy_DayFillsGaps(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 10, day(1), day(1)),
		closedTrade(2, "AAPL", SideLong, 20, day(1), day(3)),
	})

	buckets := GroupBy(ts, GroupByDay)

	require.Len(t, buckets, 3)
	assert.Equal(t, "2026-04-01", buckets[0].Label)
	assert.Equal(t, "2026-04-02", buckets[1].Label)
	assert.Equal(t, "2026-04-03", buckets[2].Label)

	assert.Equal(t, 1, buckets[0].Trades.Len())
	assert.Equal(t, 0, buckets[1].Trades.Len(), "gap day must appear as an empty bucket")
	assert.Equal(t, 1, buckets[2].Trades.Len())
}

func TestGroupBy_TimeBucketUsesExitForClosedEntryForOpen(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 10, day(1), day(4)), // buckets on exit day 4
		openTrade(2, "AAPL", SideLong, day(4)),               // buckets on entry day 4
	})

	buckets := GroupBy(ts, GroupByDay)

	require.Len(t, buckets, 1)
	assert.Equal(t, "2026-04-04", buckets[0].Label)
	assert.Equal(t, 2, buckets[0].Trades.Len())
}

func TestGroupBy_WeekAlignsToMonday(t *testing.T) {
	// 2026-04-01 is a Wednesday, 2026-04-06 the following Monday.
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 10, day(1), day(1)),
		closedTrade(2, "AAPL", SideLong, 20, day(6), day(6)),
	})

	buckets := GroupBy(ts, GroupByWeek)

	require.Len(t, buckets, 2)
	assert.Equal(t, "2026-W14", buckets[0].Label)
	assert.Equal(t, "2026-W15", buckets[1].Label)
}

func TestGroupBy_MonthSpansRange(t *testing.T) {
	jan := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 10, jan, jan),
		closedTrade(2, "AAPL", SideLong, 20, mar, mar),
	})

	buckets := GroupBy(ts, GroupByMonth)

	require.Len(t, buckets, 3)
	assert.Equal(t, "2026-01", buckets[0].Label)
	assert.Equal(t, "2026-02", buckets[1].Label)
	assert.Equal(t, "2026-03", buckets[2].Label)
	assert.Equal(t, 0, buckets[1].Trades.Len())
}

func TestGroupBy_SymbolOmitsEmptyBucketsAndSorts(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "MSFT", SideLong, 10, day(1), day(1)),
		closedTrade(2, "AAPL", SideLong, 20, day(2), day(2)),
		closedTrade(3, "MSFT", SideLong, 30, day(3), day(3)),
	})

	buckets := GroupBy(ts, GroupBySymbol)

	require.Len(t, buckets, 2)
	assert.Equal(t, "AAPL", buckets[0].Label)
	assert.Equal(t, "MSFT", buckets[1].Label)
	assert.Equal(t, 2, buckets[1].Trades.Len())
}

func TestGroupBy_StrategyDefaultsUnlabeled(t *testing.T) {
	withStrategy := closedTrade(1, "AAPL", SideLong, 10, day(1), day(1))
	withStrategy.Strategy = "breakout"

	ts := NewTradeSet([]Trade{
		withStrategy,
		closedTrade(2, "AAPL", SideLong, 20, day(2), day(2)),
	})

	buckets := GroupBy(ts, GroupByStrategy)

	require.Len(t, buckets, 2)
	assert.Equal(t, "breakout", buckets[0].Label)
	assert.Equal(t, "unlabeled", buckets[1].Label)
}

func TestParseGroupKey(t *testing.T) {
	key, err := ParseGroupKey("Week")
	require.NoError(t, err)
	assert.Equal(t, GroupByWeek, key)
	assert.True(t, key.IsTimeSeries())

	key, err = ParseGroupKey("strategy")
	require.NoError(t, err)
	assert.False(t, key.IsTimeSeries())

	_, err = ParseGroupKey("hour")
	require.Error(t, err)

	var filterErr *InvalidFilterError
	assert.ErrorAs(t, err, &filterErr)
}
