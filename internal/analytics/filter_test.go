package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedTrade(id int64, symbol string, side Side, pnl float64, entryTime, exitTime time.Time) Trade {
	exitPrice := 0.0
	return Trade{
		ID:         id,
		Symbol:     symbol,
		Side:       side,
		Quantity:   1,
		EntryPrice: 0,
		ExitPrice:  &exitPrice,
		EntryTime:  entryTime,
		ExitTime:   &exitTime,
		PnL:        pnl,
	}
}

func openTrade(id int64, symbol string, side Side, entryTime time.Time) Trade {
	return Trade{
		ID:         id,
		Symbol:     symbol,
		Side:       side,
		Quantity:   1,
		EntryPrice: 0,
		EntryTime:  entryTime,
	}
}

func day(d int) time.Time {
	return time.Date(2026, 4, d, 12, 0, 0, 0, time.UTC)
}

func sampleSet() TradeSet {
	return NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 100, day(1), day(2)),
		closedTrade(2, "MSFT", SideShort, -50, day(3), day(4)),
		openTrade(3, "AAPL", SideLong, day(5)),
		closedTrade(4, "AAPL", SideLong, 75, day(6), day(7)),
	})
}

func TestFilter_EmptySpecIsIdentity(t *testing.T) {
	ts := sampleSet()

	filtered := Filter(ts, FilterSpec{})

	assert.Equal(t, ts.Trades(), filtered.Trades())
}

func TestFilter_PreservesInsertionOrderAndSource(t *testing.T) {
	ts := sampleSet()
	before := ts.Trades()

	filtered := Filter(ts, FilterSpec{Symbol: "aapl"})

	ids := make([]int64, 0)
	for _, tr := range filtered.Trades() {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []int64{1, 3, 4}, ids)

	// Source untouched
	assert.Equal(t, before, ts.Trades())
}

func TestFilter_DateRangeInclusive(t *testing.T) {
	ts := sampleSet()

	start := time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 5, 23, 59, 59, 0, time.UTC)

	filtered := Filter(ts, FilterSpec{StartDate: &start, EndDate: &end})

	require.Equal(t, 2, filtered.Len())
	assert.Equal(t, int64(2), filtered.Trades()[0].ID)
	assert.Equal(t, int64(3), filtered.Trades()[1].ID)
}

func TestFilter_EndBeforeStartYieldsEmptySet(t *testing.T) {
	ts := sampleSet()

	start := day(5)
	end := day(1)

	filtered := Filter(ts, FilterSpec{StartDate: &start, EndDate: &end})

	assert.Equal(t, 0, filtered.Len())
}

func TestFilter_SideAndStatus(t *testing.T) {
	ts := sampleSet()

	shorts := Filter(ts, FilterSpec{Side: SideShort})
	require.Equal(t, 1, shorts.Len())
	assert.Equal(t, int64(2), shorts.Trades()[0].ID)

	open := Filter(ts, FilterSpec{Status: StatusOpen})
	require.Equal(t, 1, open.Len())
	assert.Equal(t, int64(3), open.Trades()[0].ID)

	closed := Filter(ts, FilterSpec{Status: StatusClosed})
	assert.Equal(t, 3, closed.Len())
}

func TestFilter_PnLBoundsExcludeOpenTrades(t *testing.T) {
	ts := sampleSet()

	min := -1000.0
	filtered := Filter(ts, FilterSpec{MinPnL: &min})

	// Open trade 3 has no pnl, so a bound excludes it even though the
	// bound itself is permissive.
	ids := make([]int64, 0)
	for _, tr := range filtered.Trades() {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []int64{1, 2, 4}, ids)

	max := 0.0
	filtered = Filter(ts, FilterSpec{MaxPnL: &max})
	require.Equal(t, 1, filtered.Len())
	assert.Equal(t, int64(2), filtered.Trades()[0].ID)
}

func TestFilterSpec_SignatureStable(t *testing.T) {
	start := day(1)
	min := 10.5

	a := FilterSpec{StartDate: &start, Symbol: "aapl", MinPnL: &min}
	b := FilterSpec{StartDate: &start, Symbol: "AAPL", MinPnL: &min}

	assert.Equal(t, a.Signature(), b.Signature(), "symbol case must not change the signature")
	assert.Len(t, a.Signature(), 64)

	c := FilterSpec{StartDate: &start, Symbol: "AAPL"}
	assert.NotEqual(t, a.Signature(), c.Signature())

	assert.NotEqual(t, FilterSpec{}.Signature(), c.Signature())
}
