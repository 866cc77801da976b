package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_MixedWinsAndLosses(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 100, day(1), day(2)),
		closedTrade(2, "MSFT", SideShort, -50, day(3), day(4)),
		closedTrade(3, "AAPL", SideLong, 75, day(5), day(6)),
	})

	res := Compute(ts)

	assert.Equal(t, 3, res.TotalTrades)
	assert.Equal(t, 3, res.ClosedTrades)
	assert.Equal(t, 0, res.OpenTrades)
	assert.Equal(t, 2, res.WinningTrades)
	assert.Equal(t, 1, res.LosingTrades)
	assert.Equal(t, 0, res.BreakEvenTrades)
	assert.InDelta(t, 125.0, res.TotalPnL, 1e-9)

	require.NotNil(t, res.WinRate)
	assert.InDelta(t, 2.0/3.0, *res.WinRate, 1e-9)

	require.NotNil(t, res.ProfitFactor)
	assert.InDelta(t, 3.5, *res.ProfitFactor, 1e-9) // 175 gross win / 50 gross loss
	assert.False(t, res.NoLosses)

	require.NotNil(t, res.AvgWin)
	assert.InDelta(t, 87.5, *res.AvgWin, 1e-9)
	require.NotNil(t, res.AvgLoss)
	assert.InDelta(t, -50.0, *res.AvgLoss, 1e-9)

	require.NotNil(t, res.Expectancy)
	assert.InDelta(t, (2.0/3.0)*87.5+(1.0/3.0)*(-50.0), *res.Expectancy, 1e-9)

	require.NotNil(t, res.LargestWin)
	assert.InDelta(t, 100.0, *res.LargestWin, 1e-9)
	require.NotNil(t, res.LargestLoss)
	assert.InDelta(t, -50.0, *res.LargestLoss, 1e-9)

	assert.Equal(t, 1, res.CurrentStreak)
}

func TestCompute_AllLosses(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, -10, day(1), day(2)),
		closedTrade(2, "AAPL", SideLong, -20, day(3), day(4)),
	})

	res := Compute(ts)

	require.NotNil(t, res.WinRate)
	assert.Equal(t, 0.0, *res.WinRate)
	assert.Nil(t, res.ProfitFactor)
	assert.False(t, res.NoLosses)
	assert.Nil(t, res.AvgWin)
	assert.Nil(t, res.LargestWin)
	require.NotNil(t, res.AvgLoss)
	assert.InDelta(t, -15.0, *res.AvgLoss, 1e-9)
	assert.Equal(t, -2, res.CurrentStreak)
}

func TestCompute_AllWinsSetsNoLosses(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 10, day(1), day(2)),
		closedTrade(2, "AAPL", SideLong, 20, day(3), day(4)),
	})

	res := Compute(ts)

	assert.Nil(t, res.ProfitFactor)
	assert.True(t, res.NoLosses)
	assert.Equal(t, 2, res.CurrentStreak)
	assert.Nil(t, res.AvgLoss)
}

func TestCompute_EmptySet(t *testing.T) {
	res := Compute(NewTradeSet(nil))

	assert.Equal(t, 0, res.TotalTrades)
	assert.Equal(t, 0, res.ClosedTrades)
	assert.Equal(t, 0.0, res.TotalPnL)
	assert.Nil(t, res.WinRate)
	assert.Nil(t, res.ProfitFactor)
	assert.False(t, res.NoLosses)
	assert.Nil(t, res.Expectancy)
	assert.Nil(t, res.SharpeRatio)
	assert.Equal(t, 0, res.CurrentStreak)
	assert.Equal(t, 0.0, res.MaxDrawdownPct)
	require.NotNil(t, res.EquityCurve)
	assert.Empty(t, res.EquityCurve)
}

func TestCompute_OpenTradesExcludedFromRatios(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 100, day(1), day(2)),
		openTrade(2, "AAPL", SideLong, day(3)),
		openTrade(3, "MSFT", SideShort, day(4)),
	})

	res := Compute(ts)

	assert.Equal(t, 3, res.TotalTrades)
	assert.Equal(t, 1, res.ClosedTrades)
	assert.Equal(t, 2, res.OpenTrades)
	require.NotNil(t, res.WinRate)
	assert.Equal(t, 1.0, *res.WinRate)
	assert.Len(t, res.EquityCurve, 1)
}

func TestCurrentStreak_ZeroPnLBreaks(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 10, day(1), day(2)),
		closedTrade(2, "AAPL", SideLong, 20, day(3), day(4)),
		closedTrade(3, "AAPL", SideLong, 0, day(5), day(6)),
	})
	assert.Equal(t, 0, Compute(ts).CurrentStreak)

	ts = NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, -5, day(1), day(2)),
		closedTrade(2, "AAPL", SideLong, 0, day(3), day(4)),
		closedTrade(3, "AAPL", SideLong, 10, day(5), day(6)),
		closedTrade(4, "AAPL", SideLong, 20, day(7), day(8)),
	})
	assert.Equal(t, 2, Compute(ts).CurrentStreak)
}

func TestEquityCurve_OrderedByExitTime(t *testing.T) {
	// Insertion order deliberately scrambled relative to exit order.
	ts := NewTradeSet([]Trade{
		closedTrade(3, "AAPL", SideLong, 75, day(5), day(6)),
		closedTrade(1, "AAPL", SideLong, 100, day(1), day(2)),
		closedTrade(2, "MSFT", SideShort, -50, day(3), day(4)),
	})

	res := Compute(ts)

	require.Len(t, res.EquityCurve, 3)
	assert.InDelta(t, 100.0, res.EquityCurve[0].CumulativePnL, 1e-9)
	assert.InDelta(t, 50.0, res.EquityCurve[1].CumulativePnL, 1e-9)
	assert.InDelta(t, 125.0, res.EquityCurve[2].CumulativePnL, 1e-9)

	for i := 1; i < len(res.EquityCurve); i++ {
		assert.False(t, res.EquityCurve[i].Timestamp.Before(res.EquityCurve[i-1].Timestamp))
	}

	// Final point equals the sum of closed pnl.
	assert.InDelta(t, res.TotalPnL, res.EquityCurve[len(res.EquityCurve)-1].CumulativePnL, 1e-9)
}

func TestEquityCurve_TiesBrokenByID(t *testing.T) {
	exit := day(2)
	ts := NewTradeSet([]Trade{
		closedTrade(9, "AAPL", SideLong, 5, day(1), exit),
		closedTrade(2, "AAPL", SideLong, 10, day(1), exit),
	})

	res := Compute(ts)

	require.Len(t, res.EquityCurve, 2)
	assert.InDelta(t, 10.0, res.EquityCurve[0].CumulativePnL, 1e-9)
	assert.InDelta(t, 15.0, res.EquityCurve[1].CumulativePnL, 1e-9)
}

func TestMaxDrawdown_PeakToTrough(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 100, day(1), day(2)),
		closedTrade(2, "AAPL", SideLong, -50, day(3), day(4)),
		closedTrade(3, "AAPL", SideLong, 75, day(5), day(6)),
	})

	res := Compute(ts)

	// Equity 100 -> 50 -> 125, worst decline is 50% off the 100 peak.
	assert.InDelta(t, -50.0, res.MaxDrawdownPct, 1e-9)
}

func TestMaxDrawdown_EquityNeverAboveZero(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, -10, day(1), day(2)),
		closedTrade(2, "AAPL", SideLong, -20, day(3), day(4)),
	})

	res := Compute(ts)

	// Peak -10, trough -30, measured against the peak magnitude.
	assert.InDelta(t, -200.0, res.MaxDrawdownPct, 1e-9)
}

func TestMaxDrawdown_MonotoneRiseIsZero(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 10, day(1), day(2)),
		closedTrade(2, "AAPL", SideLong, 20, day(3), day(4)),
	})

	assert.Equal(t, 0.0, Compute(ts).MaxDrawdownPct)
}

func TestSharpe_NilWithTooFewReturns(t *testing.T) {
	// All exits on the same day collapse to a single daily observation.
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 10, day(1), day(2)),
		closedTrade(2, "AAPL", SideLong, 20, day(1), day(2).Add(3*time.Hour)),
	})
	assert.Nil(t, Compute(ts).SharpeRatio)
}

func TestSharpe_NilWithZeroVariance(t *testing.T) {
	// Daily equity 100, 200, 400: both returns are exactly +100%.
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 100, day(1), day(2)),
		closedTrade(2, "AAPL", SideLong, 100, day(3), day(4)),
		closedTrade(3, "AAPL", SideLong, 200, day(5), day(6)),
	})
	assert.Nil(t, Compute(ts).SharpeRatio)
}

func TestSharpe_DefinedWithVaryingReturns(t *testing.T) {
	ts := NewTradeSet([]Trade{
		closedTrade(1, "AAPL", SideLong, 100, day(1), day(2)),
		closedTrade(2, "AAPL", SideLong, 50, day(3), day(4)),
		closedTrade(3, "AAPL", SideLong, -30, day(5), day(6)),
	})

	res := Compute(ts)

	require.NotNil(t, res.SharpeRatio)
	assert.False(t, *res.SharpeRatio == 0)
}

func TestCompute_Deterministic(t *testing.T) {
	ts := sampleSet()

	first := Compute(ts)
	second := Compute(ts)

	assert.Equal(t, first, second)
}
