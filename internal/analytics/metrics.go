package analytics

import (
	"math"
	"sort"
	"time"
)

// periodsPerYear is the annualization factor for the Sharpe ratio.
// Fixed at 252 trading days regardless of calendar gaps; this is a
// documented policy, not auto-detected.
const periodsPerYear = 252

// EquityPoint is one point of the cumulative realized pnl curve
type EquityPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	CumulativePnL float64   `json:"cumulative_pnl"`
}

// MetricsResult is the full metric set computed from one TradeSet.
// Ratio fields are nil when undefined (e.g. win rate with no closed
// trades) — nil is a valid value, distinct from zero, and is preserved
// all the way to the API response.
type MetricsResult struct {
	TotalTrades     int
	OpenTrades      int
	ClosedTrades    int
	WinningTrades   int
	LosingTrades    int
	BreakEvenTrades int

	TotalPnL float64

	WinRate      *float64
	ProfitFactor *float64
	NoLosses     bool // profit factor sentinel: no losing trades, ratio is infinite
	Expectancy   *float64
	AvgWin       *float64
	AvgLoss      *float64 // negative when set
	LargestWin   *float64
	LargestLoss  *float64 // negative when set

	// CurrentStreak is the run ending at the most recent closed trade:
	// positive for consecutive wins, negative for consecutive losses.
	CurrentStreak int

	// MaxDrawdownPct is the most negative peak-to-trough decline of the
	// equity curve, as a percentage (always <= 0).
	MaxDrawdownPct float64

	SharpeRatio *float64

	EquityCurve []EquityPoint
}

// Compute derives the full metric set from a TradeSet. It is pure and
// deterministic: the same set always yields a bit-for-bit identical
// result. Only closed trades contribute to win/loss/ratio metrics; open
// trades count toward TotalTrades and are reported separately.
func Compute(ts TradeSet) MetricsResult {
	res := MetricsResult{
		TotalTrades: ts.Len(),
		EquityCurve: []EquityPoint{},
	}

	closed := closedByExitTime(ts)
	res.ClosedTrades = len(closed)
	res.OpenTrades = res.TotalTrades - res.ClosedTrades

	var grossWin, grossLoss float64
	var largestWin, largestLoss float64

	for _, t := range closed {
		switch {
		case t.PnL > 0:
			res.WinningTrades++
			grossWin += t.PnL
			if t.PnL > largestWin {
				largestWin = t.PnL
			}
		case t.PnL < 0:
			res.LosingTrades++
			grossLoss += -t.PnL
			if t.PnL < largestLoss {
				largestLoss = t.PnL
			}
		default:
			res.BreakEvenTrades++
		}
		res.TotalPnL += t.PnL
	}

	if res.ClosedTrades > 0 {
		winRate := float64(res.WinningTrades) / float64(res.ClosedTrades)
		res.WinRate = fptr(winRate)

		// Expectancy treats an undefined avg win/loss as zero
		// contribution rather than poisoning the whole metric.
		avgWin, avgLoss := 0.0, 0.0
		if res.WinningTrades > 0 {
			avgWin = grossWin / float64(res.WinningTrades)
			res.AvgWin = fptr(avgWin)
			res.LargestWin = fptr(largestWin)
		}
		if res.LosingTrades > 0 {
			avgLoss = -grossLoss / float64(res.LosingTrades)
			res.AvgLoss = fptr(avgLoss)
			res.LargestLoss = fptr(largestLoss)
		}
		res.Expectancy = fptr(winRate*avgWin + (1-winRate)*avgLoss)

		res.NoLosses = res.LosingTrades == 0

		// The ratio itself is only finite when both sides exist: with no
		// losses it is infinite (NoLosses flag carries that), with no
		// wins the numerator side is undefined. Either way nil, never a
		// division error.
		if grossWin > 0 && grossLoss > 0 {
			res.ProfitFactor = fptr(grossWin / grossLoss)
		}
	}

	res.CurrentStreak = currentStreak(closed)
	res.EquityCurve = equityCurve(closed)
	res.MaxDrawdownPct = maxDrawdownPct(res.EquityCurve)
	res.SharpeRatio = sharpeRatio(res.EquityCurve)

	return res
}

// closedByExitTime returns the closed trades ordered chronologically by
// exit_time, ties broken by trade ID for determinism.
func closedByExitTime(ts TradeSet) []Trade {
	closed := make([]Trade, 0, len(ts.trades))
	for _, t := range ts.trades {
		if t.Closed() {
			closed = append(closed, t)
		}
	}

	sort.Slice(closed, func(i, j int) bool {
		if closed[i].ExitTime.Equal(*closed[j].ExitTime) {
			return closed[i].ID < closed[j].ID
		}
		return closed[i].ExitTime.Before(*closed[j].ExitTime)
	})

	return closed
}

// currentStreak walks back from the most recent closed trade counting
// consecutive wins or losses. A zero-pnl trade breaks any streak.
func currentStreak(closed []Trade) int {
	if len(closed) == 0 {
		return 0
	}

	last := closed[len(closed)-1].PnL
	if last == 0 {
		return 0
	}

	streak := 0
	for i := len(closed) - 1; i >= 0; i-- {
		pnl := closed[i].PnL
		if pnl == 0 || (pnl > 0) != (last > 0) {
			break
		}
		streak++
	}

	if last < 0 {
		return -streak
	}
	return streak
}

// equityCurve is the cumulative sum of pnl over closed trades in exit
// order.
func equityCurve(closed []Trade) []EquityPoint {
	curve := make([]EquityPoint, 0, len(closed))

	var cum float64
	for _, t := range closed {
		cum += t.PnL
		curve = append(curve, EquityPoint{
			Timestamp:     t.ExitTime.UTC(),
			CumulativePnL: cum,
		})
	}

	return curve
}

// maxDrawdownPct walks the equity curve tracking the running peak. The
// drawdown base is the peak equity when positive, otherwise the absolute
// peak magnitude so the division is never by zero. When the peak itself
// is zero the current equity magnitude serves as base, which yields the
// full -100% for a drop straight below a flat start.
func maxDrawdownPct(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].CumulativePnL
	maxDD := 0.0

	for _, p := range curve {
		eq := p.CumulativePnL
		if eq > peak {
			peak = eq
		}

		base := peak
		if base <= 0 {
			base = math.Abs(peak)
		}
		if base == 0 {
			base = math.Abs(eq)
		}
		if base == 0 {
			continue
		}

		dd := (eq - peak) / base
		if dd < maxDD {
			maxDD = dd
		}
	}

	return maxDD * 100
}

// sharpeRatio computes the annualized Sharpe ratio over daily returns
// derived from the equity curve resampled to UTC calendar days. It
// requires at least two return observations with non-zero variance;
// otherwise nil.
func sharpeRatio(curve []EquityPoint) *float64 {
	daily := resampleDaily(curve)
	if len(daily) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(daily)-1)
	for i := 1; i < len(daily); i++ {
		base := math.Abs(daily[i-1])
		if base == 0 {
			continue
		}
		returns = append(returns, (daily[i]-daily[i-1])/base)
	}

	if len(returns) < 2 {
		return nil
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns) - 1)

	if variance == 0 {
		return nil
	}

	return fptr(mean / math.Sqrt(variance) * math.Sqrt(periodsPerYear))
}

// resampleDaily reduces the equity curve to the closing equity of each
// UTC calendar day, in order.
func resampleDaily(curve []EquityPoint) []float64 {
	daily := make([]float64, 0, len(curve))
	var lastDay time.Time

	for _, p := range curve {
		day := p.Timestamp.UTC().Truncate(24 * time.Hour)
		if len(daily) > 0 && day.Equal(lastDay) {
			daily[len(daily)-1] = p.CumulativePnL
			continue
		}
		daily = append(daily, p.CumulativePnL)
		lastDay = day
	}

	return daily
}

func fptr(v float64) *float64 {
	return &v
}
