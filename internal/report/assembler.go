package report

import (
	"time"

	"github.com/mkarlsen/tradelens/internal/analytics"
)

// MetricsPayload is the external reporting contract for one metric set.
// Undefined metrics are explicit nulls, never coerced to zero: a consumer
// can always tell "no closed trades" apart from "win rate of 0". The
// no_losses flag documents an infinite profit factor.
type MetricsPayload struct {
	TotalTrades     int `json:"total_trades"`
	OpenTrades      int `json:"open_trades"`
	ClosedTrades    int `json:"closed_trades"`
	WinningTrades   int `json:"winning_trades"`
	LosingTrades    int `json:"losing_trades"`
	BreakEvenTrades int `json:"break_even_trades"`

	TotalPnL float64 `json:"total_pnl"`

	WinRate      *float64 `json:"win_rate"`      // null when no closed trades
	ProfitFactor *float64 `json:"profit_factor"` // null when undefined or infinite
	NoLosses     bool     `json:"no_losses"`     // true: profit factor is infinite
	Expectancy   *float64 `json:"expectancy"`
	AvgWin       *float64 `json:"avg_win"`
	AvgLoss      *float64 `json:"avg_loss"`
	LargestWin   *float64 `json:"largest_win"`
	LargestLoss  *float64 `json:"largest_loss"`

	CurrentStreak int      `json:"current_streak"`
	MaxDrawdown   float64  `json:"max_drawdown"` // percentage, always <= 0
	SharpeRatio   *float64 `json:"sharpe_ratio"` // null under 2 return observations

	EquityCurve []analytics.EquityPoint `json:"equity_curve"`
}

// PerformanceResponse is the payload behind the performance summary
// endpoint
type PerformanceResponse struct {
	MetricsPayload
	ComputedAt time.Time `json:"computed_at"`
}

// GroupedBucketPayload is one bucket of a grouped metrics response
type GroupedBucketPayload struct {
	Bucket  string         `json:"bucket"`
	Metrics MetricsPayload `json:"metrics"`
}

// GroupedResponse is the payload behind the time-series and comparison
// endpoints
type GroupedResponse struct {
	GroupBy    string                 `json:"group_by"`
	Buckets    []GroupedBucketPayload `json:"buckets"`
	ComputedAt time.Time              `json:"computed_at"`
}

// assembleMetrics shapes a MetricsResult into the external contract
func assembleMetrics(res analytics.MetricsResult) MetricsPayload {
	curve := res.EquityCurve
	if curve == nil {
		curve = []analytics.EquityPoint{}
	}

	return MetricsPayload{
		TotalTrades:     res.TotalTrades,
		OpenTrades:      res.OpenTrades,
		ClosedTrades:    res.ClosedTrades,
		WinningTrades:   res.WinningTrades,
		LosingTrades:    res.LosingTrades,
		BreakEvenTrades: res.BreakEvenTrades,
		TotalPnL:        res.TotalPnL,
		WinRate:         res.WinRate,
		ProfitFactor:    res.ProfitFactor,
		NoLosses:        res.NoLosses,
		Expectancy:      res.Expectancy,
		AvgWin:          res.AvgWin,
		AvgLoss:         res.AvgLoss,
		LargestWin:      res.LargestWin,
		LargestLoss:     res.LargestLoss,
		CurrentStreak:   res.CurrentStreak,
		MaxDrawdown:     res.MaxDrawdownPct,
		SharpeRatio:     res.SharpeRatio,
		EquityCurve:     curve,
	}
}

// assemblePerformance shapes a MetricsResult into the summary response
func assemblePerformance(res analytics.MetricsResult, computedAt time.Time) *PerformanceResponse {
	return &PerformanceResponse{
		MetricsPayload: assembleMetrics(res),
		ComputedAt:     computedAt,
	}
}

// assembleGrouped shapes per-bucket results into the grouped response
func assembleGrouped(key analytics.GroupKey, buckets []BucketMetrics, computedAt time.Time) *GroupedResponse {
	payload := make([]GroupedBucketPayload, 0, len(buckets))
	for _, b := range buckets {
		payload = append(payload, GroupedBucketPayload{
			Bucket:  b.Label,
			Metrics: assembleMetrics(b.Metrics),
		})
	}

	return &GroupedResponse{
		GroupBy:    string(key),
		Buckets:    payload,
		ComputedAt: computedAt,
	}
}
