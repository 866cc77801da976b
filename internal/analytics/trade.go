package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of a trade
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ParseSide converts a raw side string to a Side
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return SideLong, nil
	case "short":
		return SideShort, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Sign returns +1 for long trades and -1 for short trades
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// Trade is the canonical in-memory representation of a trade record.
// It is a value type and never mutated after normalization.
type Trade struct {
	ID         int64
	Symbol     string
	Side       Side
	Quantity   float64
	EntryPrice float64
	ExitPrice  *float64 // nil means open position
	EntryTime  time.Time
	ExitTime   *time.Time // nil means open position
	PnL        float64    // realized pnl, meaningful only when closed
	Strategy   string
}

// Closed reports whether the trade has been exited
func (t Trade) Closed() bool {
	return t.ExitTime != nil
}

// TradeSet is an ordered, immutable sequence of trades for one user.
// Filter and group operations return new sets and never mutate the source.
type TradeSet struct {
	trades []Trade
}

// NewTradeSet creates a TradeSet from a slice of trades. The slice is
// copied so later mutation of the input cannot alias into the set.
func NewTradeSet(trades []Trade) TradeSet {
	cp := make([]Trade, len(trades))
	copy(cp, trades)
	return TradeSet{trades: cp}
}

// Len returns the number of trades in the set
func (ts TradeSet) Len() int {
	return len(ts.trades)
}

// Trades returns a copy of the underlying trades in insertion order
func (ts TradeSet) Trades() []Trade {
	cp := make([]Trade, len(ts.trades))
	copy(cp, ts.trades)
	return cp
}

// RawTrade is a trade row as persisted by the external trade store,
// before normalization.
type RawTrade struct {
	ID         int64
	Symbol     string
	Side       string
	Quantity   float64
	EntryPrice float64
	ExitPrice  *float64
	EntryTime  time.Time
	ExitTime   *time.Time
	PnL        *float64
	Strategy   *string
}

// pnlTolerance is the rounding tolerance when verifying stored pnl
// against entry/exit math.
var pnlTolerance = decimal.NewFromFloat(1e-6)

// Normalize converts raw persisted trade rows into a canonical TradeSet.
// Closed trades must carry an exit price, and a stored pnl must agree with
// (exit - entry) * quantity * sign(side) within tolerance; a mismatch is a
// ComputationError, not something to silently recompute.
func Normalize(rows []RawTrade) (TradeSet, error) {
	trades := make([]Trade, 0, len(rows))

	for _, row := range rows {
		side, err := ParseSide(row.Side)
		if err != nil {
			return TradeSet{}, NewComputationError(row.ID, err.Error())
		}

		if row.Quantity <= 0 {
			return TradeSet{}, NewComputationError(row.ID, fmt.Sprintf("quantity must be positive, got %v", row.Quantity))
		}

		t := Trade{
			ID:         row.ID,
			Symbol:     strings.ToUpper(strings.TrimSpace(row.Symbol)),
			Side:       side,
			Quantity:   row.Quantity,
			EntryPrice: row.EntryPrice,
			EntryTime:  row.EntryTime.UTC(),
		}

		if row.Strategy != nil {
			t.Strategy = strings.TrimSpace(*row.Strategy)
		}

		if row.ExitTime != nil {
			if row.ExitPrice == nil {
				return TradeSet{}, NewComputationError(row.ID, "closed trade has no exit price")
			}

			exitTime := row.ExitTime.UTC()
			t.ExitTime = &exitTime
			exitPrice := *row.ExitPrice
			t.ExitPrice = &exitPrice

			expected := derivedPnL(side, row.Quantity, row.EntryPrice, exitPrice)

			if row.PnL != nil {
				stored := decimal.NewFromFloat(*row.PnL)
				if stored.Sub(expected).Abs().GreaterThan(pnlTolerance) {
					return TradeSet{}, NewComputationError(row.ID, fmt.Sprintf(
						"stored pnl %v disagrees with entry/exit math %v", *row.PnL, expected))
				}
				t.PnL = *row.PnL
			} else {
				t.PnL, _ = expected.Float64()
			}
		}

		trades = append(trades, t)
	}

	return TradeSet{trades: trades}, nil
}

// derivedPnL computes (exit - entry) * quantity * sign(side) in decimal
// arithmetic so the tolerance comparison is not polluted by float error.
func derivedPnL(side Side, quantity, entryPrice, exitPrice float64) decimal.Decimal {
	qty := decimal.NewFromFloat(quantity)
	entry := decimal.NewFromFloat(entryPrice)
	exit := decimal.NewFromFloat(exitPrice)
	sign := decimal.NewFromFloat(side.Sign())

	return exit.Sub(entry).Mul(qty).Mul(sign)
}
