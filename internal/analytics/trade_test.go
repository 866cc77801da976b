package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawClosed(id int64, symbol, side string, qty, entry, exit float64, entryTime, exitTime time.Time, pnl *float64) RawTrade {
	return RawTrade{
		ID:         id,
		Symbol:     symbol,
		Side:       side,
		Quantity:   qty,
		EntryPrice: entry,
		ExitPrice:  &exit,
		EntryTime:  entryTime,
		ExitTime:   &exitTime,
		PnL:        pnl,
	}
}

func TestNormalize_CanonicalizesSymbolAndSide(t *testing.T) {
	entryTime := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ts, err := Normalize([]RawTrade{
		{ID: 1, Symbol: " aapl ", Side: "Long", Quantity: 10, EntryPrice: 100, EntryTime: entryTime},
	})
	require.NoError(t, err)
	require.Equal(t, 1, ts.Len())

	trade := ts.Trades()[0]
	assert.Equal(t, "AAPL", trade.Symbol)
	assert.Equal(t, SideLong, trade.Side)
	assert.False(t, trade.Closed())
}

func TestNormalize_DerivesPnLWhenMissing(t *testing.T) {
	entryTime := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	exitTime := entryTime.Add(2 * time.Hour)

	ts, err := Normalize([]RawTrade{
		rawClosed(1, "AAPL", "long", 10, 100, 105, entryTime, exitTime, nil),
		rawClosed(2, "AAPL", "short", 10, 100, 105, entryTime, exitTime, nil),
	})
	require.NoError(t, err)

	trades := ts.Trades()
	assert.InDelta(t, 50.0, trades[0].PnL, 1e-9)
	assert.InDelta(t, -50.0, trades[1].PnL, 1e-9) // short side inverts the sign
}

func TestNormalize_AcceptsStoredPnLWithinTolerance(t *testing.T) {
	entryTime := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	exitTime := entryTime.Add(time.Hour)

	stored := 50.0000005
	ts, err := Normalize([]RawTrade{
		rawClosed(1, "AAPL", "long", 10, 100, 105, entryTime, exitTime, &stored),
	})
	require.NoError(t, err)
	assert.Equal(t, stored, ts.Trades()[0].PnL)
}

func TestNormalize_RejectsPnLMismatch(t *testing.T) {
	entryTime := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	exitTime := entryTime.Add(time.Hour)

	stored := 60.0 // math says 50
	_, err := Normalize([]RawTrade{
		rawClosed(7, "AAPL", "long", 10, 100, 105, entryTime, exitTime, &stored),
	})
	require.Error(t, err)

	var compErr *ComputationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, int64(7), compErr.TradeID)
}

func TestNormalize_RejectsClosedTradeWithoutExitPrice(t *testing.T) {
	entryTime := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	exitTime := entryTime.Add(time.Hour)

	_, err := Normalize([]RawTrade{
		{ID: 3, Symbol: "AAPL", Side: "long", Quantity: 1, EntryPrice: 100, EntryTime: entryTime, ExitTime: &exitTime},
	})
	require.Error(t, err)

	var compErr *ComputationError
	assert.ErrorAs(t, err, &compErr)
}

func TestNormalize_RejectsUnknownSideAndBadQuantity(t *testing.T) {
	entryTime := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_, err := Normalize([]RawTrade{
		{ID: 1, Symbol: "AAPL", Side: "sideways", Quantity: 1, EntryPrice: 100, EntryTime: entryTime},
	})
	assert.Error(t, err)

	_, err = Normalize([]RawTrade{
		{ID: 2, Symbol: "AAPL", Side: "long", Quantity: 0, EntryPrice: 100, EntryTime: entryTime},
	})
	assert.Error(t, err)
}

func TestNewTradeSet_CopiesInput(t *testing.T) {
	trades := []Trade{
		{ID: 1, Symbol: "AAPL", Side: SideLong, Quantity: 1, EntryPrice: 100},
	}

	ts := NewTradeSet(trades)
	trades[0].Symbol = "MUTATED"

	assert.Equal(t, "AAPL", ts.Trades()[0].Symbol)
}
