package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkarlsen/tradelens/internal/analytics"
)

// Probe is the lightweight freshness snapshot of one user's trades,
// used by the result cache for staleness checks.
type Probe struct {
	TradeCount   int
	MaxUpdatedAt time.Time
}

// Repository reads trade data from the external trade store. This
// subsystem never writes trades; persistence belongs to the CRUD layer.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new trade store repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTrades returns all trade rows for a user, ordered by entry time
// (ties by id) so normalization sees a stable insertion order.
func (r *Repository) GetTrades(ctx context.Context, userID int64) ([]analytics.RawTrade, error) {
	query := `
		SELECT id, symbol, side, quantity, entry_price, exit_price,
		       entry_time, exit_time, pnl, strategy
		FROM trades
		WHERE user_id = $1
		ORDER BY entry_time, id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []analytics.RawTrade
	for rows.Next() {
		var t analytics.RawTrade
		err := rows.Scan(
			&t.ID, &t.Symbol, &t.Side, &t.Quantity, &t.EntryPrice, &t.ExitPrice,
			&t.EntryTime, &t.ExitTime, &t.PnL, &t.Strategy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}

	return trades, nil
}

// GetFreshnessProbe returns the trade count and latest update time for a
// user. One aggregate query, no row materialization.
func (r *Repository) GetFreshnessProbe(ctx context.Context, userID int64) (Probe, error) {
	query := `
		SELECT COUNT(*), COALESCE(MAX(updated_at), 'epoch'::timestamptz)
		FROM trades
		WHERE user_id = $1
	`

	var probe Probe
	err := r.pool.QueryRow(ctx, query, userID).Scan(&probe.TradeCount, &probe.MaxUpdatedAt)
	if err != nil {
		return Probe{}, fmt.Errorf("failed to probe trade freshness: %w", err)
	}

	return probe, nil
}

// ActiveUserIDs returns the ids of the users with the most recent trade
// activity, newest first. Used by the cache warmer.
func (r *Repository) ActiveUserIDs(ctx context.Context, limit int) ([]int64, error) {
	query := `
		SELECT user_id
		FROM trades
		GROUP BY user_id
		ORDER BY MAX(updated_at) DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read active users: %w", err)
	}

	return userIDs, nil
}
