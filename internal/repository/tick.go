package repository

import (
	"context"
	"fmt"
	"time"

	"papertrade/types"
)

// InsertTick appends one tick observation.
func (db *Database) InsertTick(ctx context.Context, tick types.Tick) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO ticks (symbol, price, ts) VALUES ($1, $2, $3)`,
		tick.Symbol, tick.Price, tick.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert tick %s: %w", tick.Symbol, err)
	}
	return nil
}

// GetTicks returns ticks for a symbol within [from, to), ascending by
// timestamp. Nil bounds are open-ended. An empty result is not an error;
// the market-data feed decides whether to fall back to candles.
func (db *Database) GetTicks(ctx context.Context, symbol string, from, to *time.Time) ([]types.Tick, error) {
	start := time.UnixMilli(0)
	if from != nil {
		start = *from
	}
	end := time.Now().UTC().Add(time.Hour)
	if to != nil {
		end = *to
	}

	rows, err := db.pool.Query(ctx,
		`SELECT symbol, price, ts FROM ticks
		 WHERE symbol = $1 AND ts >= $2 AND ts < $3
		 ORDER BY ts ASC, id ASC`,
		symbol, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query ticks %s: %w", symbol, err)
	}
	defer rows.Close()

	var ticks []types.Tick
	for rows.Next() {
		var t types.Tick
		if err := rows.Scan(&t.Symbol, &t.Price, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		ticks = append(ticks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}
	return ticks, nil
}
