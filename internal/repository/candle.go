package repository

import (
	"context"
	"fmt"
	"time"

	"papertrade/types"
)

// InsertCandles bulk-loads candle history, typically from a vendor export.
func (db *Database) InsertCandles(ctx context.Context, candles []types.Candle) error {
	for _, c := range candles {
		_, err := db.pool.Exec(ctx,
			`INSERT INTO candles (symbol, interval, open, high, low, close, volume, ts)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.Symbol, string(c.Interval), c.Open, c.High, c.Low, c.Close, c.Volume, c.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert candle %s@%s: %w", c.Symbol, c.Timestamp, err)
		}
	}
	return nil
}

// GetCandles returns candles for a symbol/interval within [start, end),
// ascending by timestamp.
func (db *Database) GetCandles(ctx context.Context, symbol string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT symbol, interval, open, high, low, close, volume, ts FROM candles
		 WHERE symbol = $1 AND interval = $2 AND ts >= $3 AND ts < $4
		 ORDER BY ts ASC`,
		symbol, string(interval), start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query candles %s: %w", symbol, err)
	}
	defer rows.Close()

	var candles []types.Candle
	for rows.Next() {
		var c types.Candle
		var iv string
		if err := rows.Scan(&c.Symbol, &iv, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Interval = types.Interval(iv)
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles: %w", err)
	}
	return candles, nil
}
