// Package smacross is a simple moving-average crossover strategy for the
// candle backtester: go long when the fast average crosses above the slow
// one, flatten when it crosses back below.
package smacross

import (
	"github.com/shopspring/decimal"

	"papertrade/internal/backtest"
	"papertrade/types"
)

type Strategy struct {
	Fast int
	Slow int
	// Qty bought on each bullish cross.
	Qty decimal.Decimal
}

func New(fast, slow int, qty decimal.Decimal) *Strategy {
	return &Strategy{Fast: fast, Slow: slow, Qty: qty}
}

func (s *Strategy) Name() string {
	return "sma-cross"
}

func (s *Strategy) OnCandle(candle types.Candle, history []types.Candle, position types.Position) *backtest.Signal {
	// Need one candle beyond the slow window to detect a cross.
	if len(history) <= s.Slow {
		return nil
	}

	fastNow := sma(history, s.Fast, 0)
	slowNow := sma(history, s.Slow, 0)
	fastPrev := sma(history, s.Fast, 1)
	slowPrev := sma(history, s.Slow, 1)

	crossedUp := fastPrev.LessThanOrEqual(slowPrev) && fastNow.GreaterThan(slowNow)
	crossedDown := fastPrev.GreaterThanOrEqual(slowPrev) && fastNow.LessThan(slowNow)

	switch {
	case crossedUp && position.Qty.IsZero():
		return &backtest.Signal{
			Side:   types.SideTypeBuy,
			Qty:    s.Qty,
			Reason: "fast SMA crossed above slow SMA",
		}
	case crossedDown && position.Qty.IsPositive():
		return &backtest.Signal{
			Side:   types.SideTypeSell,
			Qty:    position.Qty,
			Reason: "fast SMA crossed below slow SMA",
		}
	}
	return nil
}

// sma averages the last n closes, offset candles back from the end.
func sma(history []types.Candle, n, offset int) decimal.Decimal {
	end := len(history) - offset
	start := end - n
	if start < 0 || n == 0 {
		return decimal.Zero
	}

	sum := decimal.Zero
	for _, c := range history[start:end] {
		sum = sum.Add(c.Close)
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}
