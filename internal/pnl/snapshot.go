package pnl

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/types"
)

// ComputeSnapshot combines balances, positions, latest prices and per-symbol
// realized P&L into a point-in-time valuation.
//
// Unrealized P&L excludes symbols with no recent price: a position whose
// symbol is missing from latestTicks is skipped entirely, not zero-filled,
// and contributes nothing to total value either.
func ComputeSnapshot(
	balances []types.Balance,
	positions []types.Position,
	latestTicks map[string]types.Tick,
	realizedBySymbol map[string]RealizedResult,
) types.Snapshot {
	realized := decimal.Zero
	for _, r := range realizedBySymbol {
		realized = realized.Add(r.Realized)
	}

	unrealized := decimal.Zero
	positionValue := decimal.Zero
	for _, pos := range positions {
		tick, ok := latestTicks[pos.Symbol]
		if !ok {
			continue
		}
		unrealized = unrealized.Add(tick.Price.Sub(pos.AvgPrice).Mul(pos.Qty))
		positionValue = positionValue.Add(pos.Qty.Mul(tick.Price))
	}

	total := positionValue
	for _, b := range balances {
		total = total.Add(b.Amount)
	}

	return types.Snapshot{
		RealizedPnl:   realized,
		UnrealizedPnl: unrealized,
		TotalValue:    total,
		CreatedAt:     time.Now().UTC(),
	}
}
