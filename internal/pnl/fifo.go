// Package pnl holds the pure calculators: FIFO realized P&L over a fill
// history, point-in-time valuation snapshots, and equity-series metrics.
// Nothing in here owns state; callers pass ledger data in.
package pnl

import (
	"github.com/shopspring/decimal"

	"papertrade/types"
)

// lot is an unconsumed portion of a historical buy, queued oldest-first.
type lot struct {
	qty  decimal.Decimal
	cost decimal.Decimal
}

// MatchDetail is one FIFO match between a sell fill and a buy lot, kept for
// audit/export.
type MatchDetail struct {
	SellFillID string          `json:"sellFillId"`
	Qty        decimal.Decimal `json:"qty"`
	SellPrice  decimal.Decimal `json:"sellPrice"`
	CostBasis  decimal.Decimal `json:"costBasis"`
	Gross      decimal.Decimal `json:"gross"`
	FeeAlloc   decimal.Decimal `json:"feeAlloc"`
	Net        decimal.Decimal `json:"net"`
}

type RealizedResult struct {
	Realized decimal.Decimal
	Details  []MatchDetail
}

// String renders the cumulative realized P&L with 10 fractional digits, the
// canonical serialization for reproducibility across implementations.
func (r RealizedResult) String() string {
	return r.Realized.StringFixed(10)
}

// ComputeRealizedFromFills computes realized P&L for one symbol's fills,
// oldest-first, using strict FIFO lot consumption.
//
// Buys push a lot onto the back of the queue. Sells consume from the front,
// matching min(lot qty, remaining sell qty) per lot; the sell's fee is
// allocated proportionally to each matched amount. Sell quantity left after
// the queue empties is treated as pure proceeds at zero cost, which masks
// uncovered shorts but matches the bookkeeping this engine promises.
func ComputeRealizedFromFills(fills []types.Fill) RealizedResult {
	var (
		lots     []lot
		realized = decimal.Zero
		details  []MatchDetail
	)

	for _, fill := range fills {
		if fill.Qty.IsZero() {
			continue
		}

		if fill.Qty.IsPositive() {
			lots = append(lots, lot{qty: fill.Qty, cost: fill.Price})
			continue
		}

		totalSellQty := fill.Qty.Neg()
		remaining := totalSellQty

		for len(lots) > 0 && remaining.IsPositive() {
			head := &lots[0]
			matched := decimal.Min(head.qty, remaining)

			gross := matched.Mul(fill.Price.Sub(head.cost))
			feeAlloc := fill.Fee.Mul(matched.Div(totalSellQty))
			net := gross.Sub(feeAlloc)

			realized = realized.Add(net)
			details = append(details, MatchDetail{
				SellFillID: fill.ID,
				Qty:        matched,
				SellPrice:  fill.Price,
				CostBasis:  head.cost,
				Gross:      gross,
				FeeAlloc:   feeAlloc,
				Net:        net,
			})

			head.qty = head.qty.Sub(matched)
			remaining = remaining.Sub(matched)
			if head.qty.IsZero() {
				lots = lots[1:]
			}
		}

		if remaining.IsPositive() {
			gross := remaining.Mul(fill.Price)
			feeAlloc := fill.Fee.Mul(remaining.Div(totalSellQty))
			net := gross.Sub(feeAlloc)

			realized = realized.Add(net)
			details = append(details, MatchDetail{
				SellFillID: fill.ID,
				Qty:        remaining,
				SellPrice:  fill.Price,
				CostBasis:  decimal.Zero,
				Gross:      gross,
				FeeAlloc:   feeAlloc,
				Net:        net,
			})
		}
	}

	return RealizedResult{Realized: realized, Details: details}
}

// ComputeRealizedBySymbol groups a mixed fill history by symbol and runs the
// FIFO calculator per symbol, preserving arrival order within each group.
func ComputeRealizedBySymbol(fills []types.Fill) map[string]RealizedResult {
	grouped := make(map[string][]types.Fill)
	for _, f := range fills {
		grouped[f.Symbol] = append(grouped[f.Symbol], f)
	}

	out := make(map[string]RealizedResult, len(grouped))
	for symbol, group := range grouped {
		out[symbol] = ComputeRealizedFromFills(group)
	}
	return out
}
