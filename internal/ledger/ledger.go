package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"papertrade/types"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the single cash asset every fill settles against.
const BaseCurrency = "USD"

var ErrInvalidDecimal = errors.New("invalid decimal")

// Ledger keeps the balances, positions and fill history of one simulated
// account. PlaceFill is the sole mutation point; everything else is a lookup.
//
// Balances are deliberately not negative-checked: overspending is allowed and
// simply drives the cash balance below zero.
type Ledger struct {
	balances  map[string]decimal.Decimal
	positions map[string]*types.Position
	fills     []types.Fill

	nextID func() string
}

func New() *Ledger {
	return &Ledger{
		balances:  make(map[string]decimal.Decimal),
		positions: make(map[string]*types.Position),
		nextID:    newFillID,
	}
}

// InitBalances replaces all balances.
func (l *Ledger) InitBalances(balances []types.Balance) {
	l.balances = make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		l.balances[b.Asset] = b.Amount
	}
}

// InitPositions replaces all positions.
func (l *Ledger) InitPositions(positions []types.Position) {
	l.positions = make(map[string]*types.Position, len(positions))
	for _, p := range positions {
		pos := p
		l.positions[p.Symbol] = &pos
	}
}

// PlaceFill records a fill stamped with the current wall clock.
func (l *Ledger) PlaceFill(symbol string, qty, price, fee decimal.Decimal) types.Fill {
	return l.PlaceFillAt(symbol, qty, price, fee, time.Now().UTC())
}

// PlaceFillAt appends a fill and applies its economic effect atomically:
// the position's quantity and weighted average price are updated, then the
// base-currency balance moves by -price*qty minus the fee.
//
// The average price follows the blended weighted formula even when the fill
// flips the position's sign, so a long flipped short carries a misleading
// blended entry price. Only a quantity of exactly zero (before or after the
// fill) resets the average to the fill price.
func (l *Ledger) PlaceFillAt(symbol string, qty, price, fee decimal.Decimal, ts time.Time) types.Fill {
	fill := types.Fill{
		ID:        l.nextID(),
		Symbol:    symbol,
		Qty:       qty,
		Price:     price,
		Fee:       fee,
		Timestamp: ts,
	}

	pos := l.positions[symbol]
	if pos == nil {
		pos = &types.Position{Symbol: symbol}
		l.positions[symbol] = pos
	}

	oldQty := pos.Qty
	newQty := oldQty.Add(qty)
	switch {
	case oldQty.IsZero(), newQty.IsZero():
		pos.AvgPrice = price
	default:
		pos.AvgPrice = weightedAvg(pos.AvgPrice, oldQty, price, qty)
	}
	pos.Qty = newQty

	cash := l.balances[BaseCurrency]
	l.balances[BaseCurrency] = cash.Sub(price.Mul(qty)).Sub(fee)

	l.fills = append(l.fills, fill)
	return fill
}

// GetBalance returns the balance for an asset, zero-valued when absent.
func (l *Ledger) GetBalance(asset string) types.Balance {
	return types.Balance{Asset: asset, Amount: l.balances[asset]}
}

// GetPosition returns the position for a symbol, zero-valued when absent.
func (l *Ledger) GetPosition(symbol string) types.Position {
	if pos, ok := l.positions[symbol]; ok {
		return *pos
	}
	return types.Position{Symbol: symbol, Qty: decimal.Zero, AvgPrice: decimal.Zero}
}

// Balances returns all balances sorted by asset.
func (l *Ledger) Balances() []types.Balance {
	out := make([]types.Balance, 0, len(l.balances))
	for asset, amount := range l.balances {
		out = append(out, types.Balance{Asset: asset, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

// Positions returns all positions sorted by symbol.
func (l *Ledger) Positions() []types.Position {
	out := make([]types.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Fills returns the fill history in arrival order.
func (l *Ledger) Fills() []types.Fill {
	return append([]types.Fill(nil), l.fills...)
}

// FillsForSymbol returns the fill history for one symbol in arrival order.
func (l *Ledger) FillsForSymbol(symbol string) []types.Fill {
	var out []types.Fill
	for _, f := range l.fills {
		if f.Symbol == symbol {
			out = append(out, f)
		}
	}
	return out
}

// ParseBalance builds a Balance from string input, failing fast on a
// malformed amount.
func ParseBalance(asset, amount string) (types.Balance, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return types.Balance{}, fmt.Errorf("balance %s amount %q: %w", asset, amount, ErrInvalidDecimal)
	}
	return types.Balance{Asset: asset, Amount: d}, nil
}

// ParsePosition builds a Position from string input, failing fast on
// malformed quantities or prices.
func ParsePosition(symbol, qty, avgPrice string) (types.Position, error) {
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return types.Position{}, fmt.Errorf("position %s qty %q: %w", symbol, qty, ErrInvalidDecimal)
	}
	p, err := decimal.NewFromString(avgPrice)
	if err != nil {
		return types.Position{}, fmt.Errorf("position %s avgPrice %q: %w", symbol, avgPrice, ErrInvalidDecimal)
	}
	return types.Position{Symbol: symbol, Qty: q, AvgPrice: p}, nil
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	total := existingQty.Add(newQty)
	if total.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(total)
}
