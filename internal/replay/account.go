package replay

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/ledger"
	"papertrade/types"
)

// LedgerAccount adapts the in-memory ledger to the Account interface used by
// the runner. This is the default, non-persisted execution path: orders fill
// immediately at the tick price with no fee.
type LedgerAccount struct {
	ledger *ledger.Ledger
}

func NewLedgerAccount() *LedgerAccount {
	return &LedgerAccount{ledger: ledger.New()}
}

// Ledger exposes the underlying ledger for snapshot/P&L reads.
func (a *LedgerAccount) Ledger() *ledger.Ledger {
	return a.ledger
}

func (a *LedgerAccount) Init(_ context.Context, balances []types.Balance, positions []types.Position) error {
	a.ledger.InitBalances(balances)
	a.ledger.InitPositions(positions)
	return nil
}

func (a *LedgerAccount) PlaceOrder(_ context.Context, symbol string, side types.Side, qty, price decimal.Decimal, ts time.Time) error {
	if side == types.SideTypeSell {
		qty = qty.Neg()
	}
	a.ledger.PlaceFillAt(symbol, qty, price, decimal.Zero, ts)
	return nil
}

func (a *LedgerAccount) Report(_ context.Context) (types.RunReport, error) {
	return types.RunReport{
		Balances:  a.ledger.Balances(),
		Positions: a.ledger.Positions(),
		Fills:     a.ledger.Fills(),
	}, nil
}
