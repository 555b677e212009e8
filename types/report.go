package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type RunStatus string

const (
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// RunParams are the inputs of one replay invocation, persisted alongside the
// report so a run can be reproduced later.
type RunParams struct {
	Symbol         string          `json:"symbol"`
	From           *time.Time      `json:"from,omitempty"`
	To             *time.Time      `json:"to,omitempty"`
	DelayMs        int64           `json:"delayMs,omitempty"`
	Rules          []Rule          `json:"rules"`
	Persist        bool            `json:"persist,omitempty"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
	StartBalances  []Balance       `json:"startBalances,omitempty"`
	StartPositions []Position      `json:"startPositions,omitempty"`
}

// RunReport is immutable once a replay completes.
type RunReport struct {
	TicksPlayed  int        `json:"ticksPlayed"`
	OrdersPlaced int        `json:"ordersPlaced"`
	Balances     []Balance  `json:"balances"`
	Positions    []Position `json:"positions"`
	Fills        []Fill     `json:"fills"`
}

type Run struct {
	ID        string    `json:"id"`
	Params    RunParams `json:"params"`
	Report    RunReport `json:"report"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is a derived point-in-time valuation. New snapshots are appended,
// never updated.
type Snapshot struct {
	RealizedPnl   decimal.Decimal `json:"realizedPnl"`
	UnrealizedPnl decimal.Decimal `json:"unrealizedPnl"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	CreatedAt     time.Time       `json:"createdAt"`
}
