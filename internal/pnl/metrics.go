package pnl

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/types"
)

// DefaultInitialCapital seeds the equity projection when the caller does not
// specify starting capital.
var DefaultInitialCapital = decimal.NewFromInt(10000)

type EquityPoint struct {
	Timestamp time.Time       `json:"ts"`
	Equity    decimal.Decimal `json:"equity"`
}

type Metrics struct {
	Trades           int
	PnlSeries        []EquityPoint
	MaxDrawdown      decimal.Decimal
	InitialCapital   decimal.Decimal
	FinalEquity      decimal.Decimal
	TotalReturn      decimal.Decimal
	PctReturn        decimal.Decimal
	AnnualizedReturn decimal.Decimal
}

// ComputeMetrics projects an equity series from fills in arrival order and
// derives drawdown and return metrics from it.
//
// The projection is a cash-flow view, not mark-to-market: each buy subtracts
// price*qty from equity and each sell adds it back. A zero initialCapital
// falls back to DefaultInitialCapital.
func ComputeMetrics(fills []types.Fill, initialCapital decimal.Decimal) Metrics {
	if initialCapital.IsZero() {
		initialCapital = DefaultInitialCapital
	}

	equity := initialCapital
	series := make([]EquityPoint, 0, len(fills))
	for _, f := range fills {
		equity = equity.Sub(f.Price.Mul(f.Qty))
		series = append(series, EquityPoint{Timestamp: f.Timestamp, Equity: equity})
	}

	m := Metrics{
		Trades:         len(fills),
		PnlSeries:      series,
		InitialCapital: initialCapital,
		FinalEquity:    equity,
	}
	m.TotalReturn = m.FinalEquity.Sub(initialCapital)
	m.PctReturn = m.TotalReturn.Div(initialCapital)

	values := make([]decimal.Decimal, len(series))
	for i, p := range series {
		values[i] = p.Equity
	}
	m.MaxDrawdown = MaxDrawdown(values)

	if len(series) >= 2 {
		m.AnnualizedReturn = annualize(m.PctReturn, series[0].Timestamp, series[len(series)-1].Timestamp)
	}
	return m
}

// MaxDrawdown is the largest peak-to-trough drop over the series: the running
// high-water mark minus the current value, maximized. A monotonically rising
// series yields zero.
func MaxDrawdown(values []decimal.Decimal) decimal.Decimal {
	maxDD := decimal.Zero
	if len(values) == 0 {
		return maxDD
	}

	peak := values[0]
	for _, v := range values {
		if v.GreaterThan(peak) {
			peak = v
		}
		if dd := peak.Sub(v); dd.GreaterThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD
}

// annualize computes (1+pctReturn)^(1/years) - 1, flooring the span at one
// day so sub-day runs do not explode the exponent.
func annualize(pctReturn decimal.Decimal, first, last time.Time) decimal.Decimal {
	days := last.Sub(first).Hours() / 24.0
	if days < 1 {
		days = 1
	}
	years := days / 365.0

	base := 1.0 + pctReturn.InexactFloat64()
	if base <= 0 {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromFloat(math.Pow(base, 1.0/years) - 1.0)
}
