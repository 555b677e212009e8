package pnl

import (
	"testing"
	"time"

	"papertrade/types"

	"github.com/shopspring/decimal"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		series []string
		want   string
	}{
		{
			name:   "monotonically increasing is zero",
			series: []string{"100", "110", "120", "130"},
			want:   "0",
		},
		{
			name:   "dip below prior peak",
			series: []string{"100", "120", "90", "130"},
			want:   "30",
		},
		{
			name:   "all falling",
			series: []string{"100", "80", "60"},
			want:   "40",
		},
		{
			name:   "empty",
			series: nil,
			want:   "0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			values := make([]decimal.Decimal, len(tc.series))
			for i, s := range tc.series {
				values[i] = d(s)
			}
			if got := MaxDrawdown(values); !got.Equal(d(tc.want)) {
				t.Errorf("MaxDrawdown = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestComputeMetricsEquityProjection(t *testing.T) {
	day := int64(24 * 60 * 60 * 1000)
	// Buy drops equity 10000 -> 9000, the sell a year later lifts it to 10500.
	fills := []types.Fill{
		fill("BTCUSD", "10", "100", "0", 0),
		fill("BTCUSD", "-10", "150", "0", 365*day),
	}

	m := ComputeMetrics(fills, decimal.Zero)

	if !m.InitialCapital.Equal(d("10000")) {
		t.Errorf("initial capital = %s, want default 10000", m.InitialCapital)
	}
	if m.Trades != 2 {
		t.Errorf("trades = %d, want 2", m.Trades)
	}
	if len(m.PnlSeries) != 2 {
		t.Fatalf("series len = %d, want 2", len(m.PnlSeries))
	}
	if !m.PnlSeries[0].Equity.Equal(d("9000")) {
		t.Errorf("first equity = %s, want 9000", m.PnlSeries[0].Equity)
	}
	if !m.FinalEquity.Equal(d("10500")) {
		t.Errorf("final equity = %s, want 10500", m.FinalEquity)
	}
	if !m.TotalReturn.Equal(d("500")) {
		t.Errorf("total return = %s, want 500", m.TotalReturn)
	}
	if !m.PctReturn.Equal(d("0.05")) {
		t.Errorf("pct return = %s, want 0.05", m.PctReturn)
	}
	// One-year span: annualized equals the pct return.
	if diff := m.AnnualizedReturn.Sub(d("0.05")).Abs(); diff.GreaterThan(d("0.0000001")) {
		t.Errorf("annualized = %s, want ~0.05", m.AnnualizedReturn)
	}
	if !m.MaxDrawdown.Equal(d("0")) {
		t.Errorf("max drawdown = %s, want 0", m.MaxDrawdown)
	}
}

func TestComputeMetricsSubDayFloor(t *testing.T) {
	// Two fills one minute apart: the span floors to one day instead of
	// annualizing a minute-long gain into an absurd figure.
	fills := []types.Fill{
		fill("BTCUSD", "10", "100", "0", 0),
		fill("BTCUSD", "-10", "101", "0", 60_000),
	}

	m := ComputeMetrics(fills, d("10000"))

	// pct = 10/10000 = 0.001 over a 1/365 year span.
	upper := d("0.5")
	if m.AnnualizedReturn.GreaterThan(upper) {
		t.Errorf("annualized = %s, want floored below %s", m.AnnualizedReturn, upper)
	}
	if !m.AnnualizedReturn.IsPositive() {
		t.Errorf("annualized = %s, want positive", m.AnnualizedReturn)
	}
}

func TestComputeMetricsSingleFill(t *testing.T) {
	fills := []types.Fill{fill("BTCUSD", "1", "100", "0", 0)}

	m := ComputeMetrics(fills, d("1000"))
	if !m.AnnualizedReturn.IsZero() {
		t.Errorf("annualized with <2 points = %s, want 0", m.AnnualizedReturn)
	}
	if !m.FinalEquity.Equal(d("900")) {
		t.Errorf("final equity = %s, want 900", m.FinalEquity)
	}
}

func TestComputeSnapshot(t *testing.T) {
	balances := []types.Balance{
		{Asset: "USD", Amount: d("5000")},
		{Asset: "EUR", Amount: d("100")},
	}
	positions := []types.Position{
		{Symbol: "BTCUSD", Qty: d("2"), AvgPrice: d("100")},
		{Symbol: "NOPRICE", Qty: d("7"), AvgPrice: d("50")},
	}
	ticks := map[string]types.Tick{
		"BTCUSD": {Symbol: "BTCUSD", Price: d("120"), Timestamp: time.UnixMilli(9)},
	}
	realized := map[string]RealizedResult{
		"BTCUSD": {Realized: d("33")},
		"ETHUSD": {Realized: d("-3")},
	}

	snap := ComputeSnapshot(balances, positions, ticks, realized)

	if !snap.RealizedPnl.Equal(d("30")) {
		t.Errorf("realized = %s, want 30", snap.RealizedPnl)
	}
	// Only BTCUSD has a price: (120-100)*2. NOPRICE is skipped, not zeroed.
	if !snap.UnrealizedPnl.Equal(d("40")) {
		t.Errorf("unrealized = %s, want 40", snap.UnrealizedPnl)
	}
	// 5000 + 100 cash plus 2*120; NOPRICE contributes nothing.
	if !snap.TotalValue.Equal(d("5340")) {
		t.Errorf("total value = %s, want 5340", snap.TotalValue)
	}
	if snap.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}
}
