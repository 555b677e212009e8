package backtest

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"papertrade/internal/pnl"
	"papertrade/types"
)

// Summary aggregates one backtest into the usual performance statistics.
type Summary struct {
	Trades           int
	TotalReturn      decimal.Decimal
	PctReturn        decimal.Decimal
	AnnualizedReturn decimal.Decimal
	SharpeRatio      decimal.Decimal
	MaxDrawdown      decimal.Decimal
	WinRate          decimal.Decimal
	ProfitFactor     decimal.Decimal
	LargestWin       decimal.Decimal
	LargestLoss      decimal.Decimal
	VaR95            decimal.Decimal
	VaR99            decimal.Decimal
}

// tradingDaysPerYear annualizes Sharpe under the usual daily-bar assumption.
const tradingDaysPerYear = 252.0

func summarize(cfg Config, curve []pnl.EquityPoint, fills []types.Fill) Summary {
	s := Summary{Trades: len(fills)}
	if len(curve) == 0 {
		return s
	}

	final := curve[len(curve)-1].Equity
	s.TotalReturn = final.Sub(cfg.InitialBalance)
	if cfg.InitialBalance.IsPositive() {
		s.PctReturn = s.TotalReturn.Div(cfg.InitialBalance)
	}

	values := make([]decimal.Decimal, len(curve))
	for i, p := range curve {
		values[i] = p.Equity
	}
	s.MaxDrawdown = pnl.MaxDrawdown(values)

	if len(curve) >= 2 {
		first, last := curve[0].Timestamp, curve[len(curve)-1].Timestamp
		days := last.Sub(first).Hours() / 24.0
		if days < 1 {
			days = 1
		}
		base := 1.0 + s.PctReturn.InexactFloat64()
		if base > 0 {
			s.AnnualizedReturn = decimal.NewFromFloat(math.Pow(base, 365.0/days) - 1.0)
		}
	}

	returns := stepReturns(curve)
	s.SharpeRatio = sharpe(returns)
	s.VaR95 = valueAtRisk(returns, 0.95)
	s.VaR99 = valueAtRisk(returns, 0.99)

	s.WinRate, s.ProfitFactor, s.LargestWin, s.LargestLoss = tradeStats(fills)
	return s
}

func stepReturns(curve []pnl.EquityPoint) []float64 {
	var out []float64
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if !prev.IsPositive() {
			continue
		}
		out = append(out, curve[i].Equity.Sub(prev).Div(prev).InexactFloat64())
	}
	return out
}

// sharpe is the annualized ratio of mean step return to its standard
// deviation, zero risk-free rate.
func sharpe(returns []float64) decimal.Decimal {
	if len(returns) < 2 {
		return decimal.Zero
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return decimal.Zero
	}
	sd, err := stats.StandardDeviationSample(returns)
	if err != nil || sd == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(mean / sd * math.Sqrt(tradingDaysPerYear))
}

// valueAtRisk uses the empirical method: returns sorted ascending, the value
// at index floor(n*confidence), clamped to the series. This reports the high
// quantile of the return distribution, not a tail loss; kept for
// report-compatibility with prior runs.
func valueAtRisk(returns []float64, confidence float64) decimal.Decimal {
	if len(returns) == 0 {
		return decimal.Zero
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor(float64(len(sorted)) * confidence))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return decimal.NewFromFloat(sorted[idx])
}

// tradeStats derives per-trade outcomes from FIFO matches over the fill
// history: each matched lot is one outcome.
func tradeStats(fills []types.Fill) (winRate, profitFactor, largestWin, largestLoss decimal.Decimal) {
	res := pnl.ComputeRealizedFromFills(fills)
	if len(res.Details) == 0 {
		return decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	}

	wins, losses := 0, 0
	grossWins, grossLosses := decimal.Zero, decimal.Zero
	for _, m := range res.Details {
		switch {
		case m.Net.IsPositive():
			wins++
			grossWins = grossWins.Add(m.Net)
			if m.Net.GreaterThan(largestWin) {
				largestWin = m.Net
			}
		case m.Net.IsNegative():
			losses++
			grossLosses = grossLosses.Add(m.Net.Abs())
			if m.Net.Abs().GreaterThan(largestLoss) {
				largestLoss = m.Net.Abs()
			}
		}
	}

	total := decimal.NewFromInt(int64(len(res.Details)))
	winRate = decimal.NewFromInt(int64(wins)).Div(total)
	if grossLosses.IsPositive() {
		profitFactor = grossWins.Div(grossLosses)
	} else if grossWins.IsPositive() {
		profitFactor = grossWins
	}
	return winRate, profitFactor, largestWin, largestLoss
}
