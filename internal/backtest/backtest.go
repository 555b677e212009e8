// Package backtest is the coarser-grained simulator: it walks OHLCV candles
// through a pluggable strategy, executes signals with commission and slippage,
// and produces an equity curve plus summary statistics.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"papertrade/internal/ledger"
	"papertrade/internal/pnl"
	"papertrade/types"
)

var ErrNoCandles = errors.New("no candles found")

type CandleSource interface {
	GetCandles(ctx context.Context, symbol string, interval types.Interval, from, to time.Time) ([]types.Candle, error)
}

// Signal is a strategy's instruction for the current candle.
type Signal struct {
	Side   types.Side
	Qty    decimal.Decimal
	Reason string
}

// Strategy sees each closed candle, the history up to and including it, and
// the current position, and may emit one signal.
type Strategy interface {
	Name() string
	OnCandle(candle types.Candle, history []types.Candle, position types.Position) *Signal
}

type Config struct {
	Symbol         string
	Timeframe      types.Interval
	Start          time.Time
	End            time.Time
	InitialBalance decimal.Decimal
	// Commission is a rate on traded notional (0.001 = 10 bps).
	Commission decimal.Decimal
	// Slippage is a rate applied against the trader: buys fill above the
	// close, sells below it.
	Slippage     decimal.Decimal
	ShowProgress bool
}

type Result struct {
	Strategy    string
	Config      Config
	EquityCurve []pnl.EquityPoint
	Fills       []types.Fill
	Summary     Summary
}

// Run executes one candle-driven backtest. Candles are processed strictly in
// ascending timestamp order as returned by the source.
func Run(ctx context.Context, source CandleSource, strat Strategy, cfg Config) (Result, error) {
	if cfg.InitialBalance.IsZero() {
		cfg.InitialBalance = pnl.DefaultInitialCapital
	}

	candles, err := source.GetCandles(ctx, cfg.Symbol, cfg.Timeframe, cfg.Start, cfg.End)
	if err != nil {
		return Result{}, fmt.Errorf("load candles %s: %w", cfg.Symbol, err)
	}
	if len(candles) == 0 {
		return Result{}, fmt.Errorf("load candles %s: %w", cfg.Symbol, ErrNoCandles)
	}

	book := ledger.New()
	book.InitBalances([]types.Balance{{Asset: ledger.BaseCurrency, Amount: cfg.InitialBalance}})

	var bar *progressbar.ProgressBar
	if cfg.ShowProgress {
		bar = initProgressBar(len(candles))
	}

	curve := make([]pnl.EquityPoint, 0, len(candles))
	for i, candle := range candles {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		if sig := strat.OnCandle(candle, candles[:i+1], book.GetPosition(cfg.Symbol)); sig != nil {
			executeSignal(book, cfg, candle, *sig)
		}

		equity := book.GetBalance(ledger.BaseCurrency).Amount.
			Add(book.GetPosition(cfg.Symbol).Qty.Mul(candle.Close))
		curve = append(curve, pnl.EquityPoint{Timestamp: candle.Timestamp, Equity: equity})

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	fills := book.Fills()
	summary := summarize(cfg, curve, fills)
	log.WithFields(log.Fields{
		"strategy": strat.Name(),
		"symbol":   cfg.Symbol,
		"candles":  len(candles),
		"fills":    len(fills),
	}).Info("backtest finished")

	return Result{
		Strategy:    strat.Name(),
		Config:      cfg,
		EquityCurve: curve,
		Fills:       fills,
		Summary:     summary,
	}, nil
}

func executeSignal(book *ledger.Ledger, cfg Config, candle types.Candle, sig Signal) {
	if sig.Qty.IsZero() {
		return
	}

	qty := sig.Qty
	price := candle.Close
	one := decimal.NewFromInt(1)
	switch sig.Side {
	case types.SideTypeBuy:
		price = price.Mul(one.Add(cfg.Slippage))
	case types.SideTypeSell:
		price = price.Mul(one.Sub(cfg.Slippage))
		qty = qty.Neg()
	default:
		return
	}

	fee := price.Mul(sig.Qty).Abs().Mul(cfg.Commission)
	book.PlaceFillAt(cfg.Symbol, qty, price, fee, candle.Timestamp)
}

func (r Result) FinalEquity() decimal.Decimal {
	if len(r.EquityCurve) == 0 {
		return r.Config.InitialBalance
	}
	return r.EquityCurve[len(r.EquityCurve)-1].Equity
}

func initProgressBar(candleCount int) *progressbar.ProgressBar {
	return progressbar.NewOptions(candleCount,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
