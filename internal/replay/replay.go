// Package replay drives deterministic tick-by-tick simulations: it pulls
// ticks in time order, evaluates trigger rules against each one, places
// simulated orders on an account, and assembles an immutable run report.
package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"papertrade/internal/pnl"
	"papertrade/types"
)

var (
	ErrRunNotFound      = errors.New("run not found")
	ErrExecutionFailure = errors.New("order execution failed")
)

// TickSource yields the ordered tick sequence for a symbol and time range.
type TickSource interface {
	GetTicks(ctx context.Context, symbol string, from, to *time.Time) ([]types.Tick, error)
}

// TickSink receives every replayed tick so external consumers see the stream.
type TickSink interface {
	IngestTick(tick types.Tick)
}

// RunStore persists finished runs and retrieves them by id. GetRun returns
// an error wrapping ErrRunNotFound for unknown ids.
type RunStore interface {
	CreateRun(ctx context.Context, run types.Run) error
	GetRun(ctx context.Context, id string) (types.Run, error)
}

// Account is where simulated orders land: the in-memory ledger on the
// default path, or a persisted account behind an execution sink.
type Account interface {
	Init(ctx context.Context, balances []types.Balance, positions []types.Position) error
	PlaceOrder(ctx context.Context, symbol string, side types.Side, qty, price decimal.Decimal, ts time.Time) error
	Report(ctx context.Context) (types.RunReport, error)
}

// AccountFactory builds a fresh account per run. The persist flag selects
// the persisted execution path when the factory supports one.
type AccountFactory func(persist bool) Account

// Options configure one replay invocation.
type Options struct {
	Symbol         string
	From           *time.Time
	To             *time.Time
	Delay          time.Duration
	Rules          []types.Rule
	Persist        bool
	StartBalances  []types.Balance
	StartPositions []types.Position
}

type Runner struct {
	source     TickSource
	sink       TickSink
	runs       RunStore
	newAccount AccountFactory
}

// NewRunner wires a runner from its collaborators. sink and runs may be nil,
// disabling tick fan-out and run persistence respectively.
func NewRunner(source TickSource, sink TickSink, runs RunStore, newAccount AccountFactory) *Runner {
	return &Runner{source: source, sink: sink, runs: runs, newAccount: newAccount}
}

func defaultBalances() []types.Balance {
	return []types.Balance{{Asset: "USD", Amount: decimal.NewFromInt(10000)}}
}

// Run replays the configured tick range through the rule set and returns the
// completed run.
//
// A tick source failure is swallowed and reported as ticksPlayed 0: callers
// must treat an empty report as "no data", not as an error. Order execution
// failures are logged and skipped (log-and-continue); state committed for
// prior ticks is never rolled back. Cancellation is checked once per tick,
// so an aborted replay leaves the account consistent up to the last tick it
// finished.
func (r *Runner) Run(ctx context.Context, opts Options) (types.Run, error) {
	balances := opts.StartBalances
	if len(balances) == 0 {
		balances = defaultBalances()
	}

	account := r.newAccount(opts.Persist)
	if err := account.Init(ctx, balances, opts.StartPositions); err != nil {
		return types.Run{}, fmt.Errorf("init account: %w", err)
	}

	runLog := log.WithFields(log.Fields{"symbol": opts.Symbol, "rules": len(opts.Rules)})

	ticks, err := r.source.GetTicks(ctx, opts.Symbol, opts.From, opts.To)
	if err != nil {
		runLog.WithError(err).Warn("tick fetch failed, replaying zero ticks")
		ticks = nil
	}

	ordersPlaced := 0
	for _, tick := range ticks {
		if err := ctx.Err(); err != nil {
			return types.Run{}, err
		}

		if r.sink != nil {
			r.sink.IngestTick(tick)
		}

		for _, rule := range opts.Rules {
			if rule.Symbol != tick.Symbol || !rule.Matches(tick.Price) {
				continue
			}
			err := account.PlaceOrder(ctx, tick.Symbol, rule.Side(), rule.Qty, tick.Price, tick.Timestamp)
			if err != nil {
				runLog.WithError(err).WithField("price", tick.Price).Warn("order rejected, continuing run")
				continue
			}
			ordersPlaced++
		}

		if opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				return types.Run{}, err
			}
		}
	}

	report, err := account.Report(ctx)
	if err != nil {
		return types.Run{}, fmt.Errorf("assemble report: %w", err)
	}
	report.TicksPlayed = len(ticks)
	report.OrdersPlaced = ordersPlaced

	run := types.Run{
		ID:        uuid.NewString(),
		Params:    runParams(opts, balances),
		Report:    report,
		Status:    types.RunStatusCompleted,
		CreatedAt: time.Now().UTC(),
	}

	if opts.Persist && r.runs != nil {
		if err := r.runs.CreateRun(ctx, run); err != nil {
			return types.Run{}, fmt.Errorf("persist run: %w", err)
		}
	}

	runLog.WithFields(log.Fields{
		"run":    run.ID,
		"ticks":  report.TicksPlayed,
		"orders": report.OrdersPlaced,
	}).Info("replay finished")
	return run, nil
}

// GetRun fetches a persisted run by id.
func (r *Runner) GetRun(ctx context.Context, id string) (types.Run, error) {
	if r.runs == nil {
		return types.Run{}, ErrRunNotFound
	}
	return r.runs.GetRun(ctx, id)
}

// MetricsForRun loads a persisted run and derives its equity-series metrics.
func (r *Runner) MetricsForRun(ctx context.Context, id string) (pnl.Metrics, error) {
	run, err := r.GetRun(ctx, id)
	if err != nil {
		return pnl.Metrics{}, err
	}
	return pnl.ComputeMetrics(run.Report.Fills, run.Params.InitialCapital), nil
}

func runParams(opts Options, balances []types.Balance) types.RunParams {
	capital := decimal.Zero
	for _, b := range balances {
		if b.Asset == "USD" {
			capital = b.Amount
			break
		}
	}
	return types.RunParams{
		Symbol:         opts.Symbol,
		From:           opts.From,
		To:             opts.To,
		DelayMs:        opts.Delay.Milliseconds(),
		Rules:          opts.Rules,
		Persist:        opts.Persist,
		InitialCapital: capital,
		StartBalances:  opts.StartBalances,
		StartPositions: opts.StartPositions,
	}
}

// sleep paces tick consumption without blocking cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
