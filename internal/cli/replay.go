package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"papertrade/internal/ledger"
	"papertrade/internal/marketdata"
	"papertrade/internal/repository"
	"papertrade/internal/replay"
	"papertrade/types"
)

var replayFlags struct {
	symbol  string
	from    string
	to      string
	delayMs int64
	persist bool
	rules   []string
	balance string
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay persisted ticks through a rule set",
	Example: `  papertrade replay --symbol BTCUSD \
      --rule buy_below:65000:0.1 --rule sell_above:70000:0.1 \
      --from 2024-01-01 --to 2024-02-01 --persist`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rules, err := parseRules(replayFlags.rules)
		if err != nil {
			return err
		}
		startBalance, err := ledger.ParseBalance(ledger.BaseCurrency, replayFlags.balance)
		if err != nil {
			return err
		}
		from, err := parseTimeFlag(replayFlags.from)
		if err != nil {
			return err
		}
		to, err := parseTimeFlag(replayFlags.to)
		if err != nil {
			return err
		}

		db, err := repository.NewDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}

		feed := marketdata.NewFeed(db, db)
		runner := replay.NewRunner(feed, feed, db, func(bool) replay.Account {
			return replay.NewLedgerAccount()
		})

		run, err := runner.Run(ctx, replay.Options{
			Symbol:        replayFlags.symbol,
			From:          from,
			To:            to,
			Delay:         time.Duration(replayFlags.delayMs) * time.Millisecond,
			Rules:         rules,
			Persist:       replayFlags.persist,
			StartBalances: []types.Balance{startBalance},
		})
		if err != nil {
			return err
		}

		printRun(run)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayFlags.symbol, "symbol", "", "symbol to replay (required)")
	replayCmd.Flags().StringVar(&replayFlags.from, "from", "", "range start (RFC3339 or YYYY-MM-DD)")
	replayCmd.Flags().StringVar(&replayFlags.to, "to", "", "range end (RFC3339 or YYYY-MM-DD)")
	replayCmd.Flags().Int64Var(&replayFlags.delayMs, "delay-ms", 0, "pause between ticks in milliseconds")
	replayCmd.Flags().BoolVar(&replayFlags.persist, "persist", false, "persist the finished run")
	replayCmd.Flags().StringArrayVar(&replayFlags.rules, "rule", nil, "rule as kind:threshold:qty, e.g. buy_below:100:1")
	replayCmd.Flags().StringVar(&replayFlags.balance, "balance", "10000", "starting USD balance")
	_ = replayCmd.MarkFlagRequired("symbol")
}

// parseRules turns kind:threshold:qty flag values into typed rules.
func parseRules(raw []string) ([]types.Rule, error) {
	rules := make([]types.Rule, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("rule %q: want kind:threshold:qty", r)
		}
		threshold, err := decimal.NewFromString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("rule %q threshold: %w", r, ledger.ErrInvalidDecimal)
		}
		qty, err := decimal.NewFromString(parts[2])
		if err != nil {
			return nil, fmt.Errorf("rule %q qty: %w", r, ledger.ErrInvalidDecimal)
		}

		switch types.RuleKind(parts[0]) {
		case types.RuleBuyBelow:
			rules = append(rules, types.NewBuyBelow(replayFlags.symbol, threshold, qty))
		case types.RuleSellAbove:
			rules = append(rules, types.NewSellAbove(replayFlags.symbol, threshold, qty))
		default:
			return nil, fmt.Errorf("rule %q: unknown kind %q", r, parts[0])
		}
	}
	return rules, nil
}

func parseTimeFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid time %q: want RFC3339 or YYYY-MM-DD", s)
}

func printRun(run types.Run) {
	fmt.Printf("Run %s: %d ticks played, %d orders placed\n",
		run.ID, run.Report.TicksPlayed, run.Report.OrdersPlaced)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Asset", "Balance"})
	for _, b := range run.Report.Balances {
		table.Append([]string{b.Asset, b.Amount.StringFixed(10)})
	}
	table.Render()

	if len(run.Report.Positions) > 0 {
		posTable := tablewriter.NewWriter(os.Stdout)
		posTable.SetHeader([]string{"Symbol", "Qty", "Avg Price"})
		for _, p := range run.Report.Positions {
			posTable.Append([]string{p.Symbol, p.Qty.StringFixed(10), p.AvgPrice.StringFixed(10)})
		}
		posTable.Render()
	}
}
