package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"papertrade/internal/pnl"
	"papertrade/internal/repository"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect persisted backtest runs",
}

var runsListLimit int

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := repository.NewDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(ctx, runsListLimit)
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Symbol", "Status", "Created"})
		for _, run := range runs {
			table.Append([]string{
				run.ID,
				run.Params.Symbol,
				string(run.Status),
				run.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		table.Render()
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run's report and derived metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := repository.NewDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := db.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		printRun(run)

		metrics := pnl.ComputeMetrics(run.Report.Fills, run.Params.InitialCapital)
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Metric", "Value"})
		table.AppendBulk([][]string{
			{"Trades", fmt.Sprintf("%d", metrics.Trades)},
			{"Initial Capital", metrics.InitialCapital.StringFixed(10)},
			{"Final Equity", metrics.FinalEquity.StringFixed(10)},
			{"Total Return", metrics.TotalReturn.StringFixed(10)},
			{"Pct Return", metrics.PctReturn.StringFixed(10)},
			{"Annualized Return", metrics.AnnualizedReturn.StringFixed(10)},
			{"Max Drawdown", metrics.MaxDrawdown.StringFixed(10)},
		})
		table.Render()
		return nil
	},
}

func init() {
	runsListCmd.Flags().IntVar(&runsListLimit, "limit", 50, "max runs to list")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}
