package cli

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"papertrade/internal/backtest"
	"papertrade/internal/export"
	"papertrade/internal/repository"
	"papertrade/strategies/smacross"
	"papertrade/types"
)

var backtestFlags struct {
	symbol    string
	timeframe string
	start     string
	end       string
	balance   string
	fast      int
	slow      int
	qty       string
	equityCSV string
	fillsCSV  string
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the SMA-cross strategy over stored candles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		interval, ok := types.ConvertInterval[backtestFlags.timeframe]
		if !ok {
			return fmt.Errorf("unknown timeframe %q", backtestFlags.timeframe)
		}
		start, err := parseTimeFlag(backtestFlags.start)
		if err != nil {
			return err
		}
		end, err := parseTimeFlag(backtestFlags.end)
		if err != nil {
			return err
		}
		if start == nil || end == nil {
			return fmt.Errorf("--start and --end are required")
		}
		balance, err := decimal.NewFromString(backtestFlags.balance)
		if err != nil {
			return fmt.Errorf("invalid balance %q", backtestFlags.balance)
		}
		commission, err := decimal.NewFromString(cfg.Backtest.Commission)
		if err != nil {
			return fmt.Errorf("invalid configured commission %q", cfg.Backtest.Commission)
		}
		slippage, err := decimal.NewFromString(cfg.Backtest.Slippage)
		if err != nil {
			return fmt.Errorf("invalid configured slippage %q", cfg.Backtest.Slippage)
		}
		qty, err := decimal.NewFromString(backtestFlags.qty)
		if err != nil {
			return fmt.Errorf("invalid qty %q", backtestFlags.qty)
		}

		db, err := repository.NewDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		strat := smacross.New(backtestFlags.fast, backtestFlags.slow, qty)
		res, err := backtest.Run(ctx, db, strat, backtest.Config{
			Symbol:         backtestFlags.symbol,
			Timeframe:      interval,
			Start:          *start,
			End:            *end,
			InitialBalance: balance,
			Commission:     commission,
			Slippage:       slippage,
			ShowProgress:   true,
		})
		if err != nil {
			return err
		}

		printSummary(res)

		if backtestFlags.equityCSV != "" {
			if err := export.WriteEquityCSVFile(backtestFlags.equityCSV, res.EquityCurve); err != nil {
				return err
			}
		}
		if backtestFlags.fillsCSV != "" {
			if err := export.WriteFillsCSVFile(backtestFlags.fillsCSV, res.Fills); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	backtestCmd.Flags().StringVar(&backtestFlags.symbol, "symbol", "", "symbol to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestFlags.timeframe, "timeframe", "D", "candle timeframe (1, 5, 60, D, ...)")
	backtestCmd.Flags().StringVar(&backtestFlags.start, "start", "", "start date (required)")
	backtestCmd.Flags().StringVar(&backtestFlags.end, "end", "", "end date (required)")
	backtestCmd.Flags().StringVar(&backtestFlags.balance, "balance", "10000", "initial balance")
	backtestCmd.Flags().IntVar(&backtestFlags.fast, "fast", 10, "fast SMA window")
	backtestCmd.Flags().IntVar(&backtestFlags.slow, "slow", 30, "slow SMA window")
	backtestCmd.Flags().StringVar(&backtestFlags.qty, "qty", "1", "quantity per entry")
	backtestCmd.Flags().StringVar(&backtestFlags.equityCSV, "equity-csv", "", "write the equity curve to this file")
	backtestCmd.Flags().StringVar(&backtestFlags.fillsCSV, "fills-csv", "", "write fills to this file")
	_ = backtestCmd.MarkFlagRequired("symbol")
}

func printSummary(res backtest.Result) {
	s := res.Summary
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.AppendBulk([][]string{
		{"Strategy", res.Strategy},
		{"Trades", fmt.Sprintf("%d", s.Trades)},
		{"Total Return", s.TotalReturn.StringFixed(10)},
		{"Pct Return", s.PctReturn.StringFixed(10)},
		{"Annualized Return", s.AnnualizedReturn.StringFixed(10)},
		{"Sharpe Ratio", s.SharpeRatio.StringFixed(10)},
		{"Max Drawdown", s.MaxDrawdown.StringFixed(10)},
		{"Win Rate", s.WinRate.StringFixed(10)},
		{"Profit Factor", s.ProfitFactor.StringFixed(10)},
		{"Largest Win", s.LargestWin.StringFixed(10)},
		{"Largest Loss", s.LargestLoss.StringFixed(10)},
		{"VaR 95", s.VaR95.StringFixed(10)},
		{"VaR 99", s.VaR99.StringFixed(10)},
		{"Final Equity", res.FinalEquity().StringFixed(10)},
	})
	table.Render()
}
