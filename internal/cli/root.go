// Package cli wires the cobra command tree for the papertrade binary.
package cli

import (
	"context"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"papertrade/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "Deterministic backtest replay and accounting engine",
	Long: `papertrade replays historical price ticks through trigger rules,
keeps a decimal ledger of balances and positions, and computes
realized/unrealized P&L with FIFO lot matching.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env files are fine; explicit config errors are not.
		_ = godotenv.Load()

		path := cfgFile
		if path == "" {
			path = "papertrade.yaml"
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}

		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = log.InfoLevel
		}
		log.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default papertrade.yaml when present)")

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(exportCmd)
}

// ExecuteContext runs the root command under the given context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
