package cli

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"papertrade/internal/export"
	"papertrade/internal/pnl"
	"papertrade/internal/repository"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data from a persisted run as CSV",
}

var exportOut string

var exportFillsCmd = &cobra.Command{
	Use:   "fills <run-id>",
	Short: "Export a run's fills",
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
		if exportOut == "" {
			return export.WriteFillsCSV(os.Stdout, run.Report.Fills)
		}
		if err := export.WriteFillsCSVFile(exportOut, run.Report.Fills); err != nil {
			return err
		}
		log.WithFields(log.Fields{"run": run.ID, "file": exportOut}).Info("fills exported")
		return nil
	},
}

var exportEquityCmd = &cobra.Command{
	Use:   "equity <run-id>",
	Short: "Export a run's equity curve",
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
		metrics := pnl.ComputeMetrics(run.Report.Fills, run.Params.InitialCapital)
		if exportOut == "" {
			return export.WriteEquityCSV(os.Stdout, metrics.PnlSeries)
		}
		if err := export.WriteEquityCSVFile(exportOut, metrics.PnlSeries); err != nil {
			return err
		}
		log.WithFields(log.Fields{"run": run.ID, "file": exportOut}).Info("equity curve exported")
		return nil
	},
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.AddCommand(exportFillsCmd)
	exportCmd.AddCommand(exportEquityCmd)
}
