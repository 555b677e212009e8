// Package export renders fill histories and equity series to CSV for
// downstream tooling. Rows are plain comma-joined values, decimals fixed to
// 10 fractional digits.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"papertrade/internal/pnl"
	"papertrade/types"
)

// WriteFillsCSVFile writes a fill history to a CSV file at the given path.
func WriteFillsCSVFile(path string, fills []types.Fill) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fills file: %w", err)
	}
	defer f.Close()

	return WriteFillsCSV(f, fills)
}

// WriteFillsCSV writes fills to any io.Writer as CSV with the header
// id,symbol,qty,price,ts. Pass os.Stdout for debugging, or a file.
func WriteFillsCSV(w io.Writer, fills []types.Fill) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"id", "symbol", "qty", "price", "ts"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, fill := range fills {
		record := []string{
			fill.ID,
			fill.Symbol,
			fill.Qty.StringFixed(10),
			fill.Price.StringFixed(10),
			fill.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteEquityCSVFile writes an equity series to a CSV file at the given path.
func WriteEquityCSVFile(path string, series []pnl.EquityPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity file: %w", err)
	}
	defer f.Close()

	return WriteEquityCSV(f, series)
}

// WriteEquityCSV writes the equity/P&L time series with the header ts,equity.
func WriteEquityCSV(w io.Writer, series []pnl.EquityPoint) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"ts", "equity"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range series {
		record := []string{
			p.Timestamp.UTC().Format(time.RFC3339),
			p.Equity.StringFixed(10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
