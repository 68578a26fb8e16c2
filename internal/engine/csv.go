package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"backsim/types"
)

// WriteTradesCSVFile writes closed trades to a CSV file at the given path.
func WriteTradesCSVFile(path string, trades []types.ClosedTrade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return WriteTradesCSV(f, trades)
}

// WriteTradesCSV writes closed trades to any io.Writer as CSV. Pass
// os.Stdout for debugging, or a file.
func WriteTradesCSV(w io.Writer, trades []types.ClosedTrade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"trade_id",
		"symbol",
		"side",
		"quantity",
		"entry_price",
		"exit_price",
		"realized_pnl",
		"opened_at", // RFC3339
		"closed_at",
		"bars_held",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, tr := range trades {
		record := []string{
			fmt.Sprintf("%d", i),
			tr.Symbol,
			string(tr.Side),
			tr.Quantity.String(),
			tr.EntryPrice.String(),
			tr.ExitPrice.String(),
			tr.RealizedPnL.String(),
			tr.OpenedAt.Format(time.RFC3339),
			tr.ClosedAt.Format(time.RFC3339),
			fmt.Sprintf("%d", tr.Bars),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write trade %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
