package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"backsim/types"
)

// LoadCandlesCSVFile reads candles from a CSV file. The expected layout is
// a header row followed by timestamp,open,high,low,close,volume rows with
// RFC3339 or unix-second timestamps.
func LoadCandlesCSVFile(path, ticker string, interval types.Interval) ([]types.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles file: %w", err)
	}
	defer f.Close()

	return LoadCandlesCSV(f, ticker, interval)
}

// LoadCandlesCSV reads candles from any io.Reader.
func LoadCandlesCSV(r io.Reader, ticker string, interval types.Interval) ([]types.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read candles csv: %w", err)
	}
	if len(records) <= 1 {
		return nil, ErrNoCandles
	}

	// Skip the header row.
	var candles []types.Candle
	for i, rec := range records[1:] {
		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		fields := make([]decimal.Decimal, 5)
		for j, raw := range rec[1:] {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d field %d: %w", i+1, j+1, err)
			}
			fields[j] = d
		}
		candles = append(candles, types.Candle{
			Ticker:    ticker,
			Open:      fields[0],
			High:      fields[1],
			Low:       fields[2],
			Close:     fields[3],
			Volume:    fields[4],
			Interval:  interval,
			Timestamp: ts,
		})
	}
	return candles, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
	}
	return time.Unix(secs, 0).UTC(), nil
}
