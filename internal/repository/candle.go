package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"backsim/types"
)

var bucketToInterval = map[types.Interval]string{
	types.OneMinute:      "1 minute",
	types.FiveMinutes:    "5 minutes",
	types.FifteenMinutes: "15 minutes",
	types.ThirtyMinutes:  "30 minutes",
	types.Hour:           "1 hour",
	types.FourHours:      "4 hours",
	types.Day:            "1 day",
	types.Week:           "1 week",
}

// GetCandles returns aggregated candles for an asset over [start, end),
// ordered by timestamp. An empty result is ErrNoCandles — a run cannot
// start without data.
func (db *Database) GetCandles(ctx context.Context, assetID int, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	bucket, ok := bucketToInterval[interval]
	if !ok {
		return nil, ErrIntervalNotSupported
	}

	rows, err := db.candles.getAggregates(ctx, assetID, bucket, start, end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCandles
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoCandles
	}
	return convertCandles(rows, interval, ticker), nil
}

func convertCandles(rows []candleRow, interval types.Interval, ticker string) []types.Candle {
	var candles []types.Candle
	for _, row := range rows {
		candles = append(candles, types.Candle{
			Ticker:    ticker,
			Open:      row.open,
			High:      row.high,
			Low:       row.low,
			Close:     row.close,
			Volume:    row.volume,
			Interval:  interval,
			Timestamp: row.bucket,
		})
	}
	return candles
}
