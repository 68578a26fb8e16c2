package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"backsim/types"
)

func testRow(ts time.Time, open, high, low, close, volume int64) candleRow {
	return candleRow{
		bucket: ts,
		open:   decimal.NewFromInt(open),
		high:   decimal.NewFromInt(high),
		low:    decimal.NewFromInt(low),
		close:  decimal.NewFromInt(close),
		volume: decimal.NewFromInt(volume),
	}
}

func TestGetCandles(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	rows := []candleRow{
		testRow(start, 100, 110, 95, 105, 5000),
		testRow(start.Add(24*time.Hour), 105, 112, 104, 111, 4200),
	}

	tests := []struct {
		name     string
		interval types.Interval
		querier  *mockCandleQuerier
		wantErr  error
		wantLen  int
	}{
		{
			name:     "daily candles",
			interval: types.Day,
			querier:  &mockCandleQuerier{rows: rows},
			wantLen:  2,
		},
		{
			name:     "unsupported interval",
			interval: "3D",
			querier:  &mockCandleQuerier{rows: rows},
			wantErr:  ErrIntervalNotSupported,
		},
		{
			name:     "empty result",
			interval: types.Day,
			querier:  &mockCandleQuerier{},
			wantErr:  ErrNoCandles,
		},
		{
			name:     "no rows from driver",
			interval: types.Day,
			querier:  &mockCandleQuerier{err: pgx.ErrNoRows},
			wantErr:  ErrNoCandles,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{candles: tt.querier}
			candles, err := db.GetCandles(context.Background(), 7, "AAPL", tt.interval, start, end)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetCandles() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(candles) != tt.wantLen {
				t.Fatalf("candles = %d, want %d", len(candles), tt.wantLen)
			}
			first := candles[0]
			if first.Ticker != "AAPL" || first.Interval != types.Day {
				t.Errorf("candle = %+v", first)
			}
			if !first.Open.Equal(decimal.NewFromInt(100)) || !first.Close.Equal(decimal.NewFromInt(105)) {
				t.Errorf("ohlc = %s/%s", first.Open, first.Close)
			}
			if !first.Timestamp.Equal(start) {
				t.Errorf("timestamp = %s, want %s", first.Timestamp, start)
			}
		})
	}
}

func TestGetCandlesBucketMapping(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	tests := []struct {
		interval types.Interval
		bucket   string
	}{
		{types.OneMinute, "1 minute"},
		{types.Hour, "1 hour"},
		{types.Day, "1 day"},
		{types.Week, "1 week"},
	}
	for _, tt := range tests {
		t.Run(string(tt.interval), func(t *testing.T) {
			querier := &mockCandleQuerier{rows: []candleRow{testRow(start, 1, 1, 1, 1, 1)}}
			db := &Database{candles: querier}
			if _, err := db.GetCandles(context.Background(), 1, "AAPL", tt.interval, start, end); err != nil {
				t.Fatalf("GetCandles() error = %v", err)
			}
			if querier.gotBucket != tt.bucket {
				t.Errorf("bucket = %q, want %q", querier.gotBucket, tt.bucket)
			}
			if !querier.gotStart.Equal(start) || !querier.gotEnd.Equal(end) {
				t.Errorf("range = [%s, %s), want [%s, %s)", querier.gotStart, querier.gotEnd, start, end)
			}
		})
	}
}
