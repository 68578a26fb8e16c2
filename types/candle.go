package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV observation for a fixed time interval. Candles are
// produced by a data provider and are read-only thereafter.
type Candle struct {
	Ticker    string          `json:"ticker"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  Interval        `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}
