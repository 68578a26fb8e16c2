package engine

import (
	"github.com/shopspring/decimal"

	"backsim/types"
)

// Strategy is the pluggable per-bar callback. Init receives the TradeAPI
// capability once before the first bar; OnCandle runs once per bar and may
// submit or cancel orders through the capability. Strategies never touch
// engine state directly, and an OnCandle error is absorbed as a diagnostic
// rather than aborting the run.
type Strategy interface {
	Name() string
	Init(api TradeAPI) error
	OnCandle(candle types.Candle) error
}

// TradeAPI is the capability handed to strategies: read access to engine
// state and synchronous order submission. Calls are only valid inside the
// strategy callback.
type TradeAPI interface {
	// Submit validates and registers an order for matching, starting with
	// the current bar. Returns InvalidOrderErr on malformed input.
	Submit(spec types.OrderSpec) (int64, error)

	// Cancel transitions a pending order to cancelled. Returns
	// OrderNotFoundErr for unknown or terminal ids.
	Cancel(id int64) error

	// Position returns the current position snapshot.
	Position() types.PositionSnapshot

	// History returns up to n most recent candles, oldest first, including
	// the current bar.
	History(n int) []types.Candle

	Cash() decimal.Decimal
	Equity() decimal.Decimal
}
