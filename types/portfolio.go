package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionSnapshot is a read-only copy of the single-instrument position.
// Quantity is signed: positive long, negative short.
type PositionSnapshot struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgCost       decimal.Decimal `json:"avgCost"`
	RealizedPnL   decimal.Decimal `json:"realizedPnl"`
	UnrealizedPnL decimal.Decimal `json:"unrealizedPnl"`
	LastPrice     decimal.Decimal `json:"lastPrice"`
}

// PortfolioView is a point-in-time view of cash, marked equity, and the
// position. Equity = cash + quantity * last mark.
type PortfolioView struct {
	Cash     decimal.Decimal  `json:"cash"`
	Equity   decimal.Decimal  `json:"equity"`
	Position PositionSnapshot `json:"position"`
	Time     time.Time        `json:"time"`
}

// EquityPoint is one entry of the equity curve, recorded after every bar.
// Drawdown is the fractional decline from the running equity peak.
type EquityPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Equity    decimal.Decimal `json:"equity"`
	Cash      decimal.Decimal `json:"cash"`
	Drawdown  decimal.Decimal `json:"drawdown"`
}

// ClosedTrade is one completed round trip, opened when the position leaves
// flat and closed when it returns to flat (or flips through it).
// RealizedPnL is net of the commissions paid on the round trip's fills.
type ClosedTrade struct {
	Symbol      string          `json:"symbol"`
	Side        Side            `json:"side"` // side of the opening fill
	Quantity    decimal.Decimal `json:"quantity"`
	EntryPrice  decimal.Decimal `json:"entryPrice"`
	ExitPrice   decimal.Decimal `json:"exitPrice"`
	RealizedPnL decimal.Decimal `json:"realizedPnl"`
	OpenedAt    time.Time       `json:"openedAt"`
	ClosedAt    time.Time       `json:"closedAt"`
	Bars        int             `json:"bars"`
}

// Metrics are derived from the equity curve and closed trades alone and
// are recomputable without re-running the engine.
type Metrics struct {
	TotalReturn   decimal.Decimal `json:"totalReturn"`
	AnnualReturn  decimal.Decimal `json:"annualReturn"`
	Volatility    decimal.Decimal `json:"volatility"`
	SharpeRatio   decimal.Decimal `json:"sharpeRatio"`
	MaxDrawdown   decimal.Decimal `json:"maxDrawdown"`
	WinRate       decimal.Decimal `json:"winRate"`
	TradeCount    int             `json:"tradeCount"`
	WinningTrades int             `json:"winningTrades"`
}
