package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

type OrderKind string

type OrderStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"

	KindMarket OrderKind = "MARKET"
	KindLimit  OrderKind = "LIMIT"
	KindStop   OrderKind = "STOP"

	OrderPending   OrderStatus = "PENDING"
	OrderFilled    OrderStatus = "FILLED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRejected  OrderStatus = "REJECTED"
)

// Order is a working or historical order. IDs increase monotonically in
// submission order within one engine run. An order is mutated only by the
// order book until it reaches a terminal status; after that it is part of
// read-only history.
type Order struct {
	ID             int64           `json:"id"`
	Symbol         string          `json:"symbol"`
	Side           Side            `json:"side"`
	Kind           OrderKind       `json:"kind"`
	Quantity       decimal.Decimal `json:"quantity"`
	LimitPrice     decimal.Decimal `json:"limitPrice"`
	StopPrice      decimal.Decimal `json:"stopPrice"`
	Status         OrderStatus     `json:"status"`
	SubmittedAtBar int             `json:"submittedAtBar"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Terminal reports whether the order can no longer change state.
func (o *Order) Terminal() bool {
	return o.Status == OrderFilled || o.Status == OrderCancelled || o.Status == OrderRejected
}

// OrderSpec is the strategy-facing order submission request. The engine
// assigns the id, status, and bar index.
type OrderSpec struct {
	Side       Side
	Kind       OrderKind
	Quantity   decimal.Decimal
	LimitPrice decimal.Decimal
	StopPrice  decimal.Decimal
}
