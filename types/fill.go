package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fill is the execution of a full order against one bar. Fills are
// immutable and append-only; the fill log is the audit trail from which
// position and cash can be rebuilt from scratch.
type Fill struct {
	OrderID    int64           `json:"orderId"`
	Side       Side            `json:"side"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Commission decimal.Decimal `json:"commission"`
	Slippage   decimal.Decimal `json:"slippage"`
	BarIndex   int             `json:"barIndex"`
	Time       time.Time       `json:"time"`
}

func NewFill(orderID int64, side Side, price, qty, commission, slippage decimal.Decimal, barIndex int, t time.Time) Fill {
	return Fill{
		OrderID:    orderID,
		Side:       side,
		Price:      price,
		Quantity:   qty,
		Commission: commission,
		Slippage:   slippage,
		BarIndex:   barIndex,
		Time:       t,
	}
}
