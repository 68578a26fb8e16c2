package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"backsim/types"
)

// SlippageMode selects how the configured slippage value is applied to a
// fill price. Slippage always works against the trader: buys pay more,
// sells receive less.
type SlippageMode string

const (
	SlippageNone         SlippageMode = "none"
	SlippageFixed        SlippageMode = "fixed"        // absolute price offset
	SlippageProportional SlippageMode = "proportional" // fraction of fill price
)

// CostModel holds the commission and slippage parameters applied to every
// fill before it reaches the ledger.
type CostModel struct {
	CommissionRate decimal.Decimal
	SlippageMode   SlippageMode
	SlippageValue  decimal.Decimal
}

// orderBook owns all pending orders for one engine run. Orders are matched
// in submission order (FIFO) so fills on the same bar have a deterministic
// tie-break. Partial fills are not modelled: an order either fills in full
// on a qualifying bar or stays pending.
type orderBook struct {
	orders []*types.Order // submission order, includes terminal orders
	byID   map[int64]*types.Order
	nextID int64
	costs  CostModel
}

func newOrderBook(costs CostModel) *orderBook {
	return &orderBook{
		byID:   make(map[int64]*types.Order),
		nextID: 1,
		costs:  costs,
	}
}

// submit validates the spec and registers a pending order. The returned id
// increases monotonically with submission order.
func (b *orderBook) submit(spec types.OrderSpec, symbol string, barIndex int, now time.Time) (int64, error) {
	if !spec.Quantity.IsPositive() {
		return 0, fmt.Errorf("quantity %s must be positive: %w", spec.Quantity, InvalidOrderErr)
	}
	if spec.Side != types.SideBuy && spec.Side != types.SideSell {
		return 0, fmt.Errorf("unknown side %q: %w", spec.Side, InvalidOrderErr)
	}
	switch spec.Kind {
	case types.KindMarket:
	case types.KindLimit:
		if !spec.LimitPrice.IsPositive() {
			return 0, fmt.Errorf("limit order requires a positive limit price: %w", InvalidOrderErr)
		}
	case types.KindStop:
		if !spec.StopPrice.IsPositive() {
			return 0, fmt.Errorf("stop order requires a positive stop price: %w", InvalidOrderErr)
		}
	default:
		return 0, fmt.Errorf("unknown order kind %q: %w", spec.Kind, InvalidOrderErr)
	}

	order := &types.Order{
		ID:             b.nextID,
		Symbol:         symbol,
		Side:           spec.Side,
		Kind:           spec.Kind,
		Quantity:       spec.Quantity,
		LimitPrice:     spec.LimitPrice,
		StopPrice:      spec.StopPrice,
		Status:         types.OrderPending,
		SubmittedAtBar: barIndex,
		CreatedAt:      now,
	}
	b.nextID++
	b.orders = append(b.orders, order)
	b.byID[order.ID] = order
	return order.ID, nil
}

// cancel transitions a pending order to cancelled. Cancelling an unknown
// or terminal order fails with OrderNotFoundErr.
func (b *orderBook) cancel(id int64) error {
	order, ok := b.byID[id]
	if !ok || order.Terminal() {
		return fmt.Errorf("order %d: %w", id, OrderNotFoundErr)
	}
	order.Status = types.OrderCancelled
	return nil
}

// match resolves every pending order against the candle, in submission
// order, and returns the resulting fills. Matching rules:
//
//   - MARKET fills at the bar open, unconditionally.
//   - LIMIT BUY fills at min(limit, high) when low <= limit.
//     LIMIT SELL fills at max(limit, low) when high >= limit.
//   - STOP BUY triggers when high >= stop, STOP SELL when low <= stop;
//     the fill price is the stop clamped into [low, high].
func (b *orderBook) match(candle types.Candle, barIndex int) []types.Fill {
	var fills []types.Fill
	for _, order := range b.orders {
		if order.Status != types.OrderPending {
			continue
		}

		price, ok := matchPrice(order, candle)
		if !ok {
			continue
		}

		price, slip := b.applySlippage(order.Side, price)
		notional := price.Mul(order.Quantity)
		commission := notional.Mul(b.costs.CommissionRate)

		order.Status = types.OrderFilled
		fills = append(fills, types.NewFill(
			order.ID,
			order.Side,
			price,
			order.Quantity,
			commission,
			slip.Mul(order.Quantity),
			barIndex,
			candle.Timestamp,
		))
	}
	return fills
}

func matchPrice(order *types.Order, candle types.Candle) (decimal.Decimal, bool) {
	switch order.Kind {
	case types.KindMarket:
		return candle.Open, true

	case types.KindLimit:
		if order.Side == types.SideBuy {
			if candle.Low.LessThanOrEqual(order.LimitPrice) {
				return decimal.Min(order.LimitPrice, candle.High), true
			}
			return decimal.Zero, false
		}
		if candle.High.GreaterThanOrEqual(order.LimitPrice) {
			return decimal.Max(order.LimitPrice, candle.Low), true
		}
		return decimal.Zero, false

	case types.KindStop:
		if order.Side == types.SideBuy {
			if candle.High.GreaterThanOrEqual(order.StopPrice) {
				return clamp(order.StopPrice, candle.Low, candle.High), true
			}
			return decimal.Zero, false
		}
		if candle.Low.LessThanOrEqual(order.StopPrice) {
			return clamp(order.StopPrice, candle.Low, candle.High), true
		}
		return decimal.Zero, false
	}
	return decimal.Zero, false
}

// applySlippage shifts the fill price against the trader and returns the
// adjusted price plus the per-unit concession.
func (b *orderBook) applySlippage(side types.Side, price decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	var offset decimal.Decimal
	switch b.costs.SlippageMode {
	case SlippageFixed:
		offset = b.costs.SlippageValue
	case SlippageProportional:
		offset = price.Mul(b.costs.SlippageValue)
	default:
		return price, decimal.Zero
	}

	if side == types.SideBuy {
		return price.Add(offset), offset
	}
	return price.Sub(offset), offset
}

// pendingCount reports the number of live orders, used by snapshots.
func (b *orderBook) pendingCount() int {
	n := 0
	for _, o := range b.orders {
		if o.Status == types.OrderPending {
			n++
		}
	}
	return n
}

// history returns copies of all orders in submission order.
func (b *orderBook) history() []types.Order {
	out := make([]types.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, *o)
	}
	return out
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
