package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"backsim/types"
)

// ledger tracks cash, the single-instrument position, and the immutable
// fill log for one run. P&L recognition uses the weighted-average cost
// method: a reducing fill realizes (price - avgCost) * reduced quantity,
// never FIFO lot matching. Every update is derivable from the fill log, so
// rebuilding a fresh ledger over the log reproduces identical state.
type ledger struct {
	symbol string
	cash   decimal.Decimal

	quantity      decimal.Decimal // signed: positive long, negative short
	avgCost       decimal.Decimal
	lastPrice     decimal.Decimal
	grossRealized decimal.Decimal
	unrealized    decimal.Decimal

	totalCommissions decimal.Decimal
	totalSlippage    decimal.Decimal

	fills  []types.Fill
	trades []types.ClosedTrade

	// current round trip, valid while quantity is non-zero
	tripSide        types.Side
	tripEntry       decimal.Decimal
	tripQty         decimal.Decimal
	tripRealized    decimal.Decimal
	tripCommissions decimal.Decimal
	tripOpenedAt    time.Time
	tripOpenBar     int
}

func newLedger(symbol string, initialCash decimal.Decimal) *ledger {
	return &ledger{
		symbol: symbol,
		cash:   initialCash,
	}
}

// apply books one fill: cash moves by notional plus commission, the
// position follows the open/scale/reduce/flip transitions, and a round
// trip back to flat appends a ClosedTrade.
func (l *ledger) apply(fill types.Fill) {
	notional := fill.Price.Mul(fill.Quantity)
	if fill.Side == types.SideBuy {
		l.cash = l.cash.Sub(notional).Sub(fill.Commission)
	} else {
		l.cash = l.cash.Add(notional).Sub(fill.Commission)
	}
	l.totalCommissions = l.totalCommissions.Add(fill.Commission)
	l.totalSlippage = l.totalSlippage.Add(fill.Slippage)

	delta := fill.Quantity
	if fill.Side == types.SideSell {
		delta = delta.Neg()
	}

	oldQty := l.quantity
	newQty := oldQty.Add(delta)

	switch {
	case oldQty.IsZero():
		// open
		l.quantity = newQty
		l.avgCost = fill.Price
		l.openTrip(fill)

	case sameSide(oldQty, newQty):
		if newQty.Abs().GreaterThan(oldQty.Abs()) {
			// scale in
			l.avgCost = weightedAvg(l.avgCost, oldQty.Abs(), fill.Price, delta.Abs())
		} else {
			// partial reduction at average cost
			l.realize(fill.Price, delta.Abs())
		}
		l.quantity = newQty
		l.tripCommissions = l.tripCommissions.Add(fill.Commission)

	case newQty.IsZero():
		// full close
		l.realize(fill.Price, oldQty.Abs())
		l.tripCommissions = l.tripCommissions.Add(fill.Commission)
		l.closeTrip(fill)
		l.quantity = decimal.Zero
		l.avgCost = decimal.Zero

	default:
		// flip through flat: close the old trip at this price, the
		// remainder opens a new one. The fill's commission stays with the
		// closing trip.
		l.realize(fill.Price, oldQty.Abs())
		l.tripCommissions = l.tripCommissions.Add(fill.Commission)
		l.closeTrip(fill)
		l.quantity = newQty
		l.avgCost = fill.Price
		l.openTrip(fill)
		l.tripCommissions = decimal.Zero
	}

	l.lastPrice = fill.Price
	l.fills = append(l.fills, fill)
}

// realize books P&L for a reduction of qty units at the given price, using
// the current average cost. Sign follows the position direction.
func (l *ledger) realize(price, qty decimal.Decimal) {
	perUnit := price.Sub(l.avgCost)
	if l.quantity.IsNegative() {
		perUnit = perUnit.Neg()
	}
	pnl := perUnit.Mul(qty)
	l.grossRealized = l.grossRealized.Add(pnl)
	l.tripRealized = l.tripRealized.Add(pnl)
}

func (l *ledger) openTrip(fill types.Fill) {
	l.tripSide = fill.Side
	l.tripEntry = fill.Price
	l.tripQty = l.quantity.Abs()
	l.tripRealized = decimal.Zero
	l.tripCommissions = fill.Commission
	l.tripOpenedAt = fill.Time
	l.tripOpenBar = fill.BarIndex
}

func (l *ledger) closeTrip(fill types.Fill) {
	l.trades = append(l.trades, types.ClosedTrade{
		Symbol:      l.symbol,
		Side:        l.tripSide,
		Quantity:    l.tripQty,
		EntryPrice:  l.tripEntry,
		ExitPrice:   fill.Price,
		RealizedPnL: l.tripRealized.Sub(l.tripCommissions),
		OpenedAt:    l.tripOpenedAt,
		ClosedAt:    fill.Time,
		Bars:        fill.BarIndex - l.tripOpenBar,
	})
	l.tripRealized = decimal.Zero
	l.tripCommissions = decimal.Zero
}

// mark recomputes unrealized P&L against the bar close. Called once per
// bar whether or not anything filled.
func (l *ledger) mark(close decimal.Decimal) {
	l.lastPrice = close
	l.unrealized = close.Sub(l.avgCost).Mul(l.quantity)
}

// equity is cash plus position market value at the last mark.
func (l *ledger) equity() decimal.Decimal {
	return l.cash.Add(l.quantity.Mul(l.lastPrice))
}

func (l *ledger) position() types.PositionSnapshot {
	return types.PositionSnapshot{
		Symbol:        l.symbol,
		Quantity:      l.quantity,
		AvgCost:       l.avgCost,
		RealizedPnL:   l.grossRealized,
		UnrealizedPnL: l.unrealized,
		LastPrice:     l.lastPrice,
	}
}

func (l *ledger) view(t time.Time) types.PortfolioView {
	return types.PortfolioView{
		Cash:     l.cash,
		Equity:   l.equity(),
		Position: l.position(),
		Time:     t,
	}
}

// replayLedger rebuilds state from scratch over a fill log. Tests use it
// to assert that incremental updates never drift from the audit trail.
func replayLedger(symbol string, initialCash decimal.Decimal, fills []types.Fill) *ledger {
	l := newLedger(symbol, initialCash)
	for _, f := range fills {
		l.apply(f)
	}
	return l
}

func sameSide(a, b decimal.Decimal) bool {
	return (a.GreaterThan(decimal.Zero) && b.GreaterThan(decimal.Zero)) ||
		(a.LessThan(decimal.Zero) && b.LessThan(decimal.Zero))
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	if existingQty.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(existingQty.Add(newQty))
}
