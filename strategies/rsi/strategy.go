// Package rsi implements a relative-strength-index reversal strategy: buy
// when RSI crosses back above the oversold level, exit when it crosses
// back below the overbought level.
package rsi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"backsim/internal/engine"
	"backsim/types"
)

var positionFraction = decimal.NewFromFloat(0.95)

type Strategy struct {
	period     int
	oversold   decimal.Decimal
	overbought decimal.Decimal

	api    engine.TradeAPI
	closes []decimal.Decimal
}

func New(period int, oversold, overbought float64) (*Strategy, error) {
	if period < 1 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	if oversold >= overbought {
		return nil, fmt.Errorf("oversold %v must be below overbought %v", oversold, overbought)
	}
	return &Strategy{
		period:     period,
		oversold:   decimal.NewFromFloat(oversold),
		overbought: decimal.NewFromFloat(overbought),
	}, nil
}

func (s *Strategy) Name() string {
	return "rsi"
}

func (s *Strategy) Init(api engine.TradeAPI) error {
	s.api = api
	s.closes = nil
	return nil
}

func (s *Strategy) OnCandle(candle types.Candle) error {
	s.closes = append(s.closes, candle.Close)
	if len(s.closes) < s.period+2 {
		return nil
	}

	cur := relativeStrength(s.closes, s.period)
	prev := relativeStrength(s.closes[:len(s.closes)-1], s.period)

	crossedAboveOversold := prev.LessThanOrEqual(s.oversold) && cur.GreaterThan(s.oversold)
	crossedBelowOverbought := prev.GreaterThanOrEqual(s.overbought) && cur.LessThan(s.overbought)

	pos := s.api.Position()

	switch {
	case crossedAboveOversold && !pos.Quantity.IsPositive():
		if pos.Quantity.IsNegative() {
			if _, err := s.marketOrder(types.SideBuy, pos.Quantity.Abs()); err != nil {
				return err
			}
		}
		qty := quantityFor(candle.Close, s.api.Cash().Mul(positionFraction))
		if qty.IsPositive() {
			if _, err := s.marketOrder(types.SideBuy, qty); err != nil {
				return err
			}
		}

	case crossedBelowOverbought && pos.Quantity.IsPositive():
		if _, err := s.marketOrder(types.SideSell, pos.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *Strategy) marketOrder(side types.Side, qty decimal.Decimal) (int64, error) {
	return s.api.Submit(types.OrderSpec{
		Side:     side,
		Kind:     types.KindMarket,
		Quantity: qty,
	})
}

// relativeStrength computes RSI over the last period deltas of the close
// series. Fewer than period+1 closes is a neutral 50; no losses is 100.
func relativeStrength(closes []decimal.Decimal, period int) decimal.Decimal {
	if len(closes) < period+1 {
		return decimal.NewFromInt(50)
	}

	window := closes[len(closes)-period-1:]
	gains := decimal.Zero
	losses := decimal.Zero
	for i := 1; i < len(window); i++ {
		delta := window[i].Sub(window[i-1])
		if delta.IsPositive() {
			gains = gains.Add(delta)
		} else {
			losses = losses.Sub(delta)
		}
	}

	if losses.IsZero() {
		return decimal.NewFromInt(100)
	}

	hundred := decimal.NewFromInt(100)
	rs := gains.Div(losses)
	return hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs)))
}

func quantityFor(price, capital decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return capital.Div(price).Floor()
}
