// Package macross implements a moving-average crossover strategy: buy
// when the fast SMA crosses above the slow SMA, exit when it crosses
// below.
package macross

import (
	"fmt"

	"github.com/shopspring/decimal"

	"backsim/internal/engine"
	"backsim/types"
)

// Fraction of available cash committed when a buy signal fires.
var positionFraction = decimal.NewFromFloat(0.95)

type Strategy struct {
	fast int
	slow int

	api    engine.TradeAPI
	closes []decimal.Decimal
}

func New(fast, slow int) (*Strategy, error) {
	if fast < 1 || slow < 2 {
		return nil, fmt.Errorf("periods must be positive, got fast=%d slow=%d", fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("fast period %d must be below slow period %d", fast, slow)
	}
	return &Strategy{fast: fast, slow: slow}, nil
}

func (s *Strategy) Name() string {
	return "ma-cross"
}

func (s *Strategy) Init(api engine.TradeAPI) error {
	s.api = api
	s.closes = nil
	return nil
}

func (s *Strategy) OnCandle(candle types.Candle) error {
	s.closes = append(s.closes, candle.Close)
	if len(s.closes) < s.slow+1 {
		return nil
	}

	fast := sma(s.closes, s.fast, 0)
	slow := sma(s.closes, s.slow, 0)
	prevFast := sma(s.closes, s.fast, 1)
	prevSlow := sma(s.closes, s.slow, 1)

	crossedAbove := prevFast.LessThanOrEqual(prevSlow) && fast.GreaterThan(slow)
	crossedBelow := prevFast.GreaterThanOrEqual(prevSlow) && fast.LessThan(slow)

	pos := s.api.Position()

	switch {
	case crossedAbove && !pos.Quantity.IsPositive():
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

	case crossedBelow && pos.Quantity.IsPositive():
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

// sma averages the last period closes, offset bars back from the end.
func sma(closes []decimal.Decimal, period, offset int) decimal.Decimal {
	end := len(closes) - offset
	sum := decimal.Zero
	for _, c := range closes[end-period : end] {
		sum = sum.Add(c)
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}

func quantityFor(price, capital decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return capital.Div(price).Floor()
}
