// Package bollinger implements a Bollinger-band mean-reversion strategy:
// buy when the bar's low touches the lower band, exit when the high
// touches the upper band.
package bollinger

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"backsim/internal/engine"
	"backsim/types"
)

var positionFraction = decimal.NewFromFloat(0.95)

type Strategy struct {
	period int
	stddev decimal.Decimal

	api    engine.TradeAPI
	closes []decimal.Decimal
}

func New(period int, stddev float64) (*Strategy, error) {
	if period < 2 {
		return nil, fmt.Errorf("period must be at least 2, got %d", period)
	}
	if stddev <= 0 {
		return nil, fmt.Errorf("stddev multiplier must be positive, got %v", stddev)
	}
	return &Strategy{period: period, stddev: decimal.NewFromFloat(stddev)}, nil
}

func (s *Strategy) Name() string {
	return "bollinger"
}

func (s *Strategy) Init(api engine.TradeAPI) error {
	s.api = api
	s.closes = nil
	return nil
}

func (s *Strategy) OnCandle(candle types.Candle) error {
	s.closes = append(s.closes, candle.Close)
	if len(s.closes) < s.period {
		return nil
	}

	upper, _, lower := bands(s.closes, s.period, s.stddev)
	pos := s.api.Position()

	switch {
	case candle.Low.LessThanOrEqual(lower) && !pos.Quantity.IsPositive():
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

	case candle.High.GreaterThanOrEqual(upper) && pos.Quantity.IsPositive():
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

// bands returns the upper band, middle SMA, and lower band over the last
// period closes. The standard deviation is population stddev, computed
// through float64 for the square root.
func bands(closes []decimal.Decimal, period int, mult decimal.Decimal) (decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	window := closes[len(closes)-period:]

	sum := decimal.Zero
	for _, c := range window {
		sum = sum.Add(c)
	}
	mid := sum.Div(decimal.NewFromInt(int64(period)))

	var varianceSum float64
	for _, c := range window {
		diff := c.Sub(mid).InexactFloat64()
		varianceSum += diff * diff
	}
	std := decimal.NewFromFloat(math.Sqrt(varianceSum / float64(period)))

	offset := std.Mul(mult)
	return mid.Add(offset), mid, mid.Sub(offset)
}

func quantityFor(price, capital decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return capital.Div(price).Floor()
}
