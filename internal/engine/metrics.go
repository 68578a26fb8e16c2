package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"backsim/types"
)

// computeMetrics derives performance statistics from the equity curve and
// closed-trade history alone. It is a pure function: the same inputs
// always produce the same Metrics, and every degenerate input (no bars,
// no trades, zero variance, flat equity) yields zeros rather than errors.
func computeMetrics(curve []types.EquityPoint, trades []types.ClosedTrade, barsPerYear float64) types.Metrics {
	m := types.Metrics{TradeCount: len(trades)}

	for _, tr := range trades {
		if tr.RealizedPnL.IsPositive() {
			m.WinningTrades++
		}
	}
	if m.TradeCount > 0 {
		m.WinRate = decimal.NewFromInt(int64(m.WinningTrades)).
			Div(decimal.NewFromInt(int64(m.TradeCount)))
	}

	if len(curve) == 0 {
		return m
	}

	first := curve[0].Equity
	last := curve[len(curve)-1].Equity
	if first.GreaterThan(decimal.Zero) {
		m.TotalReturn = last.Sub(first).Div(first)
	}

	m.MaxDrawdown = maxDrawdown(curve)

	returns := periodReturns(curve)
	if len(returns) == 0 {
		return m
	}

	// Annualized return compounds the mean per-bar return over a year of
	// bars. Volatility and Sharpe scale by sqrt(barsPerYear). The float64
	// round trip only covers pow/sqrt.
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	annual := math.Pow(1.0+mean, barsPerYear) - 1.0
	if !math.IsInf(annual, 0) && !math.IsNaN(annual) {
		m.AnnualReturn = decimal.NewFromFloat(annual)
	}

	if len(returns) < 2 {
		return m
	}
	var varianceSum float64
	for _, r := range returns {
		diff := r - mean
		varianceSum += diff * diff
	}
	std := math.Sqrt(varianceSum / float64(len(returns)-1))
	if std == 0 {
		return m
	}

	m.Volatility = decimal.NewFromFloat(std * math.Sqrt(barsPerYear))
	m.SharpeRatio = decimal.NewFromFloat(mean / std * math.Sqrt(barsPerYear))
	return m
}

// periodReturns is the bar-over-bar fractional change of the equity curve.
// Points with non-positive equity are skipped to keep divisions defined.
func periodReturns(curve []types.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	prev := curve[0].Equity
	for _, point := range curve[1:] {
		if !prev.GreaterThan(decimal.Zero) {
			prev = point.Equity
			continue
		}
		r := point.Equity.Div(prev).Sub(decimal.NewFromInt(1))
		returns = append(returns, r.InexactFloat64())
		prev = point.Equity
	}
	return returns
}

// maxDrawdown walks the curve tracking the running peak and returns the
// largest fractional peak-to-trough decline. Monotone non-decreasing
// equity yields zero.
func maxDrawdown(curve []types.EquityPoint) decimal.Decimal {
	peak := decimal.Zero
	maxDD := decimal.Zero

	for _, point := range curve {
		if point.Equity.GreaterThan(peak) {
			peak = point.Equity
		}
		if peak.GreaterThan(decimal.Zero) {
			dd := peak.Sub(point.Equity).Div(peak)
			if dd.GreaterThan(maxDD) {
				maxDD = dd
			}
		}
	}
	return maxDD
}
