package engine

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"backsim/types"
)

// Report is the final run summary embedded in the complete snapshot. All
// fields derive from the equity curve and trade history.
type Report struct {
	Symbol      string `json:"symbol"`
	Strategy    string `json:"strategy"`
	Bars        int    `json:"bars"`
	TotalTrades int    `json:"totalTrades"`

	TotalReturn  decimal.Decimal `json:"totalReturn"`
	AnnualReturn decimal.Decimal `json:"annualReturn"`
	Volatility   decimal.Decimal `json:"volatility"`
	SharpeRatio  decimal.Decimal `json:"sharpeRatio"`
	MaxDrawdown  decimal.Decimal `json:"maxDrawdown"`
	WinRate      decimal.Decimal `json:"winRate"`

	WinningTrades    int             `json:"winningTrades"`
	FinalEquity      decimal.Decimal `json:"finalEquity"`
	PeakEquity       decimal.Decimal `json:"peakEquity"`
	TotalCommissions decimal.Decimal `json:"totalCommissions"`
	TotalSlippage    decimal.Decimal `json:"totalSlippage"`
}

func (e *Engine) buildReport() Report {
	metrics := computeMetrics(e.curve, e.led.trades, types.BarsPerYear[e.cfg.Interval])

	finalEquity := e.cfg.InitialCapital
	if len(e.curve) > 0 {
		finalEquity = e.curve[len(e.curve)-1].Equity
	}
	peak := e.peakEquity
	if peak.IsZero() {
		peak = e.cfg.InitialCapital
	}

	return Report{
		Symbol:           e.cfg.Symbol,
		Strategy:         e.strat.Name(),
		Bars:             len(e.curve),
		TotalTrades:      metrics.TradeCount,
		TotalReturn:      metrics.TotalReturn,
		AnnualReturn:     metrics.AnnualReturn,
		Volatility:       metrics.Volatility,
		SharpeRatio:      metrics.SharpeRatio,
		MaxDrawdown:      metrics.MaxDrawdown,
		WinRate:          metrics.WinRate,
		WinningTrades:    metrics.WinningTrades,
		FinalEquity:      finalEquity,
		PeakEquity:       peak,
		TotalCommissions: e.led.totalCommissions,
		TotalSlippage:    e.led.totalSlippage,
	}
}

// WriteReport prints the human-readable summary table.
func WriteReport(w io.Writer, report Report) {
	fmt.Fprintln(w, "===== Backtest Report =====")
	fmt.Fprintf(w, "Symbol:             %s\n", report.Symbol)
	fmt.Fprintf(w, "Strategy:           %s\n", report.Strategy)
	fmt.Fprintf(w, "Bars Processed:     %d\n", report.Bars)
	fmt.Fprintf(w, "Total Trades:       %d\n", report.TotalTrades)

	fmt.Fprintln(w, "\n-- Performance --")
	fmt.Fprintf(w, "Total Return:       %s\n", report.TotalReturn)
	fmt.Fprintf(w, "Annual Return:      %s\n", report.AnnualReturn)
	fmt.Fprintf(w, "Volatility:         %s\n", report.Volatility)
	fmt.Fprintf(w, "Sharpe Ratio:       %s\n", report.SharpeRatio)
	fmt.Fprintf(w, "Max Drawdown:       %s\n", report.MaxDrawdown)

	fmt.Fprintln(w, "\n-- Trades --")
	fmt.Fprintf(w, "Winning Trades:     %d\n", report.WinningTrades)
	fmt.Fprintf(w, "Win Rate:           %s\n", report.WinRate)

	fmt.Fprintln(w, "\n-- Equity & Costs --")
	fmt.Fprintf(w, "Final Equity:       %s\n", report.FinalEquity)
	fmt.Fprintf(w, "Peak Equity:        %s\n", report.PeakEquity)
	fmt.Fprintf(w, "Total Commissions:  %s\n", report.TotalCommissions)
	fmt.Fprintf(w, "Total Slippage:     %s\n", report.TotalSlippage)
	fmt.Fprintln(w, "===========================")
}
