// Package engine implements the event-driven backtest simulator: a bar
// sequencer, an order-matching book, a cash/position ledger, incremental
// performance metrics, and a snapshot emitter. One Engine instance owns
// all mutable state for exactly one run; parallel backtests are parallel
// instances.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"backsim/types"
)

// RunConfig carries the validated parameters for one backtest run.
type RunConfig struct {
	Symbol         string
	Interval       types.Interval
	InitialCapital decimal.Decimal
	CommissionRate decimal.Decimal
	SlippageMode   SlippageMode
	SlippageValue  decimal.Decimal

	// Pacing inserts a wall-clock delay after each bar for real-time-like
	// playback. It never changes simulation outcomes.
	Pacing time.Duration
}

func (c *RunConfig) validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required: %w", ConfigErr)
	}
	if _, ok := types.BarsPerYear[c.Interval]; !ok {
		return fmt.Errorf("unsupported interval %q: %w", c.Interval, ConfigErr)
	}
	if !c.InitialCapital.IsPositive() {
		return fmt.Errorf("initial capital %s must be positive: %w", c.InitialCapital, ConfigErr)
	}
	if c.CommissionRate.IsNegative() || c.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission rate %s out of range [0,1): %w", c.CommissionRate, ConfigErr)
	}
	switch c.SlippageMode {
	case "", SlippageNone, SlippageFixed, SlippageProportional:
	default:
		return fmt.Errorf("unknown slippage mode %q: %w", c.SlippageMode, ConfigErr)
	}
	if c.SlippageValue.IsNegative() {
		return fmt.Errorf("slippage value %s must not be negative: %w", c.SlippageValue, ConfigErr)
	}
	if c.Pacing < 0 {
		return fmt.Errorf("pacing must not be negative: %w", ConfigErr)
	}
	return nil
}

// Engine drives one backtest run to completion. Processing is strictly
// sequential: each bar runs the strategy callback, order matching, ledger
// updates, metrics, and emission before the next bar is considered.
type Engine struct {
	cfg   RunConfig
	feed  *barFeed
	book  *orderBook
	led   *ledger
	strat Strategy
	emit  *emitter
	log   *slog.Logger

	history     []types.Candle
	curve       []types.EquityPoint
	peakEquity  decimal.Decimal
	diagnostics []string

	barIndex int
	current  types.Candle
	started  time.Time
	finished time.Time
}

// New builds an engine for one run. Configuration problems fail here with
// ConfigErr before any engine state exists.
func New(cfg RunConfig, candles []types.Candle, strat Strategy, sink Sink, log *slog.Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles for %s: %w", cfg.Symbol, ConfigErr)
	}
	if strat == nil {
		return nil, fmt.Errorf("strategy is required: %w", ConfigErr)
	}
	if log == nil {
		log = slog.Default()
	}

	mode := cfg.SlippageMode
	if mode == "" {
		mode = SlippageNone
	}
	return &Engine{
		cfg:   cfg,
		feed:  newBarFeed(candles),
		book:  newOrderBook(CostModel{CommissionRate: cfg.CommissionRate, SlippageMode: mode, SlippageValue: cfg.SlippageValue}),
		led:   newLedger(cfg.Symbol, cfg.InitialCapital),
		strat: strat,
		emit:  newEmitter(sink, log),
		log:   log,
	}, nil
}

// Run replays the full bar sequence. It returns ctx.Err() on cooperative
// cancellation (after a terminal snapshot for the last fully processed
// bar) and a wrapped DataGapErr if the feed breaks ordering.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.strat.Init(&tradeAPI{e: e}); err != nil {
		err = fmt.Errorf("strategy %s init: %w", e.strat.Name(), err)
		e.emit.emit(Snapshot{Kind: SnapshotError, Timestamp: time.Now(), Reason: err.Error()})
		return err
	}

	e.started = time.Now()
	e.emit.emit(Snapshot{
		Kind:      SnapshotStart,
		Timestamp: e.started,
		TotalBars: e.feed.length(),
		Symbol:    e.cfg.Symbol,
		Strategy:  e.strat.Name(),
	})

	for {
		candle, ok, err := e.feed.next()
		if err != nil {
			e.emit.emit(Snapshot{Kind: SnapshotError, Timestamp: time.Now(), Reason: err.Error()})
			return err
		}
		if !ok {
			break
		}

		e.processBar(candle)

		if err := e.pause(ctx); err != nil {
			e.complete()
			return err
		}
	}

	e.complete()
	return nil
}

// processBar runs the full per-bar pipeline. Nothing outside this method
// mutates simulation state, so a bar is always observed fully processed.
func (e *Engine) processBar(candle types.Candle) {
	e.current = candle
	e.history = append(e.history, candle)

	if err := e.strat.OnCandle(candle); err != nil {
		e.diagnose("strategy %s bar %d: %v", e.strat.Name(), e.barIndex, err)
	}

	fills := e.book.match(candle, e.barIndex)
	for _, fill := range fills {
		e.led.apply(fill)
	}
	e.led.mark(candle.Close)

	equity := e.led.equity()
	if equity.GreaterThan(e.peakEquity) {
		e.peakEquity = equity
	}
	drawdown := decimal.Zero
	if e.peakEquity.GreaterThan(decimal.Zero) {
		drawdown = e.peakEquity.Sub(equity).Div(e.peakEquity)
	}
	e.curve = append(e.curve, types.EquityPoint{
		Timestamp: candle.Timestamp,
		Equity:    equity,
		Cash:      e.led.cash,
		Drawdown:  drawdown,
	})

	metrics := computeMetrics(e.curve, e.led.trades, types.BarsPerYear[e.cfg.Interval])
	view := e.led.view(candle.Timestamp)

	e.emit.emit(Snapshot{
		Kind:          SnapshotUpdate,
		Timestamp:     candle.Timestamp,
		Candle:        &candle,
		BarIndex:      e.barIndex,
		Fills:         fills,
		PendingOrders: e.book.pendingCount(),
		Portfolio:     &view,
		Metrics:       &metrics,
		Diagnostics:   e.drainDiagnostics(),
	})

	e.barIndex++
}

// pause honours the configured pacing delay and polls for cancellation.
// Both happen strictly between bars.
func (e *Engine) pause(ctx context.Context) error {
	if e.cfg.Pacing > 0 {
		timer := time.NewTimer(e.cfg.Pacing)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// complete emits the terminal snapshot with the final report. It covers
// both natural exhaustion and cooperative cancellation; either way the
// report reflects the last fully processed bar.
func (e *Engine) complete() {
	e.finished = time.Now()
	report := e.buildReport()
	e.emit.emit(Snapshot{
		Kind:        SnapshotComplete,
		Timestamp:   e.finished,
		Report:      &report,
		Diagnostics: e.drainDiagnostics(),
	})
}

func (e *Engine) diagnose(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.diagnostics = append(e.diagnostics, msg)
	e.log.Debug("diagnostic", "msg", msg)
}

func (e *Engine) drainDiagnostics() []string {
	if len(e.diagnostics) == 0 {
		return nil
	}
	out := e.diagnostics
	e.diagnostics = nil
	return out
}

// Trades returns the closed round trips recorded so far.
func (e *Engine) Trades() []types.ClosedTrade {
	return append([]types.ClosedTrade(nil), e.led.trades...)
}

// EquityCurve returns the per-bar equity points recorded so far.
func (e *Engine) EquityCurve() []types.EquityPoint {
	return append([]types.EquityPoint(nil), e.curve...)
}

// Orders returns every order submitted during the run, in submission
// order, including terminal ones.
func (e *Engine) Orders() []types.Order {
	return e.book.history()
}

// tradeAPI is the strategy-facing capability. It forwards to the engine's
// order book and ledger and records rejected submissions as diagnostics.
type tradeAPI struct {
	e *Engine
}

func (a *tradeAPI) Submit(spec types.OrderSpec) (int64, error) {
	id, err := a.e.book.submit(spec, a.e.cfg.Symbol, a.e.barIndex, a.e.current.Timestamp)
	if err != nil {
		a.e.diagnose("order rejected: %v", err)
		return 0, err
	}
	return id, nil
}

func (a *tradeAPI) Cancel(id int64) error {
	return a.e.book.cancel(id)
}

func (a *tradeAPI) Position() types.PositionSnapshot {
	return a.e.led.position()
}

func (a *tradeAPI) History(n int) []types.Candle {
	if n <= 0 || len(a.e.history) == 0 {
		return nil
	}
	if n > len(a.e.history) {
		n = len(a.e.history)
	}
	out := make([]types.Candle, n)
	copy(out, a.e.history[len(a.e.history)-n:])
	return out
}

func (a *tradeAPI) Cash() decimal.Decimal {
	return a.e.led.cash
}

func (a *tradeAPI) Equity() decimal.Decimal {
	return a.e.led.equity()
}
