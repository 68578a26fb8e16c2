package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"backsim/internal/config"
	"backsim/internal/engine"
	"backsim/internal/repository"
	"backsim/internal/util"
	"backsim/strategies"
	"backsim/types"
)

func main() {
	configPath := flag.String("config", "backsim.yaml", "path to run configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	log := util.NewLogger(os.Stderr, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	candles, err := loadCandles(ctx, cfg)
	if err != nil {
		return err
	}

	strat, err := strategies.Builtin().Resolve(cfg.Run.Strategy, cfg.Run.Params)
	if err != nil {
		return err
	}

	runCfg, err := buildRunConfig(cfg.Run)
	if err != nil {
		return err
	}

	capture := &reportSink{}
	sink, closeSink, err := buildSink(cfg, len(candles), capture, log)
	if err != nil {
		return err
	}
	defer closeSink()

	eng, err := engine.New(runCfg, candles, strat, sink, log)
	if err != nil {
		return err
	}

	if err := eng.Run(ctx); err != nil {
		return err
	}

	if capture.report != nil {
		engine.WriteReport(os.Stdout, *capture.report)
	}
	if cfg.Output.TradesCSV != "" {
		if err := engine.WriteTradesCSVFile(cfg.Output.TradesCSV, eng.Trades()); err != nil {
			return err
		}
		log.Info("trades written", "path", cfg.Output.TradesCSV)
	}
	return nil
}

func loadCandles(ctx context.Context, cfg *config.Config) ([]types.Candle, error) {
	interval, ok := types.ConvertInterval[cfg.Run.Interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval %q", cfg.Run.Interval)
	}

	switch cfg.Data.Source {
	case "csv":
		return repository.LoadCandlesCSVFile(cfg.Data.CSVPath, cfg.Run.Symbol, interval)

	case "postgres":
		start, end, err := cfg.Run.DateRange()
		if err != nil {
			return nil, err
		}
		db, err := repository.NewDatabase(ctx, cfg.Data.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		asset, err := db.GetAssetByTicker(ctx, cfg.Run.Symbol)
		if err != nil {
			return nil, err
		}
		return db.GetCandles(ctx, asset.ID, asset.Ticker, interval, start, end)

	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

func buildRunConfig(run config.Run) (engine.RunConfig, error) {
	capital, err := decimal.NewFromString(run.InitialCapital)
	if err != nil {
		return engine.RunConfig{}, fmt.Errorf("initial capital: %w", err)
	}
	commission, err := decimal.NewFromString(run.CommissionRate)
	if err != nil {
		return engine.RunConfig{}, fmt.Errorf("commission rate: %w", err)
	}

	slipValue := decimal.Zero
	if run.Slippage.Value != "" {
		slipValue, err = decimal.NewFromString(run.Slippage.Value)
		if err != nil {
			return engine.RunConfig{}, fmt.Errorf("slippage value: %w", err)
		}
	}

	return engine.RunConfig{
		Symbol:         run.Symbol,
		Interval:       types.ConvertInterval[run.Interval],
		InitialCapital: capital,
		CommissionRate: commission,
		SlippageMode:   engine.SlippageMode(run.Slippage.Mode),
		SlippageValue:  slipValue,
		Pacing:         time.Duration(run.PacingMillis) * time.Millisecond,
	}, nil
}

// buildSink assembles the snapshot fan-out: an optional JSON-lines stream,
// a slog sink, the report capture, and an optional progress bar.
func buildSink(cfg *config.Config, totalBars int, capture *reportSink, log *slog.Logger) (engine.Sink, func(), error) {
	var sinks engine.MultiSink
	closer := func() {}

	switch cfg.Output.StreamPath {
	case "":
	case "-":
		sinks = append(sinks, engine.NewWriterSink(os.Stdout))
	default:
		f, err := os.Create(cfg.Output.StreamPath)
		if err != nil {
			return nil, nil, fmt.Errorf("create stream file: %w", err)
		}
		sinks = append(sinks, engine.NewWriterSink(f))
		closer = func() { f.Close() }
	}

	sinks = append(sinks, &engine.LogSink{Log: log}, capture)

	if cfg.Output.Progress {
		sinks = append(sinks, &progressSink{bar: newProgressBar(totalBars)})
	}
	return sinks, closer, nil
}

// reportSink latches the report from the complete snapshot so the CLI can
// print it after the run.
type reportSink struct {
	report *engine.Report
}

func (s *reportSink) Publish(snapshot engine.Snapshot) error {
	if snapshot.Kind == engine.SnapshotComplete {
		s.report = snapshot.Report
	}
	return nil
}

// progressSink advances a terminal progress bar on every update snapshot.
type progressSink struct {
	bar *progressbar.ProgressBar
}

func (s *progressSink) Publish(snapshot engine.Snapshot) error {
	switch snapshot.Kind {
	case engine.SnapshotUpdate:
		return s.bar.Add(1)
	case engine.SnapshotComplete, engine.SnapshotError:
		return s.bar.Finish()
	}
	return nil
}

func newProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
