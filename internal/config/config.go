// Package config loads the YAML run configuration for the CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a simulator run.
type Config struct {
	Data    Data    `yaml:"data"`
	Logging Logging `yaml:"logging"`
	Run     Run     `yaml:"run"`
	Output  Output  `yaml:"output"`
}

// Data selects the market-data provider.
type Data struct {
	Source      string `yaml:"source"` // "postgres" or "csv"
	DatabaseURL string `yaml:"database_url"`
	CSVPath     string `yaml:"csv_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Run holds the backtest parameters handed to the engine.
type Run struct {
	Symbol         string             `yaml:"symbol"`
	Strategy       string             `yaml:"strategy"`
	Params         map[string]float64 `yaml:"params"`
	Interval       string             `yaml:"interval"`
	Start          string             `yaml:"start"` // YYYY-MM-DD
	End            string             `yaml:"end"`
	InitialCapital string             `yaml:"initial_capital"`
	CommissionRate string             `yaml:"commission_rate"`
	Slippage       Slippage           `yaml:"slippage"`
	PacingMillis   int                `yaml:"pacing_ms"`
}

// Slippage configures the fill-price concession model.
type Slippage struct {
	Mode  string `yaml:"mode"` // "none", "fixed", "proportional"
	Value string `yaml:"value"`
}

// Output controls where snapshots and reports go.
type Output struct {
	StreamPath string `yaml:"stream_path"` // "-" for stdout, empty to disable
	TradesCSV  string `yaml:"trades_csv"`
	Progress   bool   `yaml:"progress"`
}

// Load reads and parses the configuration file, then applies environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Data.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// DateRange parses the configured start/end dates.
func (r Run) DateRange() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", r.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s is not after start %s", r.End, r.Start)
	}
	return start, end, nil
}
