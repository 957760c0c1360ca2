package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/bbsma/backtest"
	"github.com/rustyeddy/bbsma/market"
	"gopkg.in/yaml.v3"
)

// Config is the complete backtest configuration.
type Config struct {
	Backtest       BacktestConfig   `json:"backtest" yaml:"backtest"`
	RiskManagement RiskConfig       `json:"risk_management" yaml:"risk_management"`
	Parameters     ParametersConfig `json:"parameters" yaml:"parameters"`
	Session        SessionConfig    `json:"session" yaml:"session"`
	Data           DataConfig       `json:"data" yaml:"data"`
	Journal        JournalConfig    `json:"journal" yaml:"journal"`
}

// BacktestConfig contains account and scoring parameters.
type BacktestConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	Commission     float64 `json:"commission" yaml:"commission"`
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// RiskConfig contains exit parameters.
type RiskConfig struct {
	StopLossPoints float64 `json:"stop_loss_points" yaml:"stop_loss_points"`
}

// ParametersConfig contains indicator parameters.
type ParametersConfig struct {
	Strategy         string  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	BBWindow         int     `json:"bb_window" yaml:"bb_window"`
	BBStd            float64 `json:"bb_std" yaml:"bb_std"`
	DefaultTimeframe string  `json:"default_timeframe" yaml:"default_timeframe"`
}

// SessionConfig contains the intraday times that drive data filtering,
// signals and exits. All times are read in the data timezone.
type SessionConfig struct {
	MarketOpen   market.Clock `json:"market_open" yaml:"market_open"`     // tick filter start
	MarketEnd    market.Clock `json:"market_end" yaml:"market_end"`       // tick filter end
	TradingStart market.Clock `json:"trading_start" yaml:"trading_start"` // signal window start
	TradingEnd   market.Clock `json:"trading_end" yaml:"trading_end"`     // signal window end
	EntryCutoff  market.Clock `json:"entry_cutoff" yaml:"entry_cutoff"`
	MarketClose  market.Clock `json:"market_close" yaml:"market_close"`
}

// DataConfig selects and bounds the candle source.
type DataConfig struct {
	Source     string `json:"source" yaml:"source"` // "dummy", "csv", "ticks" or "postgres"
	CSVPath    string `json:"csv_path,omitempty" yaml:"csv_path,omitempty"`
	TicksPath  string `json:"ticks_path,omitempty" yaml:"ticks_path,omitempty"`
	StartDate  string `json:"start_date" yaml:"start_date"` // YYYY-MM-DD
	EndDate    string `json:"end_date" yaml:"end_date"`     // YYYY-MM-DD
	Timezone   string `json:"timezone" yaml:"timezone"`
	Symbol     string `json:"symbol" yaml:"symbol"`
	FutureCode string `json:"future_code,omitempty" yaml:"future_code,omitempty"`
	Seed       int64  `json:"seed" yaml:"seed"`

	// TrainEnd/TestStart split the candles; Segment picks "all", "train"
	// or "test".
	TrainEnd  string `json:"train_end,omitempty" yaml:"train_end,omitempty"`
	TestStart string `json:"test_start,omitempty" yaml:"test_start,omitempty"`
	Segment   string `json:"segment,omitempty" yaml:"segment,omitempty"`

	// DSN is only read from the environment.
	DSN string `json:"-" yaml:"-"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrgPath    string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

const dateLayout = "2006-01-02"

// LoadFromFile loads configuration from a file (YAML, falling back to JSON).
// Missing fields keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, else JSON).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive")
	}
	if c.Backtest.Commission < 0 || c.Backtest.Commission >= 1 {
		return fmt.Errorf("backtest.commission must be in [0,1)")
	}
	if c.RiskManagement.StopLossPoints <= 0 {
		return fmt.Errorf("risk_management.stop_loss_points must be positive")
	}
	if c.Parameters.BBWindow < 2 {
		return fmt.Errorf("parameters.bb_window must be at least 2")
	}
	if c.Parameters.BBStd <= 0 {
		return fmt.Errorf("parameters.bb_std must be positive")
	}
	if _, err := market.ParseTimeframe(c.Parameters.DefaultTimeframe); err != nil {
		return fmt.Errorf("parameters.default_timeframe: %w", err)
	}
	if c.Session.TradingEnd < c.Session.TradingStart {
		return fmt.Errorf("session.trading_end must not be before session.trading_start")
	}
	if c.Session.MarketEnd < c.Session.MarketOpen {
		return fmt.Errorf("session.market_end must not be before session.market_open")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("data.timezone: %w", err)
	}

	switch c.Data.Source {
	case "dummy", "postgres":
	case "csv":
		if c.Data.CSVPath == "" {
			return fmt.Errorf("data.csv_path required for csv source")
		}
	case "ticks":
		if c.Data.TicksPath == "" {
			return fmt.Errorf("data.ticks_path required for ticks source")
		}
	default:
		return fmt.Errorf("data.source must be 'dummy', 'csv', 'ticks' or 'postgres'")
	}
	if c.Data.Source == "dummy" || c.Data.Source == "postgres" {
		start, end, err := c.DateRange()
		if err != nil {
			return err
		}
		if end.Before(start) {
			return fmt.Errorf("data.end_date must not be before data.start_date")
		}
	}

	switch c.Data.Segment {
	case "", "all":
	case "train", "test":
		if c.Data.TrainEnd == "" {
			return fmt.Errorf("data.train_end required for segment %q", c.Data.Segment)
		}
	default:
		return fmt.Errorf("data.segment must be 'all', 'train' or 'test'")
	}

	switch c.Journal.Type {
	case "none", "":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Location returns the data timezone, UTC when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Data.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Data.Timezone)
}

// DateRange parses data.start_date and data.end_date in the data timezone.
func (c *Config) DateRange() (start, end time.Time, err error) {
	loc, err := c.Location()
	if err != nil {
		return start, end, err
	}
	if start, err = time.ParseInLocation(dateLayout, c.Data.StartDate, loc); err != nil {
		return start, end, fmt.Errorf("data.start_date: %w", err)
	}
	if end, err = time.ParseInLocation(dateLayout, c.Data.EndDate, loc); err != nil {
		return start, end, fmt.Errorf("data.end_date: %w", err)
	}
	return start, end, nil
}

// Split parses the train/test boundaries. Train runs through the end of
// the train_end day; test starts at test_start, or the day after train_end.
func (c *Config) Split() (trainEnd, testStart time.Time, err error) {
	loc, err := c.Location()
	if err != nil {
		return trainEnd, testStart, err
	}
	day, err := time.ParseInLocation(dateLayout, c.Data.TrainEnd, loc)
	if err != nil {
		return trainEnd, testStart, fmt.Errorf("data.train_end: %w", err)
	}
	trainEnd = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	testStart = day.AddDate(0, 0, 1)
	if c.Data.TestStart != "" {
		if testStart, err = time.ParseInLocation(dateLayout, c.Data.TestStart, loc); err != nil {
			return trainEnd, testStart, fmt.Errorf("data.test_start: %w", err)
		}
	}
	return trainEnd, testStart, nil
}

// Timeframe returns the parsed default timeframe.
func (c *Config) Timeframe() (time.Duration, error) {
	return market.ParseTimeframe(c.Parameters.DefaultTimeframe)
}

// Engine returns the backtest engine parameters.
func (c *Config) Engine() backtest.Config {
	return backtest.Config{
		StartingBalance: c.Backtest.InitialCapital,
		CommissionRate:  c.Backtest.Commission,
		StopLoss:        c.RiskManagement.StopLossPoints,
		EntryCutoff:     c.Session.EntryCutoff,
		SessionClose:    c.Session.MarketClose,
	}
}

// SignalHours returns the window in which entry signals may fire.
func (c *Config) SignalHours() market.Window {
	return market.Window{Start: c.Session.TradingStart, End: c.Session.TradingEnd}
}

// MarketHours returns the window ticks are kept in when resampling.
func (c *Config) MarketHours() market.Window {
	return market.Window{Start: c.Session.MarketOpen, End: c.Session.MarketEnd}
}

// Default returns a configuration with the strategy's published defaults.
func Default() *Config {
	return &Config{
		Backtest: BacktestConfig{
			InitialCapital: 100000,
			Commission:     0.001,
			RiskFreeRate:   0.03,
		},
		RiskManagement: RiskConfig{
			StopLossPoints: 2,
		},
		Parameters: ParametersConfig{
			Strategy:         "bb_sma_reversion",
			BBWindow:         20,
			BBStd:            2.0,
			DefaultTimeframe: "15min",
		},
		Session: SessionConfig{
			MarketOpen:   market.TradingHours.Start,
			MarketEnd:    market.TradingHours.End,
			TradingStart: market.SignalHours.Start,
			TradingEnd:   market.SignalHours.End,
			EntryCutoff:  market.EntryCutoff,
			MarketClose:  market.MarketClose,
		},
		Data: DataConfig{
			Source:     "dummy",
			StartDate:  "2024-01-01",
			EndDate:    "2024-06-01",
			Timezone:   "Asia/Ho_Chi_Minh",
			Symbol:     "VN30F1M",
			FutureCode: "VN30F1M",
			Seed:       1,
			Segment:    "all",
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
	}
}
