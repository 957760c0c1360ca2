// Package pipeline runs a complete backtest: load candles, derive bands and
// signals, simulate, score and journal the run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/bbsma/backtest"
	"github.com/rustyeddy/bbsma/config"
	"github.com/rustyeddy/bbsma/indicators"
	"github.com/rustyeddy/bbsma/journal"
	"github.com/rustyeddy/bbsma/market"
	"github.com/rustyeddy/bbsma/performance"
	"github.com/rustyeddy/bbsma/pkg/id"
	"github.com/rustyeddy/bbsma/strategies"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Output is everything a pipeline run produces.
type Output struct {
	RunID   string
	Source  string
	Segment string

	// Candles are the annotated candles the engine ran on.
	Candles []market.Candle
	Result  *backtest.Result
	Metrics performance.Metrics
	Run     journal.BacktestRun
}

type options struct {
	log   *zap.Logger
	runID string
	now   func() time.Time
}

// Option configures Run.
type Option func(*options)

// WithLogger sets the logger for stage summaries and the engine.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(runID string) Option {
	return func(o *options) { o.runID = runID }
}

// WithClock sets the time source used for the run's creation time.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Run backtests src under cfg and records the run to the configured
// journal. cfg must be valid.
func Run(ctx context.Context, cfg *config.Config, src Source, opts ...Option) (*Output, error) {
	o := options{log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = id.At(o.now())
	}
	log := o.log.With(zap.String("run_id", o.runID))

	raw, err := src.Candles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	log.Info("loaded candles", zap.String("source", src.Name()), zap.Int("candles", len(raw)))

	candles, err := Prepare(cfg, raw)
	if err != nil {
		return nil, err
	}

	segment := cfg.Data.Segment
	if segment == "" {
		segment = "all"
	}
	if segment != "all" {
		trainEnd, testStart, err := cfg.Split()
		if err != nil {
			return nil, err
		}
		train, test := market.SplitTrainTest(candles, trainEnd, testStart)
		log.Info("split candles", zap.Int("train", len(train)), zap.Int("test", len(test)))
		if segment == "train" {
			candles = train
		} else {
			candles = test
		}
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("segment %s: %w", segment, market.ErrEmptySeries)
	}

	engine, err := backtest.NewEngine(cfg.Engine(), backtest.WithLogger(o.log))
	if err != nil {
		return nil, err
	}
	res, err := engine.Run(candles)
	if err != nil {
		return nil, err
	}

	m := performance.NewAnalyzer(cfg.Backtest.RiskFreeRate).Analyze(res.Trades, res.Equity, res.StartingBalance)
	log.Info("backtest complete",
		zap.String("segment", segment),
		zap.Int("candles", len(candles)),
		zap.Int("trades", m.TotalTrades),
		zap.Float64("total_profit", m.TotalProfit),
		zap.Float64("final_balance", res.FinalBalance),
	)

	snapshot, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("snapshot config: %w", err)
	}

	out := &Output{
		RunID:   o.runID,
		Source:  src.Name(),
		Segment: segment,
		Candles: candles,
		Result:  res,
		Metrics: m,
		Run: journal.BacktestRun{
			RunID:          o.runID,
			Created:        o.now(),
			Strategy:       strategyName(cfg),
			Symbol:         symbolOf(cfg, candles),
			Timeframe:      cfg.Parameters.DefaultTimeframe,
			Dataset:        src.Name(),
			Segment:        segment,
			Config:         snapshot,
			BBWindow:       cfg.Parameters.BBWindow,
			BBStd:          cfg.Parameters.BBStd,
			StopLoss:       cfg.RiskManagement.StopLossPoints,
			CommissionRate: cfg.Backtest.Commission,
			Start:          res.Start(),
			End:            res.End(),
			Metrics:        m,
			OrgPath:        cfg.Journal.OrgPath,
		},
	}

	if err := Record(ctx, cfg, out); err != nil {
		return out, err
	}
	return out, nil
}

// Prepare annotates raw candles with bands and entry signals and drops the
// indicator warm-up.
func Prepare(cfg *config.Config, raw []market.Candle) ([]market.Candle, error) {
	if err := market.Validate(raw); err != nil {
		return nil, err
	}
	banded, err := indicators.Apply(raw, cfg.Parameters.BBWindow, cfg.Parameters.BBStd)
	if err != nil {
		return nil, err
	}
	strat, err := strategies.ByName(cfg.Parameters.Strategy, cfg.SignalHours())
	if err != nil {
		return nil, err
	}
	return market.DropUndefined(strategies.Apply(strat, banded)), nil
}

// Record writes out to the journal selected by cfg.Journal and, when an org
// path is set, the org report.
func Record(ctx context.Context, cfg *config.Config, out *Output) error {
	symbol := out.Run.Symbol

	switch cfg.Journal.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
		if err != nil {
			return fmt.Errorf("open csv journal: %w", err)
		}
		if err := journal.Record(j, out.RunID, symbol, out.Result); err != nil {
			j.Close()
			return fmt.Errorf("write csv journal: %w", err)
		}
		if err := j.Close(); err != nil {
			return fmt.Errorf("close csv journal: %w", err)
		}

	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open sqlite journal: %w", err)
		}
		defer j.Close()
		err = j.RecordBacktest(ctx, out.Run,
			journal.Trades(out.RunID, symbol, out.Result),
			journal.Snapshots(out.RunID, out.Result))
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	if out.Run.OrgPath != "" {
		if err := out.Run.WriteBacktestOrg(); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}
	return nil
}

func strategyName(cfg *config.Config) string {
	if cfg.Parameters.Strategy == "" {
		return strategies.BandCrossName
	}
	return cfg.Parameters.Strategy
}

// symbolOf prefers the candles' own symbol over the configured one.
func symbolOf(cfg *config.Config, candles []market.Candle) string {
	for _, c := range candles {
		if c.Symbol != "" {
			return c.Symbol
		}
	}
	return cfg.Data.Symbol
}
