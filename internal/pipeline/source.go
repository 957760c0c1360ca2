package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/bbsma/config"
	"github.com/rustyeddy/bbsma/internal/storage/postgres"
	"github.com/rustyeddy/bbsma/market"
)

// Source produces the raw candles a backtest runs on.
type Source interface {
	Name() string
	Candles(ctx context.Context) ([]market.Candle, error)
}

// TickReader reads ticks in [start, end].
type TickReader interface {
	Ticks(ctx context.Context, start, end time.Time) ([]market.Tick, error)
}

// Generated is a seeded synthetic series.
type Generated struct {
	Opts market.GenerateOptions
}

func (g Generated) Name() string { return "dummy" }

func (g Generated) Candles(ctx context.Context) ([]market.Candle, error) {
	return market.Generate(g.Opts)
}

// CandleCSV reads prepared candles from a CSV file.
type CandleCSV struct {
	Path string
	Loc  *time.Location
}

func (c CandleCSV) Name() string { return "csv:" + c.Path }

func (c CandleCSV) Candles(ctx context.Context) ([]market.Candle, error) {
	return market.LoadCandlesCSV(c.Path, c.Loc)
}

// TickCSV resamples a tick CSV file.
type TickCSV struct {
	Path      string
	Loc       *time.Location
	Timeframe time.Duration
	Hours     market.Window
}

func (c TickCSV) Name() string { return "ticks:" + c.Path }

func (c TickCSV) Candles(ctx context.Context) ([]market.Candle, error) {
	ticks, err := market.LoadTicksCSV(c.Path, c.Loc)
	if err != nil {
		return nil, err
	}
	return market.Resample(ticks, c.Timeframe, c.Hours)
}

// Ticks resamples ticks read from a TickReader.
type Ticks struct {
	Label     string
	Reader    TickReader
	Start     time.Time
	End       time.Time
	Timeframe time.Duration
	Hours     market.Window
}

func (t Ticks) Name() string { return t.Label }

func (t Ticks) Candles(ctx context.Context) ([]market.Candle, error) {
	ticks, err := t.Reader.Ticks(ctx, t.Start, t.End)
	if err != nil {
		return nil, err
	}
	return market.Resample(ticks, t.Timeframe, t.Hours)
}

// NewSource builds the source selected by cfg.Data.Source. The returned
// close function releases any connection the source holds.
func NewSource(ctx context.Context, cfg *config.Config) (Source, func(), error) {
	noop := func() {}

	loc, err := cfg.Location()
	if err != nil {
		return nil, noop, err
	}
	tf, err := cfg.Timeframe()
	if err != nil {
		return nil, noop, err
	}

	switch cfg.Data.Source {
	case "csv":
		return CandleCSV{Path: cfg.Data.CSVPath, Loc: loc}, noop, nil

	case "ticks":
		return TickCSV{Path: cfg.Data.TicksPath, Loc: loc, Timeframe: tf, Hours: cfg.MarketHours()}, noop, nil

	case "dummy", "postgres":
		start, end, err := cfg.DateRange()
		if err != nil {
			return nil, noop, err
		}
		if cfg.Data.Source == "dummy" {
			return Generated{Opts: market.GenerateOptions{
				Start:     start,
				End:       end,
				Timeframe: tf,
				Symbol:    cfg.Data.Symbol,
				Seed:      cfg.Data.Seed,
			}}, noop, nil
		}

		if cfg.Data.DSN == "" {
			return nil, noop, fmt.Errorf("postgres source: no DSN (set %s)", config.EnvDatabaseURL)
		}
		pool, err := postgres.NewPool(ctx, cfg.Data.DSN)
		if err != nil {
			return nil, noop, err
		}
		return Ticks{
			Label:     "postgres:" + cfg.Data.FutureCode,
			Reader:    postgres.NewTickStore(pool, cfg.Data.FutureCode, loc),
			Start:     start,
			End:       end.AddDate(0, 0, 1).Add(-time.Nanosecond),
			Timeframe: tf,
			Hours:     cfg.MarketHours(),
		}, pool.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown data source %q", cfg.Data.Source)
}
