package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/bbsma/config"
	"github.com/rustyeddy/bbsma/journal"
	"github.com/rustyeddy/bbsma/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Timezone = "UTC"
	cfg.Data.StartDate = "2024-01-01"
	cfg.Data.EndDate = "2024-01-31"
	cfg.Journal = config.JournalConfig{Type: "none"}
	require.NoError(t, cfg.Validate())
	return cfg
}

func generated(t *testing.T, cfg *config.Config) Source {
	t.Helper()
	src, closeFn, err := NewSource(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(closeFn)
	return src
}

func fixedClock() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) }

func TestRunGenerated(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	out, err := Run(context.Background(), cfg, generated(t, cfg),
		WithLogger(zaptest.NewLogger(t)), WithClock(fixedClock))
	require.NoError(t, err)

	assert.Len(t, out.RunID, 26)
	assert.Equal(t, "dummy", out.Source)
	assert.Equal(t, "all", out.Segment)
	require.NotEmpty(t, out.Candles)
	for _, c := range out.Candles {
		assert.True(t, c.HasBands())
	}

	res := out.Result
	assert.Len(t, res.Equity, len(out.Candles)+1)
	assert.Equal(t, len(res.Trades), out.Metrics.TotalTrades)
	assert.InDelta(t, res.FinalBalance, out.Metrics.FinalBalance, 1e-9)

	sum := 0.0
	for _, tr := range res.Trades {
		sum += tr.Profit
	}
	assert.InDelta(t, cfg.Backtest.InitialCapital+sum, res.FinalBalance, 1e-6)

	assert.Equal(t, out.RunID, out.Run.RunID)
	assert.Equal(t, "bb_sma_reversion", out.Run.Strategy)
	assert.Equal(t, "VN30F1M", out.Run.Symbol)
	assert.Equal(t, fixedClock(), out.Run.Created)
	assert.Contains(t, string(out.Run.Config), "bb_window: 20")
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	a, err := Run(context.Background(), cfg, generated(t, cfg), WithRunID("A"))
	require.NoError(t, err)
	b, err := Run(context.Background(), cfg, generated(t, cfg), WithRunID("B"))
	require.NoError(t, err)

	assert.Equal(t, a.Result.Trades, b.Result.Trades)
	assert.Equal(t, a.Metrics, b.Metrics)
}

func TestRunSegments(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Data.TrainEnd = "2024-01-15"
	trainEnd := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	cfg.Data.Segment = "train"
	train, err := Run(context.Background(), cfg, generated(t, cfg))
	require.NoError(t, err)
	for _, c := range train.Candles {
		assert.True(t, c.Time.Before(trainEnd))
	}

	cfg.Data.Segment = "test"
	test, err := Run(context.Background(), cfg, generated(t, cfg))
	require.NoError(t, err)
	for _, c := range test.Candles {
		assert.False(t, c.Time.Before(trainEnd))
	}

	cfg.Data.Segment = "all"
	all, err := Run(context.Background(), cfg, generated(t, cfg))
	require.NoError(t, err)
	assert.Equal(t, len(all.Candles), len(train.Candles)+len(test.Candles))
}

func TestRunEmptySegment(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Data.TrainEnd = "2025-01-01"
	cfg.Data.Segment = "test"

	_, err := Run(context.Background(), cfg, generated(t, cfg))
	assert.ErrorIs(t, err, market.ErrEmptySeries)
}

func TestRunCSVJournalAndOrg(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Journal = config.JournalConfig{
		Type:       "csv",
		TradesFile: filepath.Join(dir, "trades.csv"),
		EquityFile: filepath.Join(dir, "equity.csv"),
		OrgPath:    filepath.Join(dir, "run.org"),
	}

	out, err := Run(context.Background(), cfg, generated(t, cfg))
	require.NoError(t, err)

	for _, p := range []string{cfg.Journal.TradesFile, cfg.Journal.EquityFile, cfg.Journal.OrgPath} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	org, err := os.ReadFile(cfg.Journal.OrgPath)
	require.NoError(t, err)
	assert.Contains(t, string(org), out.RunID)
}

func TestRunSQLiteJournal(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(t.TempDir(), "runs.db")}

	out, err := Run(context.Background(), cfg, generated(t, cfg))
	require.NoError(t, err)

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	require.NoError(t, err)
	defer j.Close()

	run, err := j.GetBacktestRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, out.Metrics.TotalTrades, run.Metrics.TotalTrades)

	trades, err := j.ListTradesByRunID(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Len(t, trades, len(out.Result.Trades))

	equity, err := j.ListEquityByRunID(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Len(t, equity, len(out.Result.Equity))
}

func TestRunCandleCSV(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	raw, err := generated(t, cfg).Candles(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, market.SaveCandlesCSV(path, raw))

	cfg.Data.Source = "csv"
	cfg.Data.CSVPath = path
	src, closeFn, err := NewSource(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	fromCSV, err := Run(context.Background(), cfg, src)
	require.NoError(t, err)

	cfg.Data.Source = "dummy"
	direct, err := Run(context.Background(), cfg, generated(t, cfg))
	require.NoError(t, err)

	require.Len(t, fromCSV.Result.Trades, len(direct.Result.Trades))
	assert.InDelta(t, direct.Metrics.TotalProfit, fromCSV.Metrics.TotalProfit, 1e-3)
}

type fakeTicks struct {
	ticks []market.Tick
	err   error
}

func (f fakeTicks) Ticks(ctx context.Context, start, end time.Time) ([]market.Tick, error) {
	return f.ticks, f.err
}

// minuteTicks prices a sine wave once a minute over the morning session.
func minuteTicks(days int) []market.Tick {
	var out []market.Tick
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	n := 0
	for d := 0; d < days; d++ {
		open := day.AddDate(0, 0, d).Add(9*time.Hour + 15*time.Minute)
		for m := 0; m <= 135; m++ {
			out = append(out, market.Tick{
				Time:     open.Add(time.Duration(m) * time.Minute),
				Symbol:   "VN30F2401",
				Price:    1300 + 5*math.Sin(float64(n)/7),
				Quantity: 1,
			})
			n++
		}
	}
	return out
}

func TestRunTickSource(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Parameters.DefaultTimeframe = "5min"
	src := Ticks{
		Label:     "fake",
		Reader:    fakeTicks{ticks: minuteTicks(3)},
		Timeframe: 5 * time.Minute,
		Hours:     cfg.MarketHours(),
	}

	out, err := Run(context.Background(), cfg, src)
	require.NoError(t, err)
	assert.Equal(t, "VN30F2401", out.Run.Symbol)
	assert.NotEmpty(t, out.Candles)

	_, err = Run(context.Background(), cfg, Ticks{Label: "broken", Reader: fakeTicks{err: errors.New("down")}})
	assert.ErrorContains(t, err, "load broken")
}

func TestPrepareRejectsUnorderedCandles(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	raw := []market.Candle{
		market.NewCandle(t0.Add(time.Minute), 1, 1, 1, 1, 0),
		market.NewCandle(t0, 1, 1, 1, 1, 0),
	}
	_, err := Prepare(testConfig(t), raw)
	assert.ErrorIs(t, err, market.ErrOutOfOrder)
}

func TestNewSourcePostgresNeedsDSN(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Data.Source = "postgres"
	_, _, err := NewSource(context.Background(), cfg)
	assert.ErrorContains(t, err, "no DSN")
}

func TestNewSourceTicksCSV(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Data.Source = "ticks"
	cfg.Data.TicksPath = "ticks.csv"

	src, closeFn, err := NewSource(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()
	tc, ok := src.(TickCSV)
	require.True(t, ok)
	assert.Equal(t, 15*time.Minute, tc.Timeframe)
	assert.Equal(t, market.TradingHours, tc.Hours)
}
