package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trade(runID string, id int, exit time.Time, profit float64) TradeRecord {
	return TradeRecord{
		RunID:      runID,
		TradeID:    id,
		Symbol:     "VN30F1M",
		Side:       "buy",
		EntryTime:  exit.Add(-30 * time.Minute),
		EntryPrice: 1350,
		ExitTime:   exit,
		ExitPrice:  1350 + profit,
		Target:     1352,
		Size:       1,
		Gross:      profit,
		Profit:     profit,
		Reason:     "take_profit",
	}
}

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	exit := time.Date(2024, 4, 10, 10, 30, 0, 0, time.UTC)
	want := trade("R1", 7, exit, 2.5)
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade("R1", 7)
	require.NoError(t, err)

	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.TradeID, got.TradeID)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.InDelta(t, want.EntryPrice, got.EntryPrice, 1e-9)
	assert.InDelta(t, want.ExitPrice, got.ExitPrice, 1e-9)
	assert.True(t, got.EntryTime.Equal(want.EntryTime))
	assert.True(t, got.ExitTime.Equal(want.ExitTime))
	assert.InDelta(t, want.Profit, got.Profit, 1e-9)
	assert.Equal(t, want.Reason, got.Reason)
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTrade("R1", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetTradeSameIDDifferentRuns(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	exit := time.Date(2024, 4, 10, 10, 30, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(trade("A", 1, exit, 1)))
	require.NoError(t, j.RecordTrade(trade("B", 1, exit, -1)))

	a, err := j.GetTrade("A", 1)
	require.NoError(t, err)
	b, err := j.GetTrade("B", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.Profit)
	assert.Equal(t, -1.0, b.Profit)
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, h := range []int{9, 10, 14, 33} {
		require.NoError(t, j.RecordTrade(trade("R1", i+1, day.Add(time.Duration(h)*time.Hour), float64(i))))
	}

	got, err := j.ListTradesClosedBetween(day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].TradeID, got[1].TradeID, got[2].TradeID})

	// end is exclusive
	got, err = j.ListTradesClosedBetween(day, day.Add(10*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = j.ListTradesClosedBetween(day.AddDate(0, 1, 0), day.AddDate(0, 2, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListTradesClosedBetweenOtherZone(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	loc := time.FixedZone("ICT", 7*3600)
	exit := time.Date(2024, 5, 1, 10, 0, 0, 0, loc) // 03:00 UTC
	require.NoError(t, j.RecordTrade(trade("R1", 1, exit, 1)))

	dayLocal := time.Date(2024, 5, 1, 0, 0, 0, 0, loc)
	got, err := j.ListTradesClosedBetween(dayLocal, dayLocal.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].ExitTime.Equal(exit))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	exit := time.Now()
	tot := Summarize([]TradeRecord{
		trade("R", 1, exit, 3),
		trade("R", 2, exit, -1),
		trade("R", 3, exit, 0),
	})

	assert.Equal(t, Totals{Trades: 3, Wins: 1, Losses: 2, GrossProfit: 3, GrossLoss: 1, Net: 2}, tot)
	assert.Equal(t, Totals{}, Summarize(nil))
}
