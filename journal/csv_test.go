package journal

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func newTestCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()
	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")
	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	return j, tradesPath, equityPath
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	j, tradesPath, equityPath := newTestCSV(t)
	assert.NoError(t, j.Close())

	assert.Equal(t, [][]string{tradeHeader}, readCSV(t, tradesPath))
	assert.Equal(t, [][]string{equityHeader}, readCSV(t, equityPath))
}

func TestCSVJournalRecordTrade(t *testing.T) {
	t.Parallel()

	j, tradesPath, _ := newTestCSV(t)

	open := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	closeT := time.Date(2024, 1, 2, 10, 15, 0, 0, time.UTC)

	err := j.RecordTrade(TradeRecord{
		RunID:      "R1",
		TradeID:    3,
		Symbol:     "VN30F1M",
		Side:       "buy",
		EntryTime:  open,
		EntryPrice: 1350.5,
		ExitTime:   closeT,
		ExitPrice:  1348.5,
		Target:     1353.25,
		Size:       1,
		Gross:      -2,
		Commission: 0.002,
		Profit:     -2.002,
		Reason:     "stop_loss",
	})
	assert.NoError(t, err)
	assert.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	require.Len(t, rows, 2)

	want := []string{
		"R1", "3", "VN30F1M", "buy",
		open.Format(time.RFC3339), "1350.500000",
		closeT.Format(time.RFC3339), "1348.500000",
		"1353.250000", "1.000000", "-2.000000", "0.002000", "-2.002000",
		"stop_loss",
	}
	assert.Equal(t, want, rows[1])
}

func TestCSVJournalRecordEquity(t *testing.T) {
	t.Parallel()

	j, _, equityPath := newTestCSV(t)

	ts := time.Date(2024, 2, 3, 9, 15, 0, 0, time.UTC)
	assert.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "R1", Seq: 4, Time: ts, Balance: 100001.5, Position: 1}))
	assert.NoError(t, j.Close())

	rows := readCSV(t, equityPath)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"R1", "4", ts.Format(time.RFC3339), "100001.500000", "1"}, rows[1])
}

func TestCSVJournalRecordResult(t *testing.T) {
	t.Parallel()

	j, tradesPath, equityPath := newTestCSV(t)
	res := sampleResult()

	require.NoError(t, Record(j, "R9", "VN30F1M", res))
	require.NoError(t, j.Close())

	assert.Len(t, readCSV(t, tradesPath), 1+len(res.Trades))
	assert.Len(t, readCSV(t, equityPath), 1+len(res.Equity))
}

func TestNewCSVBadPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewCSV(filepath.Join(dir, "missing", "trades.csv"), filepath.Join(dir, "equity.csv"))
	assert.Error(t, err)
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", f(math.NaN()))
	assert.Equal(t, "1.500000", f(1.5))
}
