package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/bbsma/performance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	open := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	closeT := time.Date(2024, 3, 15, 11, 15, 0, 0, time.UTC)

	rec := TradeRecord{
		RunID:      "01HZ12345678ABCD",
		TradeID:    4,
		Symbol:     "VN30F1M",
		Side:       "buy",
		EntryTime:  open,
		EntryPrice: 1350.5,
		ExitTime:   closeT,
		ExitPrice:  1353.25,
		Target:     1353.1,
		Size:       1,
		Gross:      2.75,
		Commission: 0.00275,
		Profit:     2.74725,
		Reason:     "take_profit",
	}

	result := FormatTradeOrg(rec)

	assert.Contains(t, result, "** Trade: VN30F1M #4 (01HZ1234)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":ID: 01HZ12345678ABCD-4")
	assert.Contains(t, result, ":TRADE_ID: 4")
	assert.Contains(t, result, ":SIDE: buy")
	assert.Contains(t, result, ":SIZE: 1")
	assert.Contains(t, result, ":ENTRY_PRICE: 1350.50")
	assert.Contains(t, result, ":TARGET: 1353.10")
	assert.Contains(t, result, ":EXIT_PRICE: 1353.25")
	assert.Contains(t, result, ":ENTRY_TIME: 2024-03-15T10:30:00Z")
	assert.Contains(t, result, ":EXIT_TIME: 2024-03-15T11:15:00Z")
	assert.Contains(t, result, ":PROFIT: 2.75")
	assert.Contains(t, result, ":REASON: take_profit")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Execution")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgNegativeProfit(t *testing.T) {
	t.Parallel()

	rec := trade("R1", 1, time.Now(), -2)
	rec.Profit = -2.0027
	assert.Contains(t, FormatTradeOrg(rec), ":PROFIT: -2.00")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	exit := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	result := FormatTradesOrg([]TradeRecord{
		trade("R1", 1, exit, 2),
		trade("R1", 2, exit.Add(time.Hour), -2),
	})

	assert.Contains(t, result, "#1")
	assert.Contains(t, result, "#2")
	parts := strings.Split(result, "\n\n\n")
	assert.Len(t, parts, 2, "trades separated by a blank line")
}

func TestFormatTradesOrgEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatTradesOrg(nil))
}

func TestFormatTradesOrgSingle(t *testing.T) {
	t.Parallel()

	result := FormatTradesOrg([]TradeRecord{trade("R1", 1, time.Now(), 1)})
	assert.NotContains(t, result, "\n\n\n")
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"long ID gets truncated", "01HZ12345678ABCDEFGH", "01HZ1234"},
		{"exactly 8 characters", "12345678", "12345678"},
		{"less than 8 characters", "short", "short"},
		{"empty string", "", ""},
		{"exactly 9 characters gets truncated", "123456789", "12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shortID(tt.input))
		})
	}
}

func TestFormatTradeOrgStructure(t *testing.T) {
	t.Parallel()

	result := FormatTradeOrg(trade("R1", 1, time.Now(), 1))
	lines := strings.Split(result, "\n")
	require.Greater(t, len(lines), 10)

	assert.True(t, strings.HasPrefix(lines[0], "** Trade:"))

	index := func(s string) int {
		for i, line := range lines {
			if strings.HasPrefix(line, s) {
				return i
			}
		}
		return -1
	}
	props, end := index(":PROPERTIES:"), index(":END:")
	thesis, execution, review := index("*** Thesis"), index("*** Execution"), index("*** Review")

	assert.Equal(t, 1, props)
	assert.Greater(t, end, props)
	assert.Greater(t, thesis, end)
	assert.Greater(t, execution, thesis)
	assert.Greater(t, review, execution)
}

func TestRenderBacktestOrg(t *testing.T) {
	t.Parallel()

	run, _, _ := sampleRun("01HZRUN")
	run.Notes = []string{"quiet week"}
	run.NextActions = []string{"try bb_std 2.5"}

	var sb strings.Builder
	require.NoError(t, run.RenderOrg(&sb))
	out := sb.String()

	assert.True(t, strings.HasPrefix(out, "* BACKTEST: BB-SMA Reversion VN30F1M 15min"))
	assert.Contains(t, out, ":STRATEGY:    bb_sma_reversion")
	assert.Contains(t, out, ":START_DATE:  2024-01-02")
	assert.Contains(t, out, ":TRADES:      1")
	assert.Contains(t, out, ":WIN_RATE:    100.00")
	assert.Contains(t, out, "(no losses)")
	assert.Contains(t, out, "| BB window        | 20 |")
	assert.Contains(t, out, "| Commission %     | 0.100 |")
	assert.Contains(t, out, "#+begin_src yaml")
	assert.Contains(t, out, "| take_profit | 1 |")
	assert.Contains(t, out, "- quiet week")
	assert.Contains(t, out, "- [ ] try bb_std 2.5")
}

func TestRenderBacktestOrgEmptyRun(t *testing.T) {
	t.Parallel()

	run := BacktestRun{RunID: "E", Metrics: performance.Empty()}

	var sb strings.Builder
	require.NoError(t, run.RenderOrg(&sb))
	out := sb.String()
	assert.Contains(t, out, "(timeframe?)")
	assert.Contains(t, out, ":TRADES:      0")
	assert.NotContains(t, out, "Exit reason")
	assert.NotContains(t, out, "#+begin_src")
}

func TestWriteBacktestOrg(t *testing.T) {
	t.Parallel()

	run, _, _ := sampleRun("01HZRUN")
	run.OrgPath = filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, run.WriteBacktestOrg())

	data, err := os.ReadFile(run.OrgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), ":RUN_ID:      01HZRUN")

	run.OrgPath = ""
	assert.Error(t, run.WriteBacktestOrg())
}
