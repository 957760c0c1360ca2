package journal

import (
	"context"
	"fmt"
	"time"
)

// GetTrade returns a single trade of a run.
func (j *SQLite) GetTrade(runID string, tradeID int) (TradeRecord, error) {
	recs, err := j.queryTrades(context.Background(), `WHERE run_id = ? AND trade_id = ?`, runID, tradeID)
	if err != nil {
		return TradeRecord{}, err
	}
	if len(recs) == 0 {
		return TradeRecord{}, fmt.Errorf("trade %s/%d: %w", runID, tradeID, ErrNotFound)
	}
	return recs[0], nil
}

// ListTradesClosedBetween returns trades of all runs whose exit time is
// within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	return j.queryTrades(context.Background(),
		`WHERE exit_time >= ? AND exit_time < ? ORDER BY exit_time ASC, run_id ASC, trade_id ASC`,
		start.UTC(), end.UTC())
}

// Totals summarises a set of trade records.
type Totals struct {
	Trades      int
	Wins        int
	Losses      int
	GrossProfit float64
	GrossLoss   float64
	Net         float64
}

// Summarize totals recs. Zero-profit trades count as losses.
func Summarize(recs []TradeRecord) Totals {
	var t Totals
	for _, r := range recs {
		t.Trades++
		t.Net += r.Profit
		if r.Profit > 0 {
			t.Wins++
			t.GrossProfit += r.Profit
		} else {
			t.Losses++
			t.GrossLoss -= r.Profit
		}
	}
	return t
}
