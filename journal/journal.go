// Package journal records backtest runs, their trades and their equity
// trace to CSV files or SQLite, and renders runs as org-mode reports.
package journal

import (
	"errors"
	"time"

	"github.com/rustyeddy/bbsma/backtest"
)

// ErrNotFound is returned when a run or trade does not exist.
var ErrNotFound = errors.New("journal: not found")

// TradeRecord is a closed trade as stored by a journal.
type TradeRecord struct {
	RunID      string
	TradeID    int
	Symbol     string
	Side       string
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	Target     float64
	Size       float64
	Gross      float64
	Commission float64
	Profit     float64
	Reason     string
}

// NewTradeRecord converts an engine trade.
func NewTradeRecord(runID, symbol string, t backtest.Trade) TradeRecord {
	return TradeRecord{
		RunID:      runID,
		TradeID:    t.ID,
		Symbol:     symbol,
		Side:       t.Side.String(),
		EntryTime:  t.EntryTime,
		EntryPrice: t.EntryPrice,
		ExitTime:   t.ExitTime,
		ExitPrice:  t.ExitPrice,
		Target:     t.Target,
		Size:       t.Size,
		Gross:      t.Gross,
		Commission: t.Commission,
		Profit:     t.Profit,
		Reason:     string(t.Reason),
	}
}

// EquitySnapshot is one point of a run's equity trace. Seq 0 is the
// starting balance.
type EquitySnapshot struct {
	RunID    string
	Seq      int
	Time     time.Time
	Balance  float64
	Position int
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Trades converts a result's ledger.
func Trades(runID, symbol string, res *backtest.Result) []TradeRecord {
	out := make([]TradeRecord, len(res.Trades))
	for i, t := range res.Trades {
		out[i] = NewTradeRecord(runID, symbol, t)
	}
	return out
}

// Snapshots converts a result's equity trace. The starting balance is
// stamped with the first candle's time.
func Snapshots(runID string, res *backtest.Result) []EquitySnapshot {
	out := make([]EquitySnapshot, 0, len(res.Equity))
	for i, bal := range res.Equity {
		s := EquitySnapshot{RunID: runID, Seq: i, Balance: bal}
		switch {
		case i == 0:
			s.Time = res.Start()
		case i-1 < len(res.Bars):
			s.Time = res.Bars[i-1].Time
			s.Position = res.Bars[i-1].Position
		}
		out = append(out, s)
	}
	return out
}

// Record writes every trade and equity point of res to j.
func Record(j Journal, runID, symbol string, res *backtest.Result) error {
	for _, t := range Trades(runID, symbol, res) {
		if err := j.RecordTrade(t); err != nil {
			return err
		}
	}
	for _, e := range Snapshots(runID, res) {
		if err := j.RecordEquity(e); err != nil {
			return err
		}
	}
	return nil
}
