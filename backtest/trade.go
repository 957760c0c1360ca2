package backtest

import (
	"time"

	"github.com/rustyeddy/bbsma/market"
)

// Side: +1 long. Shorts are not simulated.
type Side int8

const Long Side = +1

func (s Side) String() string {
	if s == Long {
		return "buy"
	}
	return "sell"
}

// ExitReason names the rule that closed a position.
type ExitReason string

const (
	TakeProfit  ExitReason = "take_profit"
	StopLoss    ExitReason = "stop_loss"
	MarketClose ExitReason = "market_close"
)

// ExitReasons lists the exit rules in evaluation order.
var ExitReasons = []ExitReason{TakeProfit, StopLoss, MarketClose}

// PositionSize is the fixed number of units traded per entry.
const PositionSize = 1.0

// Position is the open long held by the engine between entry and exit.
type Position struct {
	EntryPrice float64
	EntryTime  time.Time

	// Target is the SMA at entry; the take-profit level for the whole trade.
	Target float64
}

// Trade is one closed position. Trades are appended to the ledger once and
// never modified.
type Trade struct {
	ID         int
	Side       Side
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	Reason     ExitReason
	Size       float64

	Gross      float64 // (exit - entry) * size
	Commission float64 // |gross| * rate
	Profit     float64 // gross - commission

	Target float64
}

// Bar is an input candle annotated with the engine's state after it was
// processed.
type Bar struct {
	market.Candle

	// Position is 1 while a long is held, including its entry and exit bars.
	Position   int
	EntryPrice float64 // NaN unless a position opened on this bar
	ExitPrice  float64 // NaN unless a position closed on this bar
	Profit     float64 // net profit realised on this bar
	Balance    float64
}

// Result is everything a single engine run produces.
type Result struct {
	Trades []Trade

	// Equity holds the starting balance followed by the balance after each
	// candle, so len(Equity) == len(Bars)+1.
	Equity []float64
	Bars   []Bar

	StartingBalance float64
	FinalBalance    float64
}

// TotalReturn is the fractional change from the starting balance.
func (r *Result) TotalReturn() float64 {
	if r.StartingBalance == 0 {
		return 0
	}
	return (r.FinalBalance - r.StartingBalance) / r.StartingBalance
}

// Start returns the first candle time, or the zero time for an empty run.
func (r *Result) Start() time.Time {
	if len(r.Bars) == 0 {
		return time.Time{}
	}
	return r.Bars[0].Time
}

// End returns the last candle time, or the zero time for an empty run.
func (r *Result) End() time.Time {
	if len(r.Bars) == 0 {
		return time.Time{}
	}
	return r.Bars[len(r.Bars)-1].Time
}
