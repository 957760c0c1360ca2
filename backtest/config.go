package backtest

import (
	"fmt"
	"math"

	"github.com/rustyeddy/bbsma/market"
)

// Config holds the engine parameters.
type Config struct {
	StartingBalance float64
	CommissionRate  float64 // fraction of |gross profit|, in [0,1)
	StopLoss        float64 // price distance below entry

	// EntryCutoff: entries only on candles strictly before this time of day.
	EntryCutoff market.Clock
	// SessionClose: open positions are closed on the first candle at or
	// after this time of day.
	SessionClose market.Clock
}

// DefaultConfig matches the strategy's published parameters.
func DefaultConfig() Config {
	return Config{
		StartingBalance: 100_000,
		CommissionRate:  0.001,
		StopLoss:        2,
		EntryCutoff:     market.EntryCutoff,
		SessionClose:    market.MarketClose,
	}
}

// Validate checks the parameters are usable.
func (c Config) Validate() error {
	if !(c.StartingBalance > 0) || math.IsInf(c.StartingBalance, 0) {
		return fmt.Errorf("starting balance must be positive, got %v", c.StartingBalance)
	}
	if !(c.CommissionRate >= 0 && c.CommissionRate < 1) {
		return fmt.Errorf("commission rate must be in [0,1), got %v", c.CommissionRate)
	}
	if !(c.StopLoss > 0) || math.IsInf(c.StopLoss, 0) {
		return fmt.Errorf("stop loss distance must be positive, got %v", c.StopLoss)
	}
	if c.EntryCutoff < 0 || c.SessionClose < 0 {
		return fmt.Errorf("entry cutoff and session close must be times of day")
	}
	return nil
}
