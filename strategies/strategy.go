// Package strategies derives per-candle entry signals.
package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/bbsma/market"
)

// SignalStrategy marks entry candles. Implementations must be pure: the
// output depends only on the input candles and never mutates them.
type SignalStrategy interface {
	Name() string

	// Evaluate returns one entry flag per input candle.
	Evaluate(candles []market.Candle) []bool
}

// Apply returns a copy of candles with Signal set from s.
func Apply(s SignalStrategy, candles []market.Candle) []market.Candle {
	flags := s.Evaluate(candles)
	out := make([]market.Candle, len(candles))
	copy(out, candles)
	for i := range out {
		out[i].Signal = flags[i]
	}
	return out
}

// ByName returns the named strategy configured with the given signal hours.
func ByName(name string, hours market.Window) (SignalStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BandCrossName, "bb-sma-reversion", "band-cross":
		return NewBandCross(hours), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, BandCrossName)
	}
}
