// Package indicators provides streaming technical indicators over candles.
package indicators

import "github.com/rustyeddy/bbsma/market"

// Indicator computes a streaming value from candles.
// It is deterministic and safe to reuse across backtests after Reset.
type Indicator interface {
	// Name returns a stable identifier like "BB(20,2.0)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed candle.
	Update(c market.Candle)

	// Ready reports whether the current value is meaningful.
	Ready() bool
}
