package strategies

import (
	"github.com/rustyeddy/bbsma/market"
)

const BandCrossName = "bb_sma_reversion"

// BandCross signals a long entry when the close crosses from strictly above
// the lower Bollinger band to at or below it:
//
//	close[t-1] > lower[t-1] && close[t] <= lower[t]
//
// and the candle's time of day lies inside Hours (inclusive). Consecutive
// closes under the band produce a single signal on the first of them.
type BandCross struct {
	Hours market.Window
}

func NewBandCross(hours market.Window) BandCross {
	return BandCross{Hours: hours}
}

func (s BandCross) Name() string {
	return BandCrossName
}

// Evaluate returns the entry flag for each candle. The first candle and any
// candle whose predecessor has an undefined band never signal; NaN compares
// false on either side.
func (s BandCross) Evaluate(candles []market.Candle) []bool {
	out := make([]bool, len(candles))
	for t := 1; t < len(candles); t++ {
		prev, cur := candles[t-1], candles[t]
		out[t] = prev.Close > prev.Lower &&
			cur.Close <= cur.Lower &&
			s.Hours.Contains(cur.Time)
	}
	return out
}
