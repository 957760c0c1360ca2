package market

import (
	"math"
	"time"
)

// Candle represents one OHLCV bucket together with the indicator columns
// and entry flag consumed by the backtest engine.
type Candle struct {
	Time   time.Time
	Symbol string

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	// Bollinger columns. NaN until the indicator has warmed up.
	SMA   float64
	Lower float64
	Upper float64

	Signal bool
}

// NewCandle returns an OHLCV candle with undefined indicator columns.
func NewCandle(t time.Time, open, high, low, close, volume float64) Candle {
	return Candle{
		Time:   t,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
		SMA:    math.NaN(),
		Lower:  math.NaN(),
		Upper:  math.NaN(),
	}
}

// HasBands reports whether the SMA and lower band are both defined.
func (c Candle) HasBands() bool {
	return !math.IsNaN(c.SMA) && !math.IsNaN(c.Lower)
}

// Tick is a single matched trade.
type Tick struct {
	Time     time.Time
	Symbol   string
	Price    float64
	Quantity float64
}
