package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/bbsma/market"
)

// Bollinger is a streaming simple moving average of closes with bands at
// NumStd sample standard deviations (n-1 denominator) above and below it.
type Bollinger struct {
	period int
	numStd float64
	closes []float64
}

// NewBollinger creates a Bollinger indicator over period closes.
func NewBollinger(period int, numStd float64) *Bollinger {
	return &Bollinger{
		period: period,
		numStd: numStd,
		closes: make([]float64, 0, period),
	}
}

func (b *Bollinger) Name() string {
	return fmt.Sprintf("BB(%d,%.1f)", b.period, b.numStd)
}

func (b *Bollinger) Warmup() int {
	return b.period
}

func (b *Bollinger) Reset() {
	b.closes = b.closes[:0]
}

func (b *Bollinger) Update(c market.Candle) {
	b.closes = append(b.closes, c.Close)
	if len(b.closes) > b.period {
		b.closes = b.closes[1:]
	}
}

func (b *Bollinger) Ready() bool {
	return b.period > 0 && len(b.closes) >= b.period
}

// Mean returns the moving average, or NaN before warmup.
func (b *Bollinger) Mean() float64 {
	if !b.Ready() {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range b.closes {
		sum += x
	}
	return sum / float64(len(b.closes))
}

// StdDev returns the sample standard deviation of the window. A window of
// one close has no sample deviation and yields NaN.
func (b *Bollinger) StdDev() float64 {
	n := len(b.closes)
	if !b.Ready() || n < 2 {
		return math.NaN()
	}
	mean := b.Mean()
	ss := 0.0
	for _, x := range b.closes {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Bands returns the middle, lower and upper band values.
func (b *Bollinger) Bands() (mid, lower, upper float64) {
	mid = b.Mean()
	sd := b.StdDev()
	return mid, mid - b.numStd*sd, mid + b.numStd*sd
}

// Apply runs a fresh Bollinger(period, numStd) over candles and returns a copy
// with SMA, Lower and Upper filled in. Candles before warmup keep NaN bands.
func Apply(candles []market.Candle, period int, numStd float64) ([]market.Candle, error) {
	if period < 2 {
		return nil, fmt.Errorf("bollinger: period must be at least 2, got %d", period)
	}
	if numStd <= 0 {
		return nil, fmt.Errorf("bollinger: std multiplier must be positive, got %v", numStd)
	}

	bb := NewBollinger(period, numStd)
	out := make([]market.Candle, len(candles))
	for i, c := range candles {
		bb.Update(c)
		c.SMA, c.Lower, c.Upper = bb.Bands()
		out[i] = c
	}
	return out, nil
}
