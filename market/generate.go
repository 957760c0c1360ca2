package market

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// GenerateOptions controls the synthetic candle generator.
type GenerateOptions struct {
	Start     time.Time // first calendar day (inclusive)
	End       time.Time // last calendar day (inclusive)
	Timeframe time.Duration
	BasePrice float64
	Symbol    string
	Seed      int64

	// Sessions lists the inclusive intraday windows candles are emitted in.
	Sessions []Window
}

// DefaultSessions are the VN30 futures continuous-matching sessions.
var DefaultSessions = []Window{
	{Start: NewClock(9, 15), End: NewClock(11, 30)},
	{Start: NewClock(13, 0), End: NewClock(14, 45)},
}

// roundTick rounds to the 0.1 VN30 futures price increment.
func roundTick(x float64) float64 {
	return math.Round(x*10) / 10
}

// Generate produces a seeded random-walk candle series over weekdays in
// [Start, End]. Close follows the walk; open, high and low are jittered around
// it, and prices are rounded to the 0.1 tick. The same options always
// produce the same series.
func Generate(opts GenerateOptions) ([]Candle, error) {
	if opts.Timeframe <= 0 {
		opts.Timeframe = 15 * time.Minute
	}
	if opts.BasePrice <= 0 {
		opts.BasePrice = 1350
	}
	if opts.Symbol == "" {
		opts.Symbol = "VN30F1M"
	}
	if len(opts.Sessions) == 0 {
		opts.Sessions = DefaultSessions
	}
	if opts.Start.IsZero() || opts.End.IsZero() {
		return nil, fmt.Errorf("generate: start and end are required")
	}
	if opts.End.Before(opts.Start) {
		return nil, fmt.Errorf("generate: end %s before start %s",
			opts.End.Format("2006-01-02"), opts.Start.Format("2006-01-02"))
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	loc := opts.Start.Location()
	price := opts.BasePrice

	var out []Candle
	day := time.Date(opts.Start.Year(), opts.Start.Month(), opts.Start.Day(), 0, 0, 0, 0, loc)
	last := time.Date(opts.End.Year(), opts.End.Month(), opts.End.Day(), 0, 0, 0, 0, loc)

	for ; !day.After(last); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for _, s := range opts.Sessions {
			for c := s.Start; c <= s.End; c += Clock(opts.Timeframe) {
				price += rng.NormFloat64() * 2

				open := price + rng.NormFloat64()*0.5
				high := math.Max(open, price) + math.Abs(rng.NormFloat64())
				low := math.Min(open, price) - math.Abs(rng.NormFloat64())
				vol := float64(100 + rng.Intn(900))

				candle := NewCandle(day.Add(time.Duration(c)),
					roundTick(open), roundTick(high), roundTick(low), roundTick(price), vol)
				candle.Symbol = opts.Symbol
				out = append(out, candle)
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrEmptySeries
	}
	return out, nil
}
