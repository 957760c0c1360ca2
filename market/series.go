package market

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptySeries is returned when a candle stream has no candles.
	ErrEmptySeries = errors.New("empty candle series")

	// ErrOutOfOrder is returned when timestamps are not strictly increasing.
	ErrOutOfOrder = errors.New("candle timestamps not strictly increasing")

	// ErrUndefinedValue is returned when a price or indicator needed for a
	// decision is NaN.
	ErrUndefinedValue = errors.New("undefined value")

	// ErrMissingColumn is returned by the CSV readers when a required column
	// is absent from the header.
	ErrMissingColumn = errors.New("missing required column")
)

// Validate checks that candles is non-empty and strictly increasing in time.
func Validate(candles []Candle) error {
	if len(candles) == 0 {
		return ErrEmptySeries
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return fmt.Errorf("%w: candle %d at %s follows %s",
				ErrOutOfOrder, i,
				candles[i].Time.Format(time.RFC3339),
				candles[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// DropUndefined returns the candles whose SMA and lower band are defined.
// The input is not modified.
func DropUndefined(candles []Candle) []Candle {
	out := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if c.HasBands() {
			out = append(out, c)
		}
	}
	return out
}

// SplitTrainTest splits candles into a training set (Time <= trainEnd) and a
// test set (Time >= testStart). A zero testStart means one day after trainEnd.
func SplitTrainTest(candles []Candle, trainEnd, testStart time.Time) (train, test []Candle) {
	if testStart.IsZero() {
		testStart = trainEnd.AddDate(0, 0, 1)
	}

	train = make([]Candle, 0, len(candles))
	test = make([]Candle, 0, len(candles))
	for _, c := range candles {
		if !c.Time.After(trainEnd) {
			train = append(train, c)
		}
		if !c.Time.Before(testStart) {
			test = append(test, c)
		}
	}
	return train, test
}

// Between returns the candles with from <= Time < to. Zero bounds are open.
func Between(candles []Candle, from, to time.Time) []Candle {
	out := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if inRange(c.Time, from, to) {
			out = append(out, c)
		}
	}
	return out
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
