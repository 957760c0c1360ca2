package strategies

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/bbsma/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bar struct {
	hhmm  string
	close float64
	lower float64
}

func candles(t *testing.T, bars ...bar) []market.Candle {
	t.Helper()

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(bars))
	for i, b := range bars {
		clk, err := market.ParseClock(b.hhmm)
		require.NoError(t, err)
		c := market.NewCandle(day.Add(time.Duration(clk)), b.close, b.close, b.close, b.close, 0)
		c.Lower = b.lower
		c.SMA = b.lower + 2
		out[i] = c
	}
	return out
}

func TestBandCrossEvaluate(t *testing.T) {
	t.Parallel()

	s := NewBandCross(market.SignalHours)
	nan := math.NaN()

	tests := []struct {
		name string
		bars []bar
		want []bool
	}{
		{
			name: "cross below band",
			bars: []bar{{"10:00", 102, 101}, {"10:15", 100, 101}},
			want: []bool{false, true},
		},
		{
			name: "touching band counts",
			bars: []bar{{"10:00", 102, 101}, {"10:15", 101, 101}},
			want: []bool{false, true},
		},
		{
			name: "previous on band does not",
			bars: []bar{{"10:00", 101, 101}, {"10:15", 100, 101}},
			want: []bool{false, false},
		},
		{
			name: "run below band signals once",
			bars: []bar{{"10:00", 102, 101}, {"10:15", 100, 101}, {"10:30", 99, 101}, {"10:45", 98, 100}},
			want: []bool{false, true, false, false},
		},
		{
			name: "re-cross after recovery",
			bars: []bar{{"10:00", 102, 101}, {"10:15", 100, 101}, {"10:30", 103, 101}, {"10:45", 100, 101}},
			want: []bool{false, true, false, true},
		},
		{
			name: "undefined previous band",
			bars: []bar{{"10:00", 102, nan}, {"10:15", 100, 101}},
			want: []bool{false, false},
		},
		{
			name: "undefined current band",
			bars: []bar{{"10:00", 102, 101}, {"10:15", 100, nan}},
			want: []bool{false, false},
		},
		{
			name: "before trading window",
			bars: []bar{{"09:00", 102, 101}, {"09:14", 100, 101}},
			want: []bool{false, false},
		},
		{
			name: "window bounds inclusive",
			bars: []bar{{"09:00", 102, 101}, {"09:15", 100, 101}, {"14:15", 102, 101}, {"14:30", 100, 101}},
			want: []bool{false, true, false, true},
		},
		{
			name: "after trading window",
			bars: []bar{{"14:30", 102, 101}, {"14:45", 100, 101}},
			want: []bool{false, false},
		},
		{
			name: "first candle never signals",
			bars: []bar{{"10:00", 90, 101}},
			want: []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Evaluate(candles(t, tt.bars...)))
		})
	}
}

func TestBandCrossEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, NewBandCross(market.SignalHours).Evaluate(nil))
}

func TestApplyCopies(t *testing.T) {
	t.Parallel()

	in := candles(t, bar{"10:00", 102, 101}, bar{"10:15", 100, 101})
	out := Apply(NewBandCross(market.SignalHours), in)

	assert.True(t, out[1].Signal)
	assert.False(t, in[1].Signal, "input untouched")
	assert.Equal(t, in[1].Close, out[1].Close)
}

func TestByName(t *testing.T) {
	t.Parallel()

	s, err := ByName("bb-sma-reversion", market.SignalHours)
	require.NoError(t, err)
	assert.Equal(t, BandCrossName, s.Name())

	_, err = ByName("ema-cross", market.SignalHours)
	assert.Error(t, err)
}
