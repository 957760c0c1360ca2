package market

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParseTimeframe accepts pandas-style frequencies ("15min", "1h", "30T", "1D")
// as well as Go durations ("15m", "1h30m").
func ParseTimeframe(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	units := []struct {
		suffix string
		unit   time.Duration
	}{
		{"min", time.Minute},
		{"t", time.Minute},
		{"h", time.Hour},
		{"d", 24 * time.Hour},
		{"s", time.Second},
	}
	for _, u := range units {
		if !strings.HasSuffix(lower, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(lower, u.suffix))
		if err != nil {
			break
		}
		if n <= 0 {
			return 0, fmt.Errorf("bad timeframe %q: must be positive", s)
		}
		return time.Duration(n) * u.unit, nil
	}

	d, err := time.ParseDuration(lower)
	if err != nil {
		return 0, fmt.Errorf("bad timeframe %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("bad timeframe %q: must be positive", s)
	}
	return d, nil
}

// bucketStart aligns t to the timeframe grid anchored at local midnight.
func bucketStart(t time.Time, tf time.Duration) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	off := t.Sub(midnight)
	return midnight.Add(off - off%tf)
}

// Resample aggregates ticks inside hours into OHLCV candles of width tf.
// Buckets without ticks are omitted. Volume is the summed quantity, or the
// tick count when no tick carries a quantity. The candle symbol is the most
// frequent symbol in the bucket. Indicator columns are left undefined.
func Resample(ticks []Tick, tf time.Duration, hours Window) ([]Candle, error) {
	if tf <= 0 {
		return nil, fmt.Errorf("resample: timeframe must be positive, got %s", tf)
	}

	in := make([]Tick, 0, len(ticks))
	hasQty := false
	for _, tk := range ticks {
		if !hours.Contains(tk.Time) {
			continue
		}
		if tk.Quantity != 0 {
			hasQty = true
		}
		in = append(in, tk)
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].Time.Before(in[j].Time) })

	var (
		out     []Candle
		cur     Candle
		symbols map[string]int
		open    bool
	)
	flush := func() {
		if !open {
			return
		}
		cur.Symbol = modeSymbol(symbols)
		out = append(out, cur)
		open = false
	}

	for _, tk := range in {
		start := bucketStart(tk.Time, tf)
		if !open || !start.Equal(cur.Time) {
			flush()
			cur = NewCandle(start, tk.Price, tk.Price, tk.Price, tk.Price, 0)
			symbols = map[string]int{}
			open = true
		}

		cur.High = math.Max(cur.High, tk.Price)
		cur.Low = math.Min(cur.Low, tk.Price)
		cur.Close = tk.Price
		if hasQty {
			cur.Volume += tk.Quantity
		} else {
			cur.Volume++
		}
		if tk.Symbol != "" {
			symbols[tk.Symbol]++
		}
	}
	flush()

	return out, nil
}

// modeSymbol returns the most frequent symbol, breaking ties by name.
func modeSymbol(counts map[string]int) string {
	best, n := "", 0
	for s, c := range counts {
		if c > n || (c == n && s < best) {
			best, n = s, c
		}
	}
	return best
}
