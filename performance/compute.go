package performance

import "math"

// computeMean calculates the arithmetic mean, 0 for no values.
func computeMean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(xs []float64, mean float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeMaxDrawdown returns the most negative fractional decline of equity
// from its running peak. Points with a non-positive peak are skipped.
func computeMaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// computeMaxConsecutiveLosses counts the longest run of non-positive profits.
func computeMaxConsecutiveLosses(profits []float64) int {
	longest, run := 0, 0
	for _, p := range profits {
		if p > 0 {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}

// computeSharpe annualises the mean excess per-trade return over its sample
// standard deviation. It returns 0 for fewer than two returns or zero spread.
func computeSharpe(returns []float64, riskFree float64, periods int) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := computeMean(returns)
	sd := computeStddev(returns, mean)
	if sd == 0 {
		return 0
	}
	p := float64(periods)
	return (mean - riskFree/p) / sd * math.Sqrt(p)
}
