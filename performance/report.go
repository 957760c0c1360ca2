package performance

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintMetrics writes m as a fixed-width text report.
func PrintMetrics(w io.Writer, m Metrics) {
	rule := strings.Repeat("=", 50)

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "BACKTEST PERFORMANCE METRICS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total Trades:        %d\n", m.TotalTrades)
	fmt.Fprintf(w, "Winning Trades:      %d\n", m.WinningTrades)
	fmt.Fprintf(w, "Losing Trades:       %d\n", m.LosingTrades)
	fmt.Fprintf(w, "Win Rate:            %.2f%%\n", m.WinRate*100)
	fmt.Fprintf(w, "Total Profit:        %.2f\n", m.TotalProfit)
	fmt.Fprintf(w, "Total Return:        %.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(w, "Average Win:         %.2f\n", m.AvgWin)
	fmt.Fprintf(w, "Average Loss:        %.2f\n", m.AvgLoss)
	if m.ProfitFactorUndefined && m.TotalTrades > 0 {
		fmt.Fprintf(w, "Profit Factor:       %.2f (no losses)\n", m.ProfitFactor)
	} else {
		fmt.Fprintf(w, "Profit Factor:       %.2f\n", m.ProfitFactor)
	}
	fmt.Fprintf(w, "Expectancy:          %.2f\n", m.Expectancy)
	fmt.Fprintf(w, "Max Drawdown:        %.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(w, "Sharpe Ratio:        %.2f\n", m.SharpeRatio)
	fmt.Fprintf(w, "Max Losing Streak:   %d\n", m.MaxConsecutiveLosses)
	fmt.Fprintf(w, "Final Balance:       %.2f\n", m.FinalBalance)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintln(w, "Exit Reasons:")
	for _, reason := range SortedReasons(m.ExitReasons) {
		fmt.Fprintf(w, "  %s: %d\n", reason, m.ExitReasons[reason])
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

// SortedReasons returns the exit reasons by descending count, then name.
func SortedReasons(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for r := range counts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
