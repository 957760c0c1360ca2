package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/bbsma/performance"
)

// BacktestRun mirrors the runs table.
type BacktestRun struct {
	RunID     string
	Created   time.Time
	Strategy  string
	Symbol    string
	Timeframe string
	Dataset   string
	Segment   string
	Config    []byte // YAML of the configuration that produced the run

	// Strategy parameters
	BBWindow       int
	BBStd          float64
	StopLoss       float64 // points below entry
	CommissionRate float64

	// Span of the simulated candles
	Start time.Time
	End   time.Time

	Metrics performance.Metrics

	OrgPath string

	Notes       []string
	NextActions []string
}

var backtestOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"reasons": performance.SortedReasons,
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// RenderOrg writes the run as an org-mode entry.
func (v *BacktestRun) RenderOrg(w io.Writer) error {
	return backtestOrg.Execute(w, v)
}

// WriteBacktestOrg renders the run to v.OrgPath.
func (v *BacktestRun) WriteBacktestOrg() error {
	if v.OrgPath == "" {
		return fmt.Errorf("backtest %s: no org path", v.RunID)
	}
	buf := new(bytes.Buffer)
	if err := v.RenderOrg(buf); err != nil {
		return fmt.Errorf("render org: %w", err)
	}
	return os.WriteFile(v.OrgPath, buf.Bytes(), 0644)
}

const BacktestOrgTemplate = `* BACKTEST: BB-SMA Reversion {{.Symbol}} {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{if .Strategy}}{{.Strategy}}{{else}}bb_sma_reversion{{end}}
:TIMEFRAME:   {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:SYMBOL:      {{.Symbol}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:SEGMENT:     {{if .Segment}}{{.Segment}}{{else}}all{{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_BAL:   {{printf "%.2f" .Metrics.InitialBalance}}
:END_BAL:     {{printf "%.2f" .Metrics.FinalBalance}}
:NET_PL:      {{printf "%.2f" .Metrics.TotalProfit}}
:RETURN_PCT:  {{printf "%.2f" (mul100 .Metrics.TotalReturn)}}
:MAX_DD_PCT:  {{printf "%.2f" (mul100 .Metrics.MaxDrawdown)}}
:TRADES:      {{.Metrics.TotalTrades}}
:WINS:        {{.Metrics.WinningTrades}}
:LOSSES:      {{.Metrics.LosingTrades}}
:WIN_RATE:    {{printf "%.2f" (mul100 .Metrics.WinRate)}}
:PROFIT_FAC:  {{printf "%.2f" .Metrics.ProfitFactor}}{{if .Metrics.ProfitFactorUndefined}} (no losses){{end}}
:SHARPE:      {{printf "%.2f" .Metrics.SharpeRatio}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategy Parameters
| Parameter        | Value |
|------------------+-------|
| BB window        | {{.BBWindow}} |
| BB std           | {{printf "%.2f" .BBStd}} |
| Stop (points)    | {{printf "%.2f" .StopLoss}} |
| Commission %     | {{printf "%.3f" (mul100 .CommissionRate)}} |
{{- if .Config}}

#+begin_src yaml
{{printf "%s" .Config}}#+end_src
{{- end}}

** Performance Summary
- Net P/L:          *{{printf "%.2f" .Metrics.TotalProfit}}*
- Return:           *{{printf "%.2f" (mul100 .Metrics.TotalReturn)}}%*
- Max Drawdown:     *{{printf "%.2f" (mul100 .Metrics.MaxDrawdown)}}%*
- Win Rate:         *{{printf "%.2f" (mul100 .Metrics.WinRate)}}%*
- Profit Factor:    *{{printf "%.2f" .Metrics.ProfitFactor}}*
- Expectancy:       *{{printf "%.2f" .Metrics.Expectancy}}*
- Sharpe Ratio:     *{{printf "%.2f" .Metrics.SharpeRatio}}*
- Losing Streak:    *{{.Metrics.MaxConsecutiveLosses}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Metrics.WinningTrades}} |
| Losses  | {{.Metrics.LosingTrades}} |
| Total   | {{.Metrics.TotalTrades}} |
{{- if .Metrics.ExitReasons}}

| Exit reason | Count |
|-------------+-------|
{{- $m := .Metrics.ExitReasons}}
{{- range reasons $m}}
| {{.}} | {{index $m .}} |
{{- end}}
{{- end}}

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}

{{- if .NextActions }}

** Notes / Next Actions
{{- range .NextActions }}
- [ ] {{.}}
{{- end }}
{{- end }}
`
