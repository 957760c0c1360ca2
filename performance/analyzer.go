// Package performance summarises a backtest's trade ledger and equity trace.
package performance

import (
	"github.com/rustyeddy/bbsma/backtest"
)

// TradingDays annualises per-trade Sharpe ratios.
const TradingDays = 252

// DefaultRiskFreeRate is the annual risk-free rate used when none is given.
const DefaultRiskFreeRate = 0.03

// Metrics is the fixed set of statistics produced by Analyze.
type Metrics struct {
	TotalTrades   int     `json:"total_trades" yaml:"total_trades"`
	WinningTrades int     `json:"winning_trades" yaml:"winning_trades"`
	LosingTrades  int     `json:"losing_trades" yaml:"losing_trades"`
	WinRate       float64 `json:"win_rate" yaml:"win_rate"`

	TotalProfit float64 `json:"total_profit" yaml:"total_profit"`
	TotalReturn float64 `json:"total_return" yaml:"total_return"`
	AvgWin      float64 `json:"avg_win" yaml:"avg_win"`
	AvgLoss     float64 `json:"avg_loss" yaml:"avg_loss"`

	GrossProfit float64 `json:"gross_profit" yaml:"gross_profit"`
	GrossLoss   float64 `json:"gross_loss" yaml:"gross_loss"`

	// ProfitFactor keeps the historical convention of dividing by 1 when
	// there are no losing trades. ProfitFactorUndefined marks every case
	// where the true gross loss is zero so callers can tell it apart.
	ProfitFactor          float64 `json:"profit_factor" yaml:"profit_factor"`
	ProfitFactorUndefined bool    `json:"profit_factor_undefined" yaml:"profit_factor_undefined"`

	Expectancy           float64 `json:"expectancy" yaml:"expectancy"`
	MaxDrawdown          float64 `json:"max_drawdown" yaml:"max_drawdown"`
	SharpeRatio          float64 `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses" yaml:"max_consecutive_losses"`

	ExitReasons map[string]int `json:"exit_reasons" yaml:"exit_reasons"`

	FinalBalance   float64 `json:"final_balance" yaml:"final_balance"`
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
}

// Analyzer computes Metrics. It holds no state between calls and never
// modifies its inputs, so one value may be shared across goroutines.
type Analyzer struct {
	RiskFreeRate float64
	Periods      int // annualisation periods, TradingDays if zero
}

// NewAnalyzer returns an Analyzer using the given annual risk-free rate.
func NewAnalyzer(riskFreeRate float64) Analyzer {
	return Analyzer{RiskFreeRate: riskFreeRate, Periods: TradingDays}
}

// Empty returns the metrics reported for a run with no trades.
func Empty() Metrics {
	return Metrics{ExitReasons: map[string]int{}}
}

// Analyze computes the metrics for trades and the equity trace of the same
// run. startingBalance scales total return and per-trade returns.
func (a Analyzer) Analyze(trades []backtest.Trade, equity []float64, startingBalance float64) Metrics {
	if len(trades) == 0 {
		return Empty()
	}

	periods := a.Periods
	if periods <= 0 {
		periods = TradingDays
	}

	m := Metrics{
		TotalTrades:    len(trades),
		ExitReasons:    map[string]int{},
		InitialBalance: startingBalance,
	}

	var wins, losses []float64
	profits := make([]float64, len(trades))
	returns := make([]float64, len(trades))
	for i, t := range trades {
		profits[i] = t.Profit
		if startingBalance != 0 {
			returns[i] = t.Profit / startingBalance
		}
		m.TotalProfit += t.Profit
		m.ExitReasons[string(t.Reason)]++

		if t.Profit > 0 {
			wins = append(wins, t.Profit)
			m.GrossProfit += t.Profit
		} else {
			losses = append(losses, t.Profit)
			m.GrossLoss -= t.Profit
		}
	}

	m.WinningTrades = len(wins)
	m.LosingTrades = len(losses)
	m.WinRate = computeWinRate(len(wins), len(trades))
	if startingBalance != 0 {
		m.TotalReturn = m.TotalProfit / startingBalance
	}
	m.AvgWin = computeMean(wins)
	m.AvgLoss = computeMean(losses)

	divisor := m.GrossLoss
	if len(losses) == 0 {
		divisor = 1
	}
	if divisor != 0 {
		m.ProfitFactor = m.GrossProfit / divisor
	}
	m.ProfitFactorUndefined = m.GrossLoss == 0

	m.Expectancy = m.WinRate*m.AvgWin + (1-m.WinRate)*m.AvgLoss
	m.MaxDrawdown = computeMaxDrawdown(equity)
	m.SharpeRatio = computeSharpe(returns, a.RiskFreeRate, periods)
	m.MaxConsecutiveLosses = computeMaxConsecutiveLosses(profits)

	if len(equity) > 0 {
		m.FinalBalance = equity[len(equity)-1]
	} else {
		m.FinalBalance = startingBalance + m.TotalProfit
	}

	return m
}
