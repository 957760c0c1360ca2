package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/bbsma/market"
	"go.uber.org/zap"
)

// Engine simulates the band-reversion strategy over a candle stream:
//   - long only, one position at a time, at most one entry per calendar day
//   - market entries at the signal candle's close
//   - exits on take-profit, stop-loss, then session close, all evaluated on
//     the candle close
//
// An Engine holds configuration only; every Run starts from a fresh state,
// so a single Engine may be reused and shared.
type Engine struct {
	cfg Config
	log *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for trade-level debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	e := &Engine{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine parameters.
func (e *Engine) Config() Config {
	return e.cfg
}

// state is threaded through the walk; step never mutates its input state.
type state struct {
	pos     *Position
	day     market.Day
	started bool
	entries int // entries taken on day
	balance float64
	lastID  int
}

// Run walks candles once in order and returns the trade ledger, equity trace
// and annotated candles. The input is not modified.
//
// Candles must be non-empty and strictly increasing in time. A NaN close, or
// a NaN SMA on a candle that opens a position, aborts the run with
// market.ErrUndefinedValue.
func (e *Engine) Run(candles []market.Candle) (*Result, error) {
	if err := market.Validate(candles); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	res := &Result{
		Equity:          make([]float64, 0, len(candles)+1),
		Bars:            make([]Bar, 0, len(candles)),
		StartingBalance: e.cfg.StartingBalance,
	}
	res.Equity = append(res.Equity, e.cfg.StartingBalance)

	s := state{balance: e.cfg.StartingBalance}
	for i, c := range candles {
		next, bar, trade, err := e.step(s, c)
		if err != nil {
			return nil, fmt.Errorf("backtest: candle %d (%s): %w", i, c.Time.Format(time.RFC3339), err)
		}
		if trade != nil {
			res.Trades = append(res.Trades, *trade)
		}
		res.Bars = append(res.Bars, bar)
		res.Equity = append(res.Equity, next.balance)
		s = next
	}

	res.FinalBalance = s.balance
	e.log.Debug("backtest run complete",
		zap.Int("candles", len(candles)),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("final_balance", res.FinalBalance),
		zap.Bool("open_at_end", s.pos != nil),
	)
	return res, nil
}

// step applies one candle to s.
func (e *Engine) step(s state, c market.Candle) (state, Bar, *Trade, error) {
	bar := Bar{
		Candle:     c,
		EntryPrice: math.NaN(),
		ExitPrice:  math.NaN(),
	}
	if math.IsNaN(c.Close) {
		return s, bar, nil, fmt.Errorf("close: %w", market.ErrUndefinedValue)
	}

	// The day counter resets on the first candle of each calendar day, even
	// if a position opened yesterday is still held.
	if d := market.DayOf(c.Time); !s.started || d != s.day {
		s.started = true
		s.day = d
		s.entries = 0
	}
	clock := market.ClockOf(c.Time)

	if s.pos == nil {
		if c.Signal && s.entries < 1 && clock.Before(e.cfg.EntryCutoff) {
			if math.IsNaN(c.SMA) {
				return s, bar, nil, fmt.Errorf("sma at entry: %w", market.ErrUndefinedValue)
			}
			s.pos = &Position{EntryPrice: c.Close, EntryTime: c.Time, Target: c.SMA}
			s.entries++
			s.lastID++

			bar.Position = 1
			bar.EntryPrice = c.Close
			e.log.Debug("open long",
				zap.Int("trade_id", s.lastID),
				zap.Time("time", c.Time),
				zap.Float64("price", c.Close),
				zap.Float64("target", c.SMA),
			)
		}
		bar.Balance = s.balance
		return s, bar, nil, nil
	}

	bar.Position = 1
	exit, reason, hit := e.checkExit(*s.pos, c.Close, clock)
	if !hit {
		bar.Balance = s.balance
		return s, bar, nil, nil
	}

	trade := e.closePosition(s.lastID, *s.pos, c.Time, exit, reason)
	s.balance += trade.Profit
	s.pos = nil

	bar.ExitPrice = exit
	bar.Profit = trade.Profit
	bar.Balance = s.balance
	e.log.Debug("close long",
		zap.Int("trade_id", trade.ID),
		zap.String("reason", string(reason)),
		zap.Time("time", c.Time),
		zap.Float64("price", exit),
		zap.Float64("profit", trade.Profit),
	)
	return s, bar, &trade, nil
}

// checkExit evaluates the exit rules against close in fixed priority order;
// the first satisfied rule wins.
func (e *Engine) checkExit(p Position, close float64, clock market.Clock) (exitPx float64, reason ExitReason, hit bool) {
	switch {
	case close >= p.Target:
		return close, TakeProfit, true
	case close-p.EntryPrice <= -e.cfg.StopLoss:
		// Filled at the stop level, not the candle close.
		return p.EntryPrice - e.cfg.StopLoss, StopLoss, true
	case !clock.Before(e.cfg.SessionClose):
		return close, MarketClose, true
	}
	return 0, "", false
}

func (e *Engine) closePosition(id int, p Position, t time.Time, exit float64, reason ExitReason) Trade {
	gross := (exit - p.EntryPrice) * PositionSize
	commission := math.Abs(gross) * e.cfg.CommissionRate

	return Trade{
		ID:         id,
		Side:       Long,
		EntryTime:  p.EntryTime,
		EntryPrice: p.EntryPrice,
		ExitTime:   t,
		ExitPrice:  exit,
		Reason:     reason,
		Size:       PositionSize,
		Gross:      gross,
		Commission: commission,
		Profit:     gross - commission,
		Target:     p.Target,
	}
}
