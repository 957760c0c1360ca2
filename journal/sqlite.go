package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a journal backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertTrade = `
	INSERT INTO trades
	(run_id, trade_id, symbol, side, entry_time, entry_price, exit_time, exit_price,
	 target, size, gross, commission, profit, reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertEquity = `
	INSERT INTO equity (run_id, seq, time, balance, position)
	VALUES (?, ?, ?, ?, ?)`

func recordTrade(ctx context.Context, ex execer, t TradeRecord) error {
	_, err := ex.ExecContext(ctx, insertTrade,
		t.RunID, t.TradeID, t.Symbol, t.Side,
		t.EntryTime.UTC(), t.EntryPrice, t.ExitTime.UTC(), t.ExitPrice,
		t.Target, t.Size, t.Gross, t.Commission, t.Profit, t.Reason,
	)
	return err
}

func recordEquity(ctx context.Context, ex execer, e EquitySnapshot) error {
	_, err := ex.ExecContext(ctx, insertEquity,
		e.RunID, e.Seq, e.Time.UTC(), e.Balance, e.Position,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	return recordTrade(context.Background(), j.db, t)
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	return recordEquity(context.Background(), j.db, e)
}

// RecordBacktest stores a run with its trades and equity in one transaction.
func (j *SQLite) RecordBacktest(ctx context.Context, run BacktestRun, trades []TradeRecord, equity []EquitySnapshot) error {
	if run.RunID == "" {
		return errors.New("journal: run id required")
	}
	reasons, err := json.Marshal(run.Metrics.ExitReasons)
	if err != nil {
		return err
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	m := run.Metrics
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, strategy, symbol, timeframe, dataset, segment, config,
		 bb_window, bb_std, stop_loss, commission_rate, start_time, end_time,
		 total_trades, winning_trades, losing_trades, win_rate, total_profit, total_return,
		 avg_win, avg_loss, gross_profit, gross_loss, profit_factor, profit_factor_undefined,
		 expectancy, max_drawdown, sharpe_ratio, max_consecutive_losses, exit_reasons,
		 initial_balance, final_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Created.UTC(), run.Strategy, run.Symbol, run.Timeframe, run.Dataset, run.Segment, run.Config,
		run.BBWindow, run.BBStd, run.StopLoss, run.CommissionRate, run.Start.UTC(), run.End.UTC(),
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRate, m.TotalProfit, m.TotalReturn,
		m.AvgWin, m.AvgLoss, m.GrossProfit, m.GrossLoss, m.ProfitFactor, m.ProfitFactorUndefined,
		m.Expectancy, m.MaxDrawdown, m.SharpeRatio, m.MaxConsecutiveLosses, string(reasons),
		m.InitialBalance, m.FinalBalance,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	for _, t := range trades {
		t.RunID = run.RunID
		if err := recordTrade(ctx, tx, t); err != nil {
			return fmt.Errorf("insert trade %d: %w", t.TradeID, err)
		}
	}
	for _, e := range equity {
		e.RunID = run.RunID
		if err := recordEquity(ctx, tx, e); err != nil {
			return fmt.Errorf("insert equity %d: %w", e.Seq, err)
		}
	}
	return tx.Commit()
}

const runColumns = `
	run_id, created, strategy, symbol, timeframe, dataset, segment, config,
	bb_window, bb_std, stop_loss, commission_rate, start_time, end_time,
	total_trades, winning_trades, losing_trades, win_rate, total_profit, total_return,
	avg_win, avg_loss, gross_profit, gross_loss, profit_factor, profit_factor_undefined,
	expectancy, max_drawdown, sharpe_ratio, max_consecutive_losses, exit_reasons,
	initial_balance, final_balance`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (BacktestRun, error) {
	var (
		run     BacktestRun
		reasons string
	)
	m := &run.Metrics
	err := s.Scan(
		&run.RunID, &run.Created, &run.Strategy, &run.Symbol, &run.Timeframe, &run.Dataset, &run.Segment, &run.Config,
		&run.BBWindow, &run.BBStd, &run.StopLoss, &run.CommissionRate, &run.Start, &run.End,
		&m.TotalTrades, &m.WinningTrades, &m.LosingTrades, &m.WinRate, &m.TotalProfit, &m.TotalReturn,
		&m.AvgWin, &m.AvgLoss, &m.GrossProfit, &m.GrossLoss, &m.ProfitFactor, &m.ProfitFactorUndefined,
		&m.Expectancy, &m.MaxDrawdown, &m.SharpeRatio, &m.MaxConsecutiveLosses, &reasons,
		&m.InitialBalance, &m.FinalBalance,
	)
	if err != nil {
		return run, err
	}
	if err := json.Unmarshal([]byte(reasons), &m.ExitReasons); err != nil {
		return run, fmt.Errorf("run %s exit reasons: %w", run.RunID, err)
	}
	if m.ExitReasons == nil {
		m.ExitReasons = map[string]int{}
	}
	return run, nil
}

// GetBacktestRun loads one run without its trades.
func (j *SQLite) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BacktestRun{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}
	return run, err
}

// ListBacktestRuns returns every run, newest first.
func (j *SQLite) ListBacktestRuns(ctx context.Context) ([]BacktestRun, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// ListTradesByRunID returns a run's trades in ledger order.
func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	return j.queryTrades(ctx, `WHERE run_id = ? ORDER BY trade_id ASC`, runID)
}

// ListEquityByRunID returns a run's equity trace in order.
func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, time, balance, position
		FROM equity
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Time, &e.Balance, &e.Position); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExportBacktestOrg loads a run and its trades and returns the org report.
func (j *SQLite) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	run, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := run.RenderOrg(&sb); err != nil {
		return "", err
	}
	if len(trades) > 0 {
		sb.WriteString("\n")
		sb.WriteString(FormatTradesOrg(trades))
	}
	return sb.String(), nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func (j *SQLite) queryTrades(ctx context.Context, where string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, trade_id, symbol, side, entry_time, entry_price, exit_time, exit_price,
		       target, size, gross, commission, profit, reason
		FROM trades `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.TradeID,
			&rec.Symbol,
			&rec.Side,
			&rec.EntryTime,
			&rec.EntryPrice,
			&rec.ExitTime,
			&rec.ExitPrice,
			&rec.Target,
			&rec.Size,
			&rec.Gross,
			&rec.Commission,
			&rec.Profit,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ Journal = (*SQLite)(nil)
var _ Journal = (*CSVJournal)(nil)
