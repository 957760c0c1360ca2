package journal

// Schema creates the SQLite journal tables. Times are stored in UTC.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	symbol TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	dataset TEXT NOT NULL,
	segment TEXT NOT NULL,
	config BLOB,
	bb_window INTEGER NOT NULL,
	bb_std REAL NOT NULL,
	stop_loss REAL NOT NULL,
	commission_rate REAL NOT NULL,
	start_time DATETIME,
	end_time DATETIME,
	total_trades INTEGER NOT NULL,
	winning_trades INTEGER NOT NULL,
	losing_trades INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	total_profit REAL NOT NULL,
	total_return REAL NOT NULL,
	avg_win REAL NOT NULL,
	avg_loss REAL NOT NULL,
	gross_profit REAL NOT NULL,
	gross_loss REAL NOT NULL,
	profit_factor REAL NOT NULL,
	profit_factor_undefined INTEGER NOT NULL,
	expectancy REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sharpe_ratio REAL NOT NULL,
	max_consecutive_losses INTEGER NOT NULL,
	exit_reasons TEXT NOT NULL,
	initial_balance REAL NOT NULL,
	final_balance REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	entry_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_time DATETIME NOT NULL,
	exit_price REAL NOT NULL,
	target REAL NOT NULL,
	size REAL NOT NULL,
	gross REAL NOT NULL,
	commission REAL NOT NULL,
	profit REAL NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`
