package cmd

import (
	"fmt"

	"github.com/rustyeddy/bbsma/internal/pipeline"
	"github.com/rustyeddy/bbsma/performance"
	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the mean-reversion backtest",
	Long: `Load candles, compute Bollinger bands and entry signals, simulate the
strategy and print the performance metrics.

Flags override the matching config values.

Examples:
  bbsma backtest
  bbsma backtest --source csv --csv data/VN30F1M_15min.csv
  bbsma backtest --source ticks --ticks data/ticks.csv --timeframe 5min
  bbsma backtest --train-end 2024-03-31 --segment test --journal sqlite --db runs.sqlite`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var btFlags struct {
	source    string
	csvPath   string
	ticksPath string
	start     string
	end       string
	timeframe string
	seed      int64
	segment   string
	trainEnd  string
	testStart string
	journal   string
	dbPath    string
	trades    string
	equity    string
	org       string
}

func init() {
	rootCmd.AddCommand(backtestCmd)

	f := backtestCmd.Flags()
	f.StringVarP(&btFlags.source, "source", "s", "", "data source: dummy|csv|ticks|postgres")
	f.StringVar(&btFlags.csvPath, "csv", "", "candle CSV file (csv source)")
	f.StringVar(&btFlags.ticksPath, "ticks", "", "tick CSV file (ticks source)")
	f.StringVar(&btFlags.start, "start", "", "first day YYYY-MM-DD (dummy and postgres sources)")
	f.StringVar(&btFlags.end, "end", "", "last day YYYY-MM-DD (dummy and postgres sources)")
	f.StringVarP(&btFlags.timeframe, "timeframe", "t", "", "candle timeframe, e.g. 15min")
	f.Int64Var(&btFlags.seed, "seed", 0, "generator seed (dummy source)")
	f.StringVar(&btFlags.segment, "segment", "", "all|train|test")
	f.StringVar(&btFlags.trainEnd, "train-end", "", "last training day YYYY-MM-DD")
	f.StringVar(&btFlags.testStart, "test-start", "", "first test day YYYY-MM-DD")
	f.StringVarP(&btFlags.journal, "journal", "j", "", "journal type: csv|sqlite|none")
	f.StringVar(&btFlags.dbPath, "db", "", "SQLite journal path")
	f.StringVar(&btFlags.trades, "trades", "", "trades CSV path")
	f.StringVar(&btFlags.equity, "equity", "", "equity CSV path")
	f.StringVar(&btFlags.org, "org", "", "write an org-mode report to this path")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("source", &cfg.Data.Source, btFlags.source)
	set("csv", &cfg.Data.CSVPath, btFlags.csvPath)
	set("ticks", &cfg.Data.TicksPath, btFlags.ticksPath)
	set("start", &cfg.Data.StartDate, btFlags.start)
	set("end", &cfg.Data.EndDate, btFlags.end)
	set("timeframe", &cfg.Parameters.DefaultTimeframe, btFlags.timeframe)
	set("segment", &cfg.Data.Segment, btFlags.segment)
	set("train-end", &cfg.Data.TrainEnd, btFlags.trainEnd)
	set("test-start", &cfg.Data.TestStart, btFlags.testStart)
	set("journal", &cfg.Journal.Type, btFlags.journal)
	set("db", &cfg.Journal.DBPath, btFlags.dbPath)
	set("trades", &cfg.Journal.TradesFile, btFlags.trades)
	set("equity", &cfg.Journal.EquityFile, btFlags.equity)
	set("org", &cfg.Journal.OrgPath, btFlags.org)
	if flags.Changed("seed") {
		cfg.Data.Seed = btFlags.seed
	}
	if flags.Changed("db") && !flags.Changed("journal") {
		cfg.Journal.Type = "sqlite"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx := cmd.Context()
	src, closeSrc, err := pipeline.NewSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	out, err := pipeline.Run(ctx, cfg, src, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run:      %s\n", out.RunID)
	fmt.Fprintf(w, "Source:   %s\n", out.Source)
	fmt.Fprintf(w, "Segment:  %s\n", out.Segment)
	fmt.Fprintf(w, "Period:   %s → %s (%d candles)\n",
		out.Result.Start().Format("2006-01-02 15:04"),
		out.Result.End().Format("2006-01-02 15:04"),
		len(out.Candles))
	performance.PrintMetrics(w, out.Metrics)

	switch cfg.Journal.Type {
	case "csv":
		fmt.Fprintf(w, "✓ Trades written to %s\n", cfg.Journal.TradesFile)
		fmt.Fprintf(w, "✓ Equity written to %s\n", cfg.Journal.EquityFile)
	case "sqlite":
		fmt.Fprintf(w, "✓ Run recorded in %s\n", cfg.Journal.DBPath)
	}
	if cfg.Journal.OrgPath != "" {
		fmt.Fprintf(w, "✓ Org report written to %s\n", cfg.Journal.OrgPath)
	}
	return nil
}
