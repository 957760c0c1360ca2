package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/bbsma/journal"
	"github.com/rustyeddy/bbsma/performance"
	"github.com/rustyeddy/bbsma/pkg/id"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded backtest runs",
	Long: `Query backtest runs, trades and equity from the SQLite journal.

Subcommands:
  runs   - List recorded runs, newest first
  run    - Show the metrics of one run, or its org report
  trades - Show the trades of a run
  day    - List trades closed on a specific day

Examples:
  bbsma journal runs
  bbsma journal run 01J1Y7K8Q4ZB6V3M2N5P7R9T0W --org
  bbsma journal trades 01J1Y7K8Q4ZB6V3M2N5P7R9T0W 3
  bbsma journal day 2024-01-15`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Show one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id> [trade-id]",
	Short: "Show the trades of a run",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runJournalTrades,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var (
	journalDBPath string
	journalOrg    bool
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./bbsma.sqlite", "path to SQLite journal DB")
	journalRunCmd.Flags().BoolVar(&journalOrg, "org", false, "print the org-mode report with trades")
}

func openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func checkRunID(runID string) error {
	if !id.Valid(runID) {
		return fmt.Errorf("%q is not a run id", runID)
	}
	return nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListBacktestRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tDATASET\tSEGMENT\tTRADES\tWIN%\tPROFIT\tFINAL")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.1f\t%.2f\t%.2f\n",
			r.RunID, r.Created.Local().Format("2006-01-02 15:04"), r.Dataset, r.Segment,
			r.Metrics.TotalTrades, r.Metrics.WinRate*100, r.Metrics.TotalProfit, r.Metrics.FinalBalance)
	}
	return tw.Flush()
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	if err := checkRunID(runID); err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	w := cmd.OutOrStdout()
	if journalOrg {
		org, err := j.ExportBacktestOrg(cmd.Context(), runID)
		if err != nil {
			return fmt.Errorf("export run: %w", err)
		}
		fmt.Fprintln(w, org)
		return nil
	}

	run, err := j.GetBacktestRun(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	fmt.Fprintf(w, "Run:      %s\n", run.RunID)
	fmt.Fprintf(w, "Dataset:  %s (%s)\n", run.Dataset, run.Segment)
	fmt.Fprintf(w, "Period:   %s → %s\n", run.Start.Local().Format("2006-01-02"), run.End.Local().Format("2006-01-02"))
	fmt.Fprintf(w, "Bands:    BB(%d, %.1f), stop %.2f\n", run.BBWindow, run.BBStd, run.StopLoss)
	performance.PrintMetrics(w, run.Metrics)
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	runID := args[0]
	if err := checkRunID(runID); err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	w := cmd.OutOrStdout()
	if len(args) == 2 {
		tradeID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("trade id: %w", err)
		}
		rec, err := j.GetTrade(runID, tradeID)
		if err != nil {
			return fmt.Errorf("get trade: %w", err)
		}
		fmt.Fprintln(w, journal.FormatTradeOrg(rec))
		return nil
	}

	recs, err := j.ListTradesByRunID(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	printTrades(cmd, recs)
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	start, end, err := dayBounds(loc, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	printTrades(cmd, recs)
	return nil
}

func printTrades(cmd *cobra.Command, recs []journal.TradeRecord) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tID\tENTRY\tPRICE\tEXIT\tPRICE\tREASON\tPROFIT")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.2f\t%s\t%.2f\t%s\t%.4f\n",
			shortRun(r.RunID), r.TradeID,
			r.EntryTime.Local().Format("01-02 15:04"), r.EntryPrice,
			r.ExitTime.Local().Format("01-02 15:04"), r.ExitPrice,
			r.Reason, r.Profit)
	}
	tw.Flush()

	t := journal.Summarize(recs)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d trades, %d wins, %d losses, net %.4f\n", t.Trades, t.Wins, t.Losses, t.Net)
}

func shortRun(runID string) string {
	if len(runID) > 10 {
		return runID[:10]
	}
	return runID
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
