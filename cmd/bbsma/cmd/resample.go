package cmd

import (
	"fmt"

	"github.com/rustyeddy/bbsma/market"
	"github.com/spf13/cobra"
)

var resampleCmd = &cobra.Command{
	Use:   "resample <ticks.csv>",
	Short: "Aggregate a tick CSV into OHLCV candles",
	Long: `Read matched ticks (datetime, price and optional tickersymbol and
quantity columns), keep those inside the configured market hours and
write OHLCV candles.

Example:
  bbsma resample data/ticks.csv -t 5min -o data/candles_5min.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runResample,
}

var (
	resampleOutput    string
	resampleTimeframe string
)

func init() {
	rootCmd.AddCommand(resampleCmd)

	resampleCmd.Flags().StringVarP(&resampleOutput, "output", "o", "candles.csv", "output CSV path")
	resampleCmd.Flags().StringVarP(&resampleTimeframe, "timeframe", "t", "", "candle timeframe (config default if empty)")
}

func runResample(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if resampleTimeframe != "" {
		cfg.Parameters.DefaultTimeframe = resampleTimeframe
	}
	tf, err := cfg.Timeframe()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ticks, err := market.LoadTicksCSV(args[0], loc)
	if err != nil {
		return err
	}
	candles, err := market.Resample(ticks, tf, cfg.MarketHours())
	if err != nil {
		return err
	}
	if err := market.SaveCandlesCSV(resampleOutput, candles); err != nil {
		return fmt.Errorf("save candles: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Resampled %d ticks into %d %s candles: %s\n",
		len(ticks), len(candles), tf, resampleOutput)
	return nil
}
