package cmd

import (
	"fmt"
	"os"

	"github.com/rustyeddy/bbsma/config"
	"github.com/rustyeddy/bbsma/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "bbsma",
	Short: "Bollinger band / SMA mean-reversion backtester",
	Long: `bbsma backtests a long-only intraday mean-reversion strategy on
VN30 index futures.

A long opens when the close crosses below the lower Bollinger band during
the signal window and exits at the SMA, at a fixed stop below entry, or at
the session close.

It provides tools for:
  - Running backtests on synthetic, CSV, tick or Postgres data
  - Generating synthetic candles and resampling ticks
  - Querying the SQLite run journal`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logLevel)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var (
	cfgFile  string
	envFile  string
	logLevel string

	logger = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON, defaults if empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with BBSMA_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")
}

// loadConfig reads --config, or the defaults, and applies environment
// overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, err
		}
	}
	var files []string
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			files = append(files, envFile)
		}
	}
	if err := config.ApplyEnv(cfg, files...); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}
