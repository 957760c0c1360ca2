package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabaseURL    = "BBSMA_DATABASE_URL"
	EnvInitialCapital = "BBSMA_INITIAL_CAPITAL"
	EnvCommission     = "BBSMA_COMMISSION"
	EnvStopLoss       = "BBSMA_STOP_LOSS_POINTS"
	EnvDataSource     = "BBSMA_DATA_SOURCE"
	EnvJournalDB      = "BBSMA_JOURNAL_DB"
)

// ApplyEnv loads a .env file from the working directory when present and
// overlays the BBSMA_* variables onto c. The database DSN falls back to
// DATABASE_URL.
func ApplyEnv(c *Config, files ...string) error {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load(files...)

	c.Data.DSN = getEnv(EnvDatabaseURL, getEnv("DATABASE_URL", c.Data.DSN))
	c.Data.Source = getEnv(EnvDataSource, c.Data.Source)

	if v := os.Getenv(EnvJournalDB); v != "" {
		c.Journal.Type = "sqlite"
		c.Journal.DBPath = v
	}

	for _, o := range []struct {
		key string
		dst *float64
	}{
		{EnvInitialCapital, &c.Backtest.InitialCapital},
		{EnvCommission, &c.Backtest.Commission},
		{EnvStopLoss, &c.RiskManagement.StopLossPoints},
	} {
		s := os.Getenv(o.key)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", o.key, err)
		}
		*o.dst = v
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
