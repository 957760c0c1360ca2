package cmd

import (
	"fmt"

	"github.com/rustyeddy/bbsma/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage backtest configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  bbsma config init -o config.yaml
  bbsma config validate -f config.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. The format
follows the extension: .yaml/.yml for YAML, anything else for JSON.

Example:
  bbsma config init -o config.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  bbsma config validate -f config.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "config.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(w, "\nEdit the file and run with:")
	fmt.Fprintf(w, "  bbsma backtest -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(w, "  Capital: %.2f (commission %.3f%%)\n", cfg.Backtest.InitialCapital, cfg.Backtest.Commission*100)
	fmt.Fprintf(w, "  Bands: BB(%d, %.1f) on %s\n", cfg.Parameters.BBWindow, cfg.Parameters.BBStd, cfg.Parameters.DefaultTimeframe)
	fmt.Fprintf(w, "  Stop: %.2f points, entries before %s, flat at %s\n",
		cfg.RiskManagement.StopLossPoints, cfg.Session.EntryCutoff, cfg.Session.MarketClose)
	fmt.Fprintf(w, "  Data: %s\n", cfg.Data.Source)
	fmt.Fprintf(w, "  Journal: %s\n", cfg.Journal.Type)
	return nil
}
