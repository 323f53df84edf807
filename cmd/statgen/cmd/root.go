// Package cmd provides CLI commands for statgen.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/statgen/pkg/config"
)

var (
	cfgFile string
	debug   bool

	// appConfig is loaded once in PersistentPreRun. Flags override its values,
	// and each command validates the result.
	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "statgen",
	Short: "Generate STAT reports from bank statement ledgers",
	Long: `statgen reads a categorized bank-statement ledger (the SRT sheet)
and produces the STAT report: monthly aggregates, derived net flows,
period summaries and scored risk/trend metrics.

It supports:
- XLSX and CSV ledgers
- Writing the STAT sheet back into the workbook, or a CSV grid
- Optional YAML scoring rules
- Ad-hoc ledger queries for a single month
- An optional SQLite history of report runs

Example:
  statgen generate statement.xlsx statement_STAT.xlsx --start-date 2025-02-01 --months 6
  statgen query statement.xlsx --month 2025-03-01 --group BT --column credit
  statgen history --history-db runs.db`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		exitOnError(err, "failed to load configuration")
		exitOnError(cfg.ValidateLogging(), "invalid configuration")
		appConfig = cfg

		logLevel := slog.LevelInfo
		if debug || cfg.Debug {
			logLevel = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{Level: logLevel}
		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(historyCmd)
}

// stringFlag returns the flag value when it was set on the command line, otherwise fallback.
func stringFlag(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

func intFlag(cmd *cobra.Command, name string, value, fallback int) int {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

// exitOnError logs err, prints it to stderr and exits with status 1.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
