package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tradelens",
	Short: "TradeLens - trade performance analytics backend",
	Long: `TradeLens Analytics CLI

Turns raw trade records into risk and performance metrics:
win rate, expectancy, profit factor, Sharpe ratio, drawdown,
streaks and equity curves.

Usage:
  go run ./cmd/tradelens [command]

Examples:
  go run ./cmd/tradelens api
  go run ./cmd/tradelens report --user 42 --group-by month
  go run ./cmd/tradelens scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
