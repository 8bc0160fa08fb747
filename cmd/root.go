// Package cmd implements the command-line surface: one cobra command per
// verb, each opening the three local databases, wiring the cached
// upstream sources, and driving the relevant internal package.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gugo-screener",
	Short: "Taiwan equity factor screener and back-test engine",
	Long: `gugo-screener ingests per-ticker Taiwan equity data (prices, valuation
multiples, monthly revenue, quarterly financials, institutional flow, and
technical indicators) from the TWSE OpenAPI and the FinMind fallback,
persists it locally, derives a weighted factor score for the current
universe, and runs historical portfolio back-tests with parameter sweeps
and walk-forward evaluation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command; on error it prints the error to stderr
// and exits with code 1. main.go's only job is to call this.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(fetchPriceCmd)
	rootCmd.AddCommand(fetchGrowthCmd)
	rootCmd.AddCommand(fetchQualityCmd)
	rootCmd.AddCommand(fetchFundFlowCmd)
	rootCmd.AddCommand(fetchMomentumCmd)
	rootCmd.AddCommand(updateStockListCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(listStocksCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(walkForwardCmd)
	rootCmd.AddCommand(bootstrapPnLCmd)
}
