package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/executor"
)

var (
	fetchGrowthStocks string
	fetchGrowthDays   int
	fetchGrowthForce  bool
)

var fetchGrowthCmd = &cobra.Command{
	Use:   "fetch-growth",
	Short: "Fetch monthly revenue and derive YoY/MoM growth for a ticker set",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		tickers, err := a.resolveTickers(fetchGrowthStocks)
		if err != nil {
			return fmt.Errorf("resolve ticker set: %w", err)
		}
		months := fetchGrowthDays/30 + 1

		opts := executor.DefaultOptions()
		opts.Concurrency = a.cfg.FetchConcurrency
		opts.LedgerDir = a.ledgerDir()
		exec := executor.New(opts, a.log)

		work := func(ctx context.Context, ticker string) error {
			if !fetchGrowthForce && a.hasGrowth(ticker, months) {
				return nil
			}
			return a.growth.Fetch(ctx, ticker, months)
		}

		result, err := exec.Run(cmd.Context(), "fetch-growth", tickers, work)
		if err != nil {
			return err
		}
		printBatchResult(a, result)
		return nil
	},
}

func init() {
	fetchGrowthCmd.Flags().StringVar(&fetchGrowthStocks, "stocks", "", "comma-separated ticker list (default: full universe)")
	fetchGrowthCmd.Flags().IntVar(&fetchGrowthDays, "days", 365, "trailing window in days")
	fetchGrowthCmd.Flags().BoolVar(&fetchGrowthForce, "force", false, "refetch even if the window is already on disk")
}
