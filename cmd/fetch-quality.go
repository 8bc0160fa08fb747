package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/executor"
)

var (
	fetchQualityStocks string
	fetchQualityDays   int
	fetchQualityForce  bool
)

var fetchQualityCmd = &cobra.Command{
	Use:   "fetch-quality",
	Short: "Fetch financial statements and balance sheets and derive quality ratios",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		tickers, err := a.resolveTickers(fetchQualityStocks)
		if err != nil {
			return fmt.Errorf("resolve ticker set: %w", err)
		}
		from, to := window(fetchQualityDays)

		opts := executor.DefaultOptions()
		opts.Concurrency = a.cfg.FetchConcurrency
		opts.LedgerDir = a.ledgerDir()
		exec := executor.New(opts, a.log)

		work := func(ctx context.Context, ticker string) error {
			if !fetchQualityForce && a.hasQuality(ticker, from, to) {
				return nil
			}
			return a.quality.Fetch(ctx, ticker, from, to)
		}

		result, err := exec.Run(cmd.Context(), "fetch-quality", tickers, work)
		if err != nil {
			return err
		}
		printBatchResult(a, result)
		return nil
	},
}

func init() {
	fetchQualityCmd.Flags().StringVar(&fetchQualityStocks, "stocks", "", "comma-separated ticker list (default: full universe)")
	fetchQualityCmd.Flags().IntVar(&fetchQualityDays, "days", 730, "trailing window in days")
	fetchQualityCmd.Flags().BoolVar(&fetchQualityForce, "force", false, "refetch even if the window is already on disk")
}
