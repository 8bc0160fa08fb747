package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/executor"
)

var (
	fetchPriceStocks string
	fetchPriceDays   int
	fetchPriceType   string
	fetchPriceForce  bool
)

var fetchPriceCmd = &cobra.Command{
	Use:   "fetch-price",
	Short: "Fetch OHLCV bars and/or valuation multiples for a ticker set",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		tickers, err := a.resolveTickers(fetchPriceStocks)
		if err != nil {
			return fmt.Errorf("resolve ticker set: %w", err)
		}
		from, to := window(fetchPriceDays)

		sig := executor.NewSignalHandler(a.log)
		sig.OnShutdown(func() { _ = a.close() })
		sig.Start()
		defer sig.Stop()

		opts := executor.DefaultOptions()
		opts.Concurrency = a.cfg.FetchConcurrency
		opts.LedgerDir = a.ledgerDir()
		exec := executor.New(opts, a.log)

		work := func(ctx context.Context, ticker string) error {
			if (fetchPriceType == "price" || fetchPriceType == "both") && (fetchPriceForce || !a.hasPrice(ticker, from, to)) {
				if err := a.price.Fetch(ctx, ticker, from, to); err != nil {
					return err
				}
			}
			if (fetchPriceType == "valuation" || fetchPriceType == "both") && (fetchPriceForce || !a.hasValuation(ticker, from, to)) {
				if err := a.valuation.Fetch(ctx, ticker, from, to); err != nil {
					return err
				}
			}
			return nil
		}

		result, err := exec.Run(cmd.Context(), "fetch-price", tickers, work)
		if err != nil {
			return err
		}
		printBatchResult(a, result)
		return nil
	},
}

func init() {
	fetchPriceCmd.Flags().StringVar(&fetchPriceStocks, "stocks", "", "comma-separated ticker list (default: full universe)")
	fetchPriceCmd.Flags().IntVar(&fetchPriceDays, "days", 365, "trailing window in days")
	fetchPriceCmd.Flags().StringVar(&fetchPriceType, "type", "both", "price|valuation|both")
	fetchPriceCmd.Flags().BoolVar(&fetchPriceForce, "force", false, "refetch even if the window is already on disk")
}
