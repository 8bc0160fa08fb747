package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/executor"
)

var (
	fetchMomentumStocks string
	fetchMomentumDays   int
)

// fetchMomentumCmd computes, but does not persist, a momentum snapshot per
// ticker. Unlike the other four factors, momentum has no upstream source:
// it is a pure function of stored close prices (internal/factors/momentum),
// recomputed on demand by the scoring engine. This command exists to warm
// the price window ahead of a rank/backtest run and to surface tickers
// whose stored price history is too short for a snapshot.
var fetchMomentumCmd = &cobra.Command{
	Use:   "fetch-momentum",
	Short: "Validate that momentum indicators can be computed for a ticker set",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		tickers, err := a.resolveTickers(fetchMomentumStocks)
		if err != nil {
			return fmt.Errorf("resolve ticker set: %w", err)
		}
		_, to := window(fetchMomentumDays)

		opts := executor.DefaultOptions()
		opts.Concurrency = a.cfg.FetchConcurrency
		opts.LedgerDir = a.ledgerDir()
		exec := executor.New(opts, a.log)

		work := func(ctx context.Context, ticker string) error {
			_, err := a.momentum.Compute(ticker, to)
			return err
		}

		result, err := exec.Run(cmd.Context(), "fetch-momentum", tickers, work)
		if err != nil {
			return err
		}
		printBatchResult(a, result)
		return nil
	},
}

func init() {
	fetchMomentumCmd.Flags().StringVar(&fetchMomentumStocks, "stocks", "", "comma-separated ticker list (default: full universe)")
	fetchMomentumCmd.Flags().IntVar(&fetchMomentumDays, "days", 365, "trailing window in days")
}
