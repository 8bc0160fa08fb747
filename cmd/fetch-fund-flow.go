package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/executor"
)

var (
	fetchFundFlowStocks string
	fetchFundFlowDays   int
	fetchFundFlowForce  bool
)

var fetchFundFlowCmd = &cobra.Command{
	Use:   "fetch-fund-flow",
	Short: "Fetch three-legged institutional net-buy figures for a ticker set",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		tickers, err := a.resolveTickers(fetchFundFlowStocks)
		if err != nil {
			return fmt.Errorf("resolve ticker set: %w", err)
		}
		from, to := window(fetchFundFlowDays)

		opts := executor.DefaultOptions()
		opts.Concurrency = a.cfg.FetchConcurrency
		opts.LedgerDir = a.ledgerDir()
		exec := executor.New(opts, a.log)

		work := func(ctx context.Context, ticker string) error {
			if !fetchFundFlowForce && a.hasFundFlow(ticker, to, fetchFundFlowDays) {
				return nil
			}
			return a.fundFlow.Fetch(ctx, ticker, from, to)
		}

		result, err := exec.Run(cmd.Context(), "fetch-fund-flow", tickers, work)
		if err != nil {
			return err
		}
		printBatchResult(a, result)
		return nil
	},
}

func init() {
	fetchFundFlowCmd.Flags().StringVar(&fetchFundFlowStocks, "stocks", "", "comma-separated ticker list (default: full universe)")
	fetchFundFlowCmd.Flags().IntVar(&fetchFundFlowDays, "days", 90, "trailing window in days")
	fetchFundFlowCmd.Flags().BoolVar(&fetchFundFlowForce, "force", false, "refetch even if the window is already on disk")
}
