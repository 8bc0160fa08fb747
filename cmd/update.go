package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/chenhom/gugo-screener/internal/executor"
)

var (
	updateForce   bool
	updateFactors string
	updateStocks  string
	updateClean   bool
	updateStatus  bool
)

var allFactors = []string{"price", "valuation", "growth", "quality", "fundflow", "momentum"}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run every factor fetcher over a ticker set in one pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if updateStatus {
			return printUpdateStatus(a)
		}

		factors := splitCSV(updateFactors)
		if len(factors) == 0 {
			factors = allFactors
		}

		if updateClean {
			for _, factor := range factors {
				_ = os.Remove(filepath.Join(a.ledgerDir(), fmt.Sprintf("progress_fetch-%s.json", factor)))
			}
		}

		tickers, err := a.resolveTickers(updateStocks)
		if err != nil {
			return fmt.Errorf("resolve ticker set: %w", err)
		}
		from, to := window(365)

		sig := executor.NewSignalHandler(a.log)
		sig.OnShutdown(func() { _ = a.close() })
		sig.Start()
		defer sig.Stop()

		opts := executor.DefaultOptions()
		opts.Concurrency = a.cfg.FetchConcurrency
		opts.LedgerDir = a.ledgerDir()
		exec := executor.New(opts, a.log)

		for _, factor := range factors {
			work, ok := updateWork(a, factor, from, to)
			if !ok {
				return fmt.Errorf("%w: unknown factor %q", domain.ErrUserInput, factor)
			}
			result, err := exec.Run(cmd.Context(), "fetch-"+factor, tickers, work)
			if err != nil {
				return fmt.Errorf("run %s: %w", factor, err)
			}
			fmt.Printf("%s: ", factor)
			printBatchResult(a, result)
			if result.SuccessRate == 0 && len(result.Skipped) == len(tickers) {
				a.log.Warn().Str("factor", factor).Msg("every item skipped, stopping early (likely quota exhaustion)")
				break
			}
		}
		return nil
	},
}

// updateWork returns the per-item closure for one factor name, honoring
// updateForce the same way the corresponding fetch-* command does.
func updateWork(a *app, factor string, from, to time.Time) (executor.Work, bool) {
	switch factor {
	case "price":
		return func(ctx context.Context, ticker string) error {
			if !updateForce && a.hasPrice(ticker, from, to) {
				return nil
			}
			return a.price.Fetch(ctx, ticker, from, to)
		}, true
	case "valuation":
		return func(ctx context.Context, ticker string) error {
			if !updateForce && a.hasValuation(ticker, from, to) {
				return nil
			}
			return a.valuation.Fetch(ctx, ticker, from, to)
		}, true
	case "growth":
		months := 13
		return func(ctx context.Context, ticker string) error {
			if !updateForce && a.hasGrowth(ticker, months) {
				return nil
			}
			return a.growth.Fetch(ctx, ticker, months)
		}, true
	case "quality":
		return func(ctx context.Context, ticker string) error {
			if !updateForce && a.hasQuality(ticker, from, to) {
				return nil
			}
			return a.quality.Fetch(ctx, ticker, from, to)
		}, true
	case "fundflow":
		days := int(to.Sub(from).Hours() / 24)
		return func(ctx context.Context, ticker string) error {
			if !updateForce && a.hasFundFlow(ticker, to, days) {
				return nil
			}
			return a.fundFlow.Fetch(ctx, ticker, from, to)
		}, true
	case "momentum":
		return func(ctx context.Context, ticker string) error {
			_, err := a.momentum.Compute(ticker, to)
			return err
		}, true
	default:
		return nil, false
	}
}

func init() {
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "refetch even if a window is already on disk")
	updateCmd.Flags().StringVar(&updateFactors, "factors", "", "comma-separated factor list (default: all)")
	updateCmd.Flags().StringVar(&updateStocks, "stocks", "", "comma-separated ticker list (default: full universe)")
	updateCmd.Flags().BoolVar(&updateClean, "clean", false, "delete progress ledgers for the selected factors before running")
	updateCmd.Flags().BoolVar(&updateStatus, "status", false, "print catalog and ledger status without fetching")
}

func printUpdateStatus(a *app) error {
	stale, err := a.universe.ShouldUpdate()
	if err != nil {
		return err
	}
	fmt.Printf("universe catalog stale: %v\n", stale)
	for _, factor := range allFactors {
		path := filepath.Join(a.ledgerDir(), fmt.Sprintf("progress_fetch-%s.json", factor))
		if info, err := os.Stat(path); err == nil {
			fmt.Printf("%-10s progress ledger: %s (modified %s)\n", factor, path, info.ModTime().Format("2006-01-02 15:04"))
		} else {
			fmt.Printf("%-10s progress ledger: none\n", factor)
		}
	}
	return nil
}
