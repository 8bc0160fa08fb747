package cmd

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/bootstrap"
	"github.com/chenhom/gugo-screener/internal/domain"
)

var (
	bootstrapPnLIn         string
	bootstrapPnLOut        string
	bootstrapPnLIterations int
	bootstrapPnLSeed       int64
)

// equityFile is the on-disk shape bootstrap-pnl reads and the shape
// `backtest --out` writes, so a backtest run's output can be piped straight
// into this command. optimize and walk-forward write other shapes (grid
// points and per-window statistics), which this command does not read.
type equityFile struct {
	RunID  string      `json:"run_id,omitempty"`
	Dates  []time.Time `json:"dates"`
	Equity []float64   `json:"equity"`
}

var bootstrapPnLCmd = &cobra.Command{
	Use:   "bootstrap-pnl",
	Short: "Bootstrap a confidence interval on max drawdown from an equity curve",
	RunE: func(cmd *cobra.Command, args []string) error {
		if bootstrapPnLIn == "" {
			return fmt.Errorf("%w: --in is required", domain.ErrUserInput)
		}

		data, err := os.ReadFile(bootstrapPnLIn)
		if err != nil {
			return fmt.Errorf("read %s: %w", bootstrapPnLIn, err)
		}
		var curve equityFile
		if err := json.Unmarshal(data, &curve); err != nil {
			return fmt.Errorf("parse %s: %w", bootstrapPnLIn, err)
		}

		domainCurve := domain.EquityCurve{Dates: curve.Dates, Equity: curve.Equity}
		returns := domainCurve.Returns()

		seed := bootstrapPnLSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))

		result := bootstrap.Run(returns, bootstrapPnLIterations, rng)

		fmt.Printf("MDD 95%% CI: [%.2f%%, %.2f%%]\n", result.Lower2_5*100, result.Upper97_5*100)

		if bootstrapPnLOut != "" {
			f, err := os.Create(bootstrapPnLOut)
			if err != nil {
				return fmt.Errorf("create %s: %w", bootstrapPnLOut, err)
			}
			defer f.Close()
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		return nil
	},
}

func init() {
	bootstrapPnLCmd.Flags().StringVar(&bootstrapPnLIn, "in", "", "equity curve JSON file, {dates, equity} (required)")
	bootstrapPnLCmd.Flags().StringVar(&bootstrapPnLOut, "out", "", "write the confidence interval as JSON to this path")
	bootstrapPnLCmd.Flags().IntVar(&bootstrapPnLIterations, "iterations", 1000, "number of bootstrap resamples")
	bootstrapPnLCmd.Flags().Int64Var(&bootstrapPnLSeed, "seed", 0, "RNG seed (default: time-based)")
	_ = bootstrapPnLCmd.MarkFlagRequired("in")
}
