package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/portfolio"
	"github.com/chenhom/gugo-screener/internal/sweep"
)

// optimizeResult is the JSON envelope --out writes: a run ID alongside the
// grid points, so a sweep's output can be told apart from another run's.
type optimizeResult struct {
	RunID  string            `json:"run_id"`
	Points []sweep.GridPoint `json:"points"`
}

var (
	optimizeStart      string
	optimizeEnd        string
	optimizeRebalances string
	optimizeTops       string
	optimizeMode       string
	optimizeOut        string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-sweep (top, rebalance) pairs and report CAGR/MDD for each",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		start, err := parseDate(optimizeStart)
		if err != nil {
			return err
		}
		end := time.Now()
		if optimizeEnd != "" {
			end, err = parseDate(optimizeEnd)
			if err != nil {
				return err
			}
		}
		mode, err := parseMode(optimizeMode)
		if err != nil {
			return err
		}
		tops, err := splitCSVInts(optimizeTops)
		if err != nil {
			return fmt.Errorf("parse --top: %w", err)
		}
		if len(tops) == 0 {
			tops = []int{10, 20, 30}
		}
		rebalances, err := splitCSVInts(optimizeRebalances)
		if err != nil {
			return fmt.Errorf("parse --rebalance: %w", err)
		}
		if len(rebalances) == 0 {
			rebalances = []int{10, 20, 40}
		}

		tickers, err := a.resolveTickers("")
		if err != nil {
			return fmt.Errorf("resolve universe: %w", err)
		}

		// buildBacktestInput needs a single rebalance cadence to lay down
		// its candidate dates; use the finest requested cadence so every
		// coarser cadence's trigger dates, being multiples of it in the
		// sweep's own default grids, are already scored.
		finest := rebalances[0]
		for _, r := range rebalances {
			if r < finest {
				finest = r
			}
		}

		input, err := buildBacktestInput(a, tickers, start, end, finest, tops[0], mode, portfolio.DefaultCostModel())
		if err != nil {
			return err
		}

		points, err := sweep.Grid(input, tops, rebalances)
		if err != nil {
			return fmt.Errorf("run grid sweep: %w", err)
		}

		runID := uuid.New().String()
		fmt.Printf("run: %s\n", runID)
		for _, p := range points {
			fmt.Printf("top=%-4d rebalance=%-4d CAGR=%7.2f%% MDD=%7.2f%%\n", p.Top, p.Rebalance, p.CAGR*100, p.MDD*100)
		}

		if optimizeOut != "" {
			f, err := os.Create(optimizeOut)
			if err != nil {
				return fmt.Errorf("create %s: %w", optimizeOut, err)
			}
			defer f.Close()
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			if err := enc.Encode(optimizeResult{RunID: runID, Points: points}); err != nil {
				return fmt.Errorf("write %s: %w", optimizeOut, err)
			}
		}
		return nil
	},
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeStart, "start", "", "backtest start date, YYYY-MM-DD (required)")
	optimizeCmd.Flags().StringVar(&optimizeEnd, "end", "", "backtest end date, YYYY-MM-DD (default: today)")
	optimizeCmd.Flags().StringVar(&optimizeRebalances, "rebalance", "", "comma-separated rebalance cadences (default: 10,20,40)")
	optimizeCmd.Flags().StringVar(&optimizeTops, "top", "", "comma-separated portfolio sizes (default: 10,20,30)")
	optimizeCmd.Flags().StringVar(&optimizeMode, "mode", "equal", "equal|cap")
	optimizeCmd.Flags().StringVar(&optimizeOut, "out", "", "write grid results as JSON to this path")
	_ = optimizeCmd.MarkFlagRequired("start")
}
