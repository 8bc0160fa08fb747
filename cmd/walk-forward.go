package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/portfolio"
	"github.com/chenhom/gugo-screener/internal/sweep"
)

// walkForwardResult is the JSON envelope --out writes: a run ID alongside
// the per-window results.
type walkForwardResult struct {
	RunID   string                    `json:"run_id"`
	Windows []sweep.WalkForwardWindow `json:"windows"`
}

var (
	walkForwardStart     string
	walkForwardEnd       string
	walkForwardRebalance int
	walkForwardTop       int
	walkForwardWindow    int
	walkForwardStep      int
	walkForwardOut       string
)

var walkForwardCmd = &cobra.Command{
	Use:   "walk-forward",
	Short: "Run rolling walk-forward windows and report CAGR/Sharpe/MDD per window",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		start, err := parseDate(walkForwardStart)
		if err != nil {
			return err
		}
		end, err := parseDate(walkForwardEnd)
		if err != nil {
			return err
		}

		tickers, err := a.resolveTickers("")
		if err != nil {
			return fmt.Errorf("resolve universe: %w", err)
		}

		input, err := buildBacktestInput(a, tickers, start, end, walkForwardRebalance, walkForwardTop, portfolio.ModeEqual, portfolio.DefaultCostModel())
		if err != nil {
			return err
		}

		windows, err := sweep.WalkForward(input, start, end, walkForwardWindow, walkForwardStep)
		if err != nil {
			return fmt.Errorf("run walk-forward: %w", err)
		}

		runID := uuid.New().String()
		fmt.Printf("run: %s\n", runID)
		for _, w := range windows {
			fmt.Printf("[%s, %s] CAGR=%7.2f%% Sharpe=%5.2f MDD=%7.2f%%\n",
				w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"), w.CAGR*100, w.Sharpe, w.MDD*100)
		}

		if walkForwardOut == "" {
			return fmt.Errorf("--out is required")
		}
		f, err := os.Create(walkForwardOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", walkForwardOut, err)
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(walkForwardResult{RunID: runID, Windows: windows})
	},
}

func init() {
	walkForwardCmd.Flags().StringVar(&walkForwardStart, "start", "", "overall window range start, YYYY-MM-DD (required)")
	walkForwardCmd.Flags().StringVar(&walkForwardEnd, "end", "", "overall window range end, YYYY-MM-DD (required)")
	walkForwardCmd.Flags().IntVar(&walkForwardRebalance, "rebalance", 20, "rebalance every N trading days within each window")
	walkForwardCmd.Flags().IntVar(&walkForwardTop, "top", 20, "number of candidates held per rebalance")
	walkForwardCmd.Flags().IntVar(&walkForwardWindow, "window", 3, "window length in years")
	walkForwardCmd.Flags().IntVar(&walkForwardStep, "step", 6, "step between window starts, in months")
	walkForwardCmd.Flags().StringVar(&walkForwardOut, "out", "", "write window results as JSON to this path (required)")
	_ = walkForwardCmd.MarkFlagRequired("start")
	_ = walkForwardCmd.MarkFlagRequired("end")
	_ = walkForwardCmd.MarkFlagRequired("out")
}
