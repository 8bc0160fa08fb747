package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/backtest"
	"github.com/chenhom/gugo-screener/internal/portfolio"
)

var (
	backtestStart     string
	backtestEnd       string
	backtestRebalance int
	backtestTop       int
	backtestMode      string
	backtestOut       string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a single historical portfolio back-test",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		start, err := parseDate(backtestStart)
		if err != nil {
			return err
		}
		end := time.Now()
		if backtestEnd != "" {
			end, err = parseDate(backtestEnd)
			if err != nil {
				return err
			}
		}
		mode, err := parseMode(backtestMode)
		if err != nil {
			return err
		}

		tickers, err := a.resolveTickers("")
		if err != nil {
			return fmt.Errorf("resolve universe: %w", err)
		}

		input, err := buildBacktestInput(a, tickers, start, end, backtestRebalance, backtestTop, mode, portfolio.DefaultCostModel())
		if err != nil {
			return err
		}

		result, err := backtest.Run(input)
		if err != nil {
			return fmt.Errorf("run backtest: %w", err)
		}

		runID := uuid.New().String()
		fmt.Printf("run:          %s\n", runID)
		fmt.Printf("trading days: %d\n", len(result.Equity.Dates))
		fmt.Printf("CAGR:         %.2f%%\n", result.CAGR*100)
		fmt.Printf("Sharpe:       %.2f\n", result.Sharpe)
		fmt.Printf("MaxDrawdown:  %.2f%%\n", result.MDD*100)

		if backtestOut != "" {
			f, err := os.Create(backtestOut)
			if err != nil {
				return fmt.Errorf("create %s: %w", backtestOut, err)
			}
			defer f.Close()
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			if err := enc.Encode(equityFile{RunID: runID, Dates: result.Equity.Dates, Equity: result.Equity.Equity}); err != nil {
				return fmt.Errorf("write %s: %w", backtestOut, err)
			}
		}
		return nil
	},
}

func init() {
	backtestCmd.Flags().StringVar(&backtestStart, "start", "", "backtest start date, YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestEnd, "end", "", "backtest end date, YYYY-MM-DD (default: today)")
	backtestCmd.Flags().IntVar(&backtestRebalance, "rebalance", 20, "rebalance every N trading days")
	backtestCmd.Flags().IntVar(&backtestTop, "top", 20, "number of candidates held per rebalance")
	backtestCmd.Flags().StringVar(&backtestMode, "mode", "equal", "equal|cap")
	backtestCmd.Flags().StringVar(&backtestOut, "out", "", "write the equity curve as JSON to this path")
	_ = backtestCmd.MarkFlagRequired("start")
}
