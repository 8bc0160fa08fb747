// Package sweep orchestrates repeated back-test runs: a Cartesian grid over
// (top, rebalance) and rolling walk-forward windows, each wrapping
// internal/backtest.Run independently.
package sweep

import (
	"fmt"
	"time"

	"github.com/chenhom/gugo-screener/internal/backtest"
)

// GridPoint is one (top, rebalance) pair and its resulting statistics.
type GridPoint struct {
	Top       int
	Rebalance int
	CAGR      float64
	MDD       float64
}

// Grid runs one back-test per (top, rebalance) pair in the Cartesian
// product of tops and rebalances, holding everything else in input fixed.
func Grid(input backtest.Input, tops, rebalances []int) ([]GridPoint, error) {
	var out []GridPoint
	for _, top := range tops {
		for _, rebalance := range rebalances {
			run := input
			run.Top = top
			run.Rebalance = rebalance
			result, err := backtest.Run(run)
			if err != nil {
				return nil, fmt.Errorf("grid point top=%d rebalance=%d: %w", top, rebalance, err)
			}
			out = append(out, GridPoint{Top: top, Rebalance: rebalance, CAGR: result.CAGR, MDD: result.MDD})
		}
	}
	return out, nil
}

// WalkForwardWindow is one rolling window's bounds and resulting
// statistics.
type WalkForwardWindow struct {
	Start, End time.Time
	CAGR       float64
	Sharpe     float64
	MDD        float64
}

// WalkForward runs one back-test per rolling window of length windowYears,
// stepped by stepMonths, across [start, end]. A window is emitted only
// when its full span fits inside [start, end].
func WalkForward(input backtest.Input, start, end time.Time, windowYears, stepMonths int) ([]WalkForwardWindow, error) {
	var out []WalkForwardWindow
	for k := 0; ; k++ {
		windowStart := start.AddDate(0, k*stepMonths, 0)
		windowEnd := windowStart.AddDate(windowYears, 0, 0)
		if windowEnd.After(end) {
			break
		}

		run := input
		run.Start = windowStart
		run.End = windowEnd
		result, err := backtest.Run(run)
		if err != nil {
			return nil, fmt.Errorf("walk-forward window [%s, %s]: %w",
				windowStart.Format("2006-01-02"), windowEnd.Format("2006-01-02"), err)
		}
		out = append(out, WalkForwardWindow{
			Start: windowStart, End: windowEnd,
			CAGR: result.CAGR, Sharpe: result.Sharpe, MDD: result.MDD,
		})
	}
	return out, nil
}

// WindowCount returns the number of windows WalkForward would emit for the
// given bounds, without running any back-test. It is the closed-form
// |{k >= 0 : start + k*stepMonths + windowYears <= end}|.
func WindowCount(start, end time.Time, windowYears, stepMonths int) int {
	count := 0
	for k := 0; ; k++ {
		windowStart := start.AddDate(0, k*stepMonths, 0)
		windowEnd := windowStart.AddDate(windowYears, 0, 0)
		if windowEnd.After(end) {
			break
		}
		count++
	}
	return count
}
