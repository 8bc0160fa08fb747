package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/scoring"
)

var (
	rankLimit    int
	rankMinScore float64
	rankWeights  string
	rankMethod   string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score and rank the current universe by weighted composite",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		weights, err := parseWeights(rankWeights)
		if err != nil {
			return err
		}

		engine := scoring.New(scoring.NewStoreDataSource(a.store), a.momentum,
			scoring.WithWeights(weights), scoring.WithMethod(scoring.Method(rankMethod)))

		tickers, err := a.resolveTickers("")
		if err != nil {
			return fmt.Errorf("resolve universe: %w", err)
		}

		ranks, err := engine.ScoreAll(tickers, time.Now())
		if err != nil {
			return fmt.Errorf("score universe: %w", err)
		}

		sort.Slice(ranks, func(i, j int) bool { return ranks[i].Total > ranks[j].Total })

		printed := 0
		for _, r := range ranks {
			if r.Total < rankMinScore {
				continue
			}
			fmt.Printf("%-8s total=%6.2f  val=%6.2f gro=%6.2f qua=%6.2f chi=%6.2f mom=%6.2f",
				r.Ticker, r.Total, r.Valuation, r.Growth, r.Quality, r.Chips, r.Momentum)
			if len(r.Missing) > 0 {
				fmt.Printf("  missing=%s", strings.Join(r.Missing, ","))
			}
			fmt.Println()
			printed++
			if rankLimit > 0 && printed >= rankLimit {
				break
			}
		}
		return nil
	},
}

// parseWeights parses "v,g,q,c,m" into a scoring.Weights, defaulting to
// scoring.DefaultWeights when csv is empty.
func parseWeights(csv string) (scoring.Weights, error) {
	if strings.TrimSpace(csv) == "" {
		return scoring.DefaultWeights(), nil
	}
	parts := strings.Split(csv, ",")
	if len(parts) != 5 {
		return scoring.Weights{}, fmt.Errorf("--weights must have 5 comma-separated values (v,g,q,c,m), got %d", len(parts))
	}
	values := make([]float64, 5)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return scoring.Weights{}, fmt.Errorf("parse weight %q: %w", p, err)
		}
		values[i] = v
	}
	return scoring.Weights{Valuation: values[0], Growth: values[1], Quality: values[2], Chips: values[3], Momentum: values[4]}, nil
}

func init() {
	rankCmd.Flags().IntVar(&rankLimit, "limit", 0, "max rows to print (0 = all)")
	rankCmd.Flags().Float64Var(&rankMinScore, "minScore", 0, "drop tickers below this total score")
	rankCmd.Flags().StringVar(&rankWeights, "weights", "", "v,g,q,c,m factor weights (default: system default)")
	rankCmd.Flags().StringVar(&rankMethod, "method", string(scoring.MethodZScore), "zscore|percentile|rolling")
}
