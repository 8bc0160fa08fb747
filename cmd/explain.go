package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chenhom/gugo-screener/internal/scoring"
)

var explainCmd = &cobra.Command{
	Use:   "explain <ticker>",
	Short: "Print the full factor breakdown for a single ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ticker := args[0]
		engine := scoring.New(scoring.NewStoreDataSource(a.store), a.momentum)

		ranks, err := engine.ScoreAll([]string{ticker}, time.Now())
		if err != nil {
			return fmt.Errorf("score %s: %w", ticker, err)
		}
		if len(ranks) == 0 {
			return fmt.Errorf("no score produced for %s", ticker)
		}
		r := ranks[0]

		fmt.Printf("ticker:    %s\n", r.Ticker)
		fmt.Printf("as of:     %s\n", r.Date.Format("2006-01-02"))
		fmt.Printf("total:     %.2f\n", r.Total)
		fmt.Printf("valuation: %.2f\n", r.Valuation)
		fmt.Printf("growth:    %.2f\n", r.Growth)
		fmt.Printf("quality:   %.2f\n", r.Quality)
		fmt.Printf("chips:     %.2f\n", r.Chips)
		fmt.Printf("momentum:  %.2f\n", r.Momentum)
		if len(r.Missing) > 0 {
			fmt.Printf("missing:   %s\n", strings.Join(r.Missing, ", "))
		}
		return nil
	},
}
