package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateStockListForce bool

var updateStockListCmd = &cobra.Command{
	Use:   "update-stock-list",
	Short: "Refresh the ticker catalog from the primary and fallback company-info endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if !updateStockListForce {
			stale, err := a.universe.ShouldUpdate()
			if err != nil {
				return fmt.Errorf("check catalog staleness: %w", err)
			}
			if !stale {
				fmt.Println("universe catalog is fresh, nothing to do (use --force to refresh anyway)")
				return nil
			}
		}

		count, err := a.universe.Refresh(cmd.Context())
		if err != nil {
			return fmt.Errorf("refresh universe catalog: %w", err)
		}
		fmt.Printf("refreshed %d tickers\n", count)
		return nil
	},
}

func init() {
	updateStockListCmd.Flags().BoolVar(&updateStockListForce, "force", false, "refresh even if the catalog is not stale")
}
