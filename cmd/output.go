package cmd

import (
	"fmt"
	"time"

	"github.com/chenhom/gugo-screener/internal/executor"
)

// printBatchResult prints the summary line every fetch-* / update command
// shows after a batch executor run.
func printBatchResult(a *app, result executor.Result) {
	fmt.Printf("done: %d ok, %d failed, %d skipped (%.0f%% success) in %s\n",
		len(result.Successful), len(result.Failed), len(result.Skipped),
		result.SuccessRate*100, result.Duration.Round(time.Second))
	for _, f := range result.Failed {
		a.log.Warn().Str("item", f.Item).Str("error", f.Error).Msg("item failed")
	}
}
