package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenhom/gugo-screener/internal/domain"
)

func testExecutor(opts Options) *Executor {
	if opts.Concurrency == 0 {
		opts.Concurrency = 2
	}
	return New(opts, zerolog.Nop())
}

func TestExecutor_Run_AllSucceed(t *testing.T) {
	e := testExecutor(Options{MaxRetries: 1, RetryDelay: time.Millisecond})
	result, err := e.Run(context.Background(), "task", []string{"A", "B", "C"}, func(ctx context.Context, item string) error {
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, result.Successful)
	assert.Empty(t, result.Failed)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, 1.0, result.SuccessRate)
}

func TestExecutor_Run_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	e := testExecutor(Options{Concurrency: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	result, err := e.Run(context.Background(), "task", []string{"A"}, func(ctx context.Context, item string) error {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return domain.ErrTransientFetch
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls)
	assert.Equal(t, []string{"A"}, result.Successful)
}

func TestExecutor_Run_ExhaustedRetriesRecordsFailure(t *testing.T) {
	e := testExecutor(Options{Concurrency: 1, MaxRetries: 1, RetryDelay: time.Millisecond})
	result, err := e.Run(context.Background(), "task", []string{"A", "B"}, func(ctx context.Context, item string) error {
		if item == "A" {
			return fmt.Errorf("boom")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, result.Successful)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "A", result.Failed[0].Item)
}

func TestExecutor_Run_QuotaFastStopsRemainingItems(t *testing.T) {
	e := testExecutor(Options{Concurrency: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	result, err := e.Run(context.Background(), "task", []string{"A", "B", "C"}, func(ctx context.Context, item string) error {
		if item == "A" {
			return domain.NewQuotaExceeded("TaiwanStockPrice")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, result.Successful)
	assert.Empty(t, result.Failed)
	assert.ElementsMatch(t, []string{"B", "C"}, result.Skipped)
}

func TestExecutor_Run_QuotaIsNeverRetried(t *testing.T) {
	var calls int32
	e := testExecutor(Options{Concurrency: 1, MaxRetries: 5, RetryDelay: time.Millisecond})
	_, err := e.Run(context.Background(), "task", []string{"A"}, func(ctx context.Context, item string) error {
		atomic.AddInt32(&calls, 1)
		return domain.NewQuotaExceeded("TaiwanStockPrice")
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls)
}

func TestExecutor_Run_ResumesFromLedger(t *testing.T) {
	dir := t.TempDir()
	e := testExecutor(Options{Concurrency: 1, MaxRetries: 0, RetryDelay: time.Millisecond, LedgerDir: dir})

	var seen []string
	result, err := e.Run(context.Background(), "resume-task", []string{"A", "B"}, func(ctx context.Context, item string) error {
		if item == "B" {
			return fmt.Errorf("still broken")
		}
		seen = append(seen, item)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, result.Successful)
	assert.Len(t, result.Failed, 1)

	var calledAgain []string
	result2, err := e.Run(context.Background(), "resume-task", []string{"A", "B"}, func(ctx context.Context, item string) error {
		calledAgain = append(calledAgain, item)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, calledAgain, "A was already processed by the prior run and must not be re-dispatched")
	assert.Equal(t, []string{"B"}, result2.Successful)
	_ = seen
}

func TestLoadLedger_IgnoresStaleLedger(t *testing.T) {
	dir := t.TempDir()
	l := &Ledger{Total: 1, Processed: []string{"A"}, StartTime: time.Now().Add(-10 * 24 * time.Hour), LastUpdated: time.Now().Add(-8 * 24 * time.Hour)}
	// Written directly rather than via save(), which would stamp LastUpdated
	// with the current time and make the ledger fresh again.
	data, err := json.Marshal(l)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(ledgerPath(dir, "stale-task"), data, 0o644))

	loaded := loadLedger(dir, "stale-task", 1)
	assert.False(t, loaded.alreadyProcessed("A"), "a ledger older than 7 days must be treated as absent")
}

func TestLoadLedger_HonorsFreshLedger(t *testing.T) {
	dir := t.TempDir()
	l := &Ledger{Total: 1, Processed: []string{"A"}, StartTime: time.Now(), LastUpdated: time.Now()}
	require.NoError(t, l.save(dir, "fresh-task"))

	loaded := loadLedger(dir, "fresh-task", 1)
	assert.True(t, loaded.alreadyProcessed("A"))
}
