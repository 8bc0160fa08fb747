// Package executor implements a bounded-concurrency batch dispatcher: a
// worker pool over an item set with per-item exponential-backoff retry,
// quota-aware fast-stop, and a resumable on-disk progress ledger. Every
// per-factor fetch command in cmd/ runs its ticker set through one
// Executor.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chenhom/gugo-screener/internal/domain"
)

// Work is the per-item function a caller hands to Run. It must never panic
// and should return domain-typed errors so Run can branch on
// domain.IsQuotaExceeded.
type Work func(ctx context.Context, item string) error

// Options configures one Executor run.
type Options struct {
	// Concurrency bounds the number of items in flight at once. A
	// reasonable default is 3-5 to stay polite to upstream rate limits.
	Concurrency int
	// MaxRetries is how many additional attempts a failing item gets
	// beyond its first. 0 means no retries.
	MaxRetries int
	// RetryDelay is the base delay; attempt k waits RetryDelay * 2^(k-1).
	RetryDelay time.Duration
	// SkipOnError, when true, lets the batch continue past an item that
	// exhausted its retries instead of aborting the whole run. Ordinary
	// failures are always recorded and the batch always continues past
	// them regardless of this flag, so it currently has no effect on
	// control flow; it is kept for callers that want to be explicit about
	// that expectation at the call site.
	SkipOnError bool
	// LedgerDir is the directory progress_<task>.json is written under.
	// Empty disables the ledger entirely (used by tests and by one-shot
	// commands that do not need resumability).
	LedgerDir string
}

// DefaultOptions returns sensible defaults for a single fetch command.
func DefaultOptions() Options {
	return Options{
		Concurrency: 4,
		MaxRetries:  3,
		RetryDelay:  2 * time.Second,
	}
}

// Result summarizes one Run invocation.
type Result struct {
	Successful  []string
	Failed      []FailedEntry
	Skipped     []string
	Duration    time.Duration
	SuccessRate float64
}

// Executor runs a Work function over an item set with bounded concurrency.
type Executor struct {
	opts Options
	log  zerolog.Logger
}

// New builds an Executor. A zero-value Options Concurrency is treated as 1.
func New(opts Options, log zerolog.Logger) *Executor {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Executor{opts: opts, log: log.With().Str("component", "executor").Logger()}
}

type itemOutcome struct {
	item string
	err  error
}

// Run dispatches work over items through at most opts.Concurrency parallel
// workers. taskName keys the progress ledger. On the first
// domain.QuotaExceeded observed from any worker, Run fast-stops: no further
// items are dispatched, in-flight items are allowed to finish, and the
// remainder of items is reported skipped-quota. ctx cancellation has the
// same fast-stop effect as a quota hit, for the signal-driven graceful-exit
// path in cmd/.
func (e *Executor) Run(ctx context.Context, taskName string, items []string, work Work) (Result, error) {
	start := time.Now()

	var ledger *Ledger
	if e.opts.LedgerDir != "" {
		ledger = loadLedger(e.opts.LedgerDir, taskName, len(items))
	} else {
		ledger = &Ledger{SessionID: uuid.New().String(), Total: len(items), StartTime: start, processedIndex: map[string]bool{}}
	}

	pending := make([]string, 0, len(items))
	for _, item := range items {
		if ledger.alreadyProcessed(item) {
			continue
		}
		pending = append(pending, item)
	}
	if len(pending) < len(items) {
		e.log.Info().Str("task", taskName).Int("resumed_skip", len(items)-len(pending)).Msg("resuming from progress ledger")
	}

	jobs := make(chan string)
	outcomes := make(chan itemOutcome)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var quotaHit struct {
		sync.Mutex
		hit bool
	}

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				err := e.runWithRetry(runCtx, item, work)
				if domain.IsQuotaExceeded(err) {
					quotaHit.Lock()
					quotaHit.hit = true
					quotaHit.Unlock()
					cancel()
				}
				outcomes <- itemOutcome{item: item, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, item := range pending {
			select {
			case <-runCtx.Done():
				return
			case jobs <- item:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	dispatched := make(map[string]bool, len(pending))
	var result Result
	for outcome := range outcomes {
		dispatched[outcome.item] = true
		if outcome.err == nil {
			result.Successful = append(result.Successful, outcome.item)
			ledger.recordSuccess(outcome.item)
			continue
		}
		if domain.IsQuotaExceeded(outcome.err) {
			e.log.Warn().Str("task", taskName).Str("item", outcome.item).Msg("quota exceeded, fast-stopping batch")
			ledger.QuotaExceeded = true
			continue
		}
		entry := FailedEntry{Item: outcome.item, Error: outcome.err.Error(), Ts: time.Now()}
		result.Failed = append(result.Failed, entry)
		ledger.recordFailure(outcome.item, outcome.err)
	}

	for _, item := range pending {
		if !dispatched[item] {
			result.Skipped = append(result.Skipped, item)
		}
	}

	result.Duration = time.Since(start)
	total := len(result.Successful) + len(result.Failed) + len(result.Skipped)
	if total > 0 {
		result.SuccessRate = float64(len(result.Successful)) / float64(total)
	}

	if e.opts.LedgerDir != "" {
		if err := ledger.save(e.opts.LedgerDir, taskName); err != nil {
			return result, fmt.Errorf("save progress ledger for %s: %w", taskName, err)
		}
	}

	e.log.Info().Str("task", taskName).
		Int("successful", len(result.Successful)).
		Int("failed", len(result.Failed)).
		Int("skipped", len(result.Skipped)).
		Dur("duration", result.Duration).
		Msg("batch complete")

	return result, nil
}

// runWithRetry calls work(ctx, item), retrying on failure up to
// opts.MaxRetries times with exponential backoff. A domain.QuotaExceeded
// error is never retried: it propagates immediately so the caller can
// fast-stop the whole batch.
func (e *Executor) runWithRetry(ctx context.Context, item string, work Work) error {
	var lastErr error
	for attempt := 0; attempt <= e.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := e.opts.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := work(ctx, item)
		if err == nil {
			return nil
		}
		if domain.IsQuotaExceeded(err) {
			return err
		}
		lastErr = err
		e.log.Debug().Str("item", item).Int("attempt", attempt+1).Err(err).Msg("item attempt failed")
	}
	return lastErr
}
