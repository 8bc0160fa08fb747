package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ledgerStaleAfter is how old a progress ledger can be before a task start
// ignores it and begins from scratch.
const ledgerStaleAfter = 7 * 24 * time.Hour

// FailedEntry records one item's terminal failure for a task run.
type FailedEntry struct {
	Item  string    `json:"item"`
	Error string    `json:"error"`
	Ts    time.Time `json:"ts"`
}

// Ledger is the on-disk progress record for one named task. It lets a
// batch executor resume from where a prior run left off, and lets a
// provider quota pause survive across process restarts.
type Ledger struct {
	SessionID      string        `json:"sessionId"`
	Total          int           `json:"total"`
	Processed      []string      `json:"processed"`
	Failed         []FailedEntry `json:"failed"`
	QuotaExceeded  bool          `json:"quotaExceeded"`
	StartTime      time.Time     `json:"startTime"`
	LastUpdated    time.Time     `json:"lastUpdated"`
	processedIndex map[string]bool
}

// ledgerPath builds the progress file path for a task name under dir,
// named "progress_<task>.json".
func ledgerPath(dir, taskName string) string {
	return filepath.Join(dir, fmt.Sprintf("progress_%s.json", taskName))
}

// loadLedger reads the ledger for taskName from dir. A missing file, a
// corrupt file, or one whose LastUpdated is older than ledgerStaleAfter
// all return a fresh, empty ledger rather than an error: a stale or broken
// ledger must never block a new run.
func loadLedger(dir, taskName string, total int) *Ledger {
	fresh := &Ledger{SessionID: uuid.New().String(), Total: total, StartTime: time.Now(), processedIndex: map[string]bool{}}

	data, err := os.ReadFile(ledgerPath(dir, taskName))
	if err != nil {
		return fresh
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return fresh
	}
	if time.Since(l.LastUpdated) > ledgerStaleAfter {
		return fresh
	}

	l.Total = total
	l.processedIndex = make(map[string]bool, len(l.Processed))
	for _, item := range l.Processed {
		l.processedIndex[item] = true
	}
	return &l
}

// alreadyProcessed reports whether item was recorded successful by a prior,
// non-stale run.
func (l *Ledger) alreadyProcessed(item string) bool {
	return l.processedIndex[item]
}

// recordSuccess marks item processed.
func (l *Ledger) recordSuccess(item string) {
	if l.processedIndex == nil {
		l.processedIndex = map[string]bool{}
	}
	if l.processedIndex[item] {
		return
	}
	l.processedIndex[item] = true
	l.Processed = append(l.Processed, item)
}

// recordFailure appends a terminal failure entry.
func (l *Ledger) recordFailure(item string, err error) {
	l.Failed = append(l.Failed, FailedEntry{Item: item, Error: err.Error(), Ts: time.Now()})
}

// save writes the ledger to dir under taskName using a write-to-temp-then-
// rename sequence, matching internal/cache's corruption-safety idiom, so
// the progress file is never observed partially written by a concurrent
// reader.
func (l *Ledger) save(dir, taskName string) error {
	l.LastUpdated = time.Now()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create progress directory: %w", err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress ledger: %w", err)
	}

	final := ledgerPath(dir, taskName)
	tmp, err := os.CreateTemp(dir, ".progress_"+taskName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create progress temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write progress temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close progress temp file: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename progress temp file: %w", err)
	}
	return nil
}
