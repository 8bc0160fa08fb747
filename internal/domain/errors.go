// Package domain holds the shared record types and error kinds used across
// the ingestion, scoring, and back-test subsystems.
package domain

import (
	"errors"
	"fmt"
)

// QuotaExceededError is returned when an upstream provider reports that its
// request quota has been exhausted (FinMind HTTP 402). The batch executor
// recognizes this error kind by type and fast-stops instead of retrying.
type QuotaExceededError struct {
	Dataset string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for dataset %q", e.Dataset)
}

// NewQuotaExceeded builds a QuotaExceededError for the given dataset name.
func NewQuotaExceeded(dataset string) error {
	return &QuotaExceededError{Dataset: dataset}
}

// IsQuotaExceeded reports whether err (or something it wraps) is a
// QuotaExceededError.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// Sentinel errors for the remaining error kinds. These are local recovery
// conditions or fatal conditions that upper layers branch on with
// errors.Is rather than a type switch, since they carry no extra payload.
var (
	// ErrNotFound marks an absent (ticker, window) result from an upstream
	// provider (HTTP 404 or an empty data array). Fetchers treat this the
	// same as an empty result set; it is never returned to a CLI caller.
	ErrNotFound = errors.New("no data for requested window")

	// ErrTransientFetch marks a retryable upstream failure: network errors,
	// 5xx responses, or malformed JSON payloads.
	ErrTransientFetch = errors.New("transient fetch failure")

	// ErrInvalidPriceData marks a back-test precondition failure: a price
	// sample that is non-positive or non-finite. Fatal for the invocation.
	ErrInvalidPriceData = errors.New("invalid price data")

	// ErrSchemaMismatch marks a storage engine assertion failure on open:
	// an expected table or column is missing. Fatal.
	ErrSchemaMismatch = errors.New("database schema mismatch")

	// ErrUserInput marks a CLI argument that failed validation (e.g. an
	// unparseable date or an out-of-range weight).
	ErrUserInput = errors.New("invalid input")
)
