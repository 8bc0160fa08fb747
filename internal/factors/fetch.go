// Package factors holds the shared primary/fallback fetch helper used by
// each per-factor subpackage (valuation, growth, quality, fundflow,
// momentum, price).
package factors

import (
	"errors"

	"github.com/chenhom/gugo-screener/internal/domain"
)

// FetchWithFallback calls primary first; if primary reports
// domain.ErrNotFound, it calls fallback instead. Any other error from
// primary is returned as-is without trying fallback, since a transient
// network failure on the primary provider says nothing about whether the
// fallback has the data.
func FetchWithFallback[T any](primary, fallback func() (T, error)) (T, error) {
	result, err := primary()
	if err == nil {
		return result, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return fallback()
	}
	var zero T
	return zero, err
}
