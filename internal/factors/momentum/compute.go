// Package momentum derives technical-indicator snapshots from a ticker's
// stored close-price history. Unlike the other factor packages it never
// talks to an upstream provider: it is a pure function of price history
// already persisted by internal/factors/price.
package momentum

import (
	"fmt"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/chenhom/gugo-screener/internal/storage"
)

// warmupDays is the longest indicator window used below (52-week price
// change), plus slack for non-trading days, so the lookback query always
// has enough history for every indicator to produce a value.
const warmupDays = 420

// Fetcher computes the latest momentum snapshot for a ticker.
type Fetcher struct {
	priceRepo *storage.PriceRepository
	log       zerolog.Logger
}

// New builds a momentum Fetcher.
func New(priceRepo *storage.PriceRepository, log zerolog.Logger) *Fetcher {
	return &Fetcher{priceRepo: priceRepo, log: log.With().Str("component", "factors.momentum").Logger()}
}

// Compute returns ticker's momentum snapshot as of asOf, reading its
// warmed-up close-price window from storage. A window shorter than an
// indicator's minimum period leaves that field nil instead of erroring.
func (f *Fetcher) Compute(ticker string, asOf time.Time) (domain.MomentumSnapshot, error) {
	from := asOf.AddDate(0, 0, -warmupDays)
	bars, err := f.priceRepo.Series(ticker, from, asOf)
	if err != nil {
		return domain.MomentumSnapshot{}, fmt.Errorf("load price series for %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return domain.MomentumSnapshot{}, fmt.Errorf("%w: no price history for %s", domain.ErrNotFound, ticker)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	snap := domain.MomentumSnapshot{Ticker: ticker, Date: bars[len(bars)-1].Date}

	if len(closes) >= 15 {
		rsi := talib.Rsi(closes, 14)
		last(rsi, &snap.RSI14)
	}
	if len(closes) >= 5 {
		ma5 := talib.Sma(closes, 5)
		last(ma5, &snap.MA5)
	}
	var ma20Series, ma60Series []float64
	if len(closes) >= 20 {
		ma20Series = talib.Sma(closes, 20)
		last(ma20Series, &snap.MA20)
	}
	if len(closes) >= 60 {
		ma60Series = talib.Sma(closes, 60)
		last(ma60Series, &snap.MA60)
	}
	if len(closes) >= 34 {
		macd, _, _ := talib.Macd(closes, 12, 26, 9)
		last(macd, &snap.MACD)
	}
	if len(closes) >= 20 {
		upper, mid, lower := talib.BBands(closes, 20, 2, 2, talib.SMA)
		last(upper, &snap.BollingerUpper)
		last(mid, &snap.BollingerMid)
		last(lower, &snap.BollingerLower)
	}
	if n := len(closes); n >= 22 {
		change := (closes[n-1] - closes[n-22]) / closes[n-22] * 100
		snap.PriceChange1M = &change
	}
	if n := len(closes); n >= 252 {
		change := (closes[n-1] - closes[n-252]) / closes[n-252] * 100
		snap.PriceChange52W = &change
	}
	if ma20Series != nil && ma60Series != nil {
		snap.MA20AboveMA60Days = countMA20AboveMA60Days(ma20Series, ma60Series)
	}

	return snap, nil
}

// last copies the final non-NaN value of series into *out, leaving *out
// nil if series is empty or all NaN. go-talib leaves the warm-up period of
// every indicator at zero rather than NaN, so the length guards in Compute
// are what keep a warm-up-only series from being read here.
func last(series []float64, out **float64) {
	for i := len(series) - 1; i >= 0; i-- {
		if !isNaN(series[i]) {
			v := series[i]
			*out = &v
			return
		}
	}
}

func isNaN(f float64) bool { return f != f }

// countMA20AboveMA60Days counts every index across the full window where
// both moving averages are defined and MA20 exceeds MA60. The two series
// are go-talib SMA outputs over the same input length, so they are already
// aligned by absolute bar index; indices where either is still inside its
// own warm-up are skipped rather than counted as "below", so the first 59
// bars of MA60 warm-up do not drag the count down. go-talib leaves warm-up
// entries at zero, and closes are positive, so a defined average is never
// zero or below: such entries (and NaN) are the ones skipped.
func countMA20AboveMA60Days(ma20, ma60 []float64) int {
	n := len(ma20)
	if len(ma60) < n {
		n = len(ma60)
	}
	count := 0
	for i := 0; i < n; i++ {
		if isNaN(ma20[i]) || isNaN(ma60[i]) || ma20[i] <= 0 || ma60[i] <= 0 {
			continue
		}
		if ma20[i] > ma60[i] {
			count++
		}
	}
	return count
}
