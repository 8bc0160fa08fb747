// Package growth fetches monthly revenue from the upstream providers,
// derives year-over-year and month-over-month growth rates, and persists
// the result to the fundamentals database.
package growth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/chenhom/gugo-screener/internal/factors"
	"github.com/chenhom/gugo-screener/internal/storage"
	"github.com/chenhom/gugo-screener/internal/upstream"
)

// Fetcher pulls one ticker's monthly revenue history, derives growth
// rates, and upserts the result.
type Fetcher struct {
	primary  upstream.Source
	fallback upstream.Source
	repo     *storage.FundamentalsRepository
	log      zerolog.Logger
}

// New builds a growth Fetcher.
func New(primary, fallback upstream.Source, repo *storage.FundamentalsRepository, log zerolog.Logger) *Fetcher {
	return &Fetcher{primary: primary, fallback: fallback, repo: repo, log: log.With().Str("component", "factors.growth").Logger()}
}

// Fetch retrieves ticker's trailing `months` of revenue, derives YoY/MoM,
// and upserts the result.
func (f *Fetcher) Fetch(ctx context.Context, ticker string, months int) error {
	records, err := factors.FetchWithFallback(
		func() ([]upstream.RevenueRecord, error) { return f.primary.FetchMonthlyRevenue(ctx, ticker, months) },
		func() ([]upstream.RevenueRecord, error) { return f.fallback.FetchMonthlyRevenue(ctx, ticker, months) },
	)
	if err != nil {
		return fmt.Errorf("fetch growth for %s: %w", ticker, err)
	}

	rows := DeriveGrowthSeries(ticker, records)
	if err := f.repo.UpsertGrowth(rows); err != nil {
		return fmt.Errorf("store growth for %s: %w", ticker, err)
	}
	f.log.Debug().Str("ticker", ticker).Int("rows", len(rows)).Msg("fetched growth")
	return nil
}

// DeriveGrowthSeries sorts records by month ascending and computes, for
// each month with 1 and/or 12 prior observations available, the
// month-over-month and year-over-year revenue growth rates. A month
// without the required prior observation gets a nil rate rather than a
// zero, so the scoring engine can tell "no growth" from "unknown".
func DeriveGrowthSeries(ticker string, records []upstream.RevenueRecord) []domain.Growth {
	sorted := make([]upstream.RevenueRecord, len(records))
	copy(sorted, records)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Month.Before(sorted[j-1].Month); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	out := make([]domain.Growth, len(sorted))
	for i, rec := range sorted {
		g := domain.Growth{Ticker: ticker, Month: rec.Month, Revenue: rec.Revenue}
		if i >= 1 && sorted[i-1].Revenue != 0 {
			mom := (float64(rec.Revenue) - float64(sorted[i-1].Revenue)) / float64(sorted[i-1].Revenue) * 100
			g.MoM = &mom
		}
		if i >= 12 && sorted[i-12].Revenue != 0 {
			yoy := (float64(rec.Revenue) - float64(sorted[i-12].Revenue)) / float64(sorted[i-12].Revenue) * 100
			g.YoY = &yoy
		}
		out[i] = g
	}
	return out
}
