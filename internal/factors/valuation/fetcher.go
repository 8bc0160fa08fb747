// Package valuation fetches per-day valuation multiples from the upstream
// providers and persists them to the fundamentals database.
package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/chenhom/gugo-screener/internal/factors"
	"github.com/chenhom/gugo-screener/internal/storage"
	"github.com/chenhom/gugo-screener/internal/upstream"
)

// Fetcher pulls one ticker's valuation history and upserts it.
type Fetcher struct {
	primary  upstream.Source
	fallback upstream.Source
	repo     *storage.FundamentalsRepository
	log      zerolog.Logger
}

// New builds a valuation Fetcher.
func New(primary, fallback upstream.Source, repo *storage.FundamentalsRepository, log zerolog.Logger) *Fetcher {
	return &Fetcher{primary: primary, fallback: fallback, repo: repo, log: log.With().Str("component", "factors.valuation").Logger()}
}

// Fetch retrieves ticker's valuation rows for [from, to] and upserts them.
func (f *Fetcher) Fetch(ctx context.Context, ticker string, from, to time.Time) error {
	records, err := factors.FetchWithFallback(
		func() ([]upstream.ValuationRecord, error) { return f.primary.FetchValuation(ctx, ticker, from, to) },
		func() ([]upstream.ValuationRecord, error) { return f.fallback.FetchValuation(ctx, ticker, from, to) },
	)
	if err != nil {
		return fmt.Errorf("fetch valuation for %s: %w", ticker, err)
	}

	rows := make([]domain.Valuation, 0, len(records))
	for _, r := range records {
		rows = append(rows, domain.Valuation{Ticker: ticker, Date: r.Date, PER: r.PER, PBR: r.PBR, DividendYield: r.DividendYield})
	}

	if err := f.repo.UpsertValuations(rows); err != nil {
		return fmt.Errorf("store valuation for %s: %w", ticker, err)
	}
	f.log.Debug().Str("ticker", ticker).Int("rows", len(rows)).Msg("fetched valuation")
	return nil
}
