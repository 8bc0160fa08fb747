// Package fundflow fetches the three-legged institutional net-buy figures
// from the upstream providers and persists them to the fundamentals
// database.
package fundflow

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

// Fetcher pulls one ticker's institutional flow history and upserts it.
type Fetcher struct {
	primary  upstream.Source
	fallback upstream.Source
	repo     *storage.FundamentalsRepository
	log      zerolog.Logger
}

// New builds a fundflow Fetcher.
func New(primary, fallback upstream.Source, repo *storage.FundamentalsRepository, log zerolog.Logger) *Fetcher {
	return &Fetcher{primary: primary, fallback: fallback, repo: repo, log: log.With().Str("component", "factors.fundflow").Logger()}
}

// Fetch retrieves ticker's fund-flow rows for [from, to] and upserts them.
func (f *Fetcher) Fetch(ctx context.Context, ticker string, from, to time.Time) error {
	records, err := factors.FetchWithFallback(
		func() ([]upstream.InstitutionalFlowRecord, error) { return f.primary.FetchInstitutionalFlow(ctx, ticker, from, to) },
		func() ([]upstream.InstitutionalFlowRecord, error) { return f.fallback.FetchInstitutionalFlow(ctx, ticker, from, to) },
	)
	if err != nil {
		return fmt.Errorf("fetch fund flow for %s: %w", ticker, err)
	}

	rows := make([]domain.FundFlow, 0, len(records))
	for _, r := range records {
		rows = append(rows, domain.FundFlow{Ticker: ticker, Date: r.Date, ForeignNet: r.ForeignNet, InvTrustNet: r.InvTrustNet, DealerNet: r.DealerNet})
	}

	if err := f.repo.UpsertFundFlow(rows); err != nil {
		return fmt.Errorf("store fund flow for %s: %w", ticker, err)
	}
	f.log.Debug().Str("ticker", ticker).Int("rows", len(rows)).Msg("fetched fund flow")
	return nil
}
