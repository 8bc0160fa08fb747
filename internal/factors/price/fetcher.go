// Package price fetches OHLCV bars from the upstream providers and
// persists them to the price database.
package price

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

// Fetcher pulls one ticker's price history and upserts it into the price
// database.
type Fetcher struct {
	primary  upstream.Source
	fallback upstream.Source
	repo     *storage.PriceRepository
	log      zerolog.Logger
}

// New builds a price Fetcher.
func New(primary, fallback upstream.Source, repo *storage.PriceRepository, log zerolog.Logger) *Fetcher {
	return &Fetcher{primary: primary, fallback: fallback, repo: repo, log: log.With().Str("component", "factors.price").Logger()}
}

// Fetch retrieves ticker's bars for [from, to] and upserts them.
func (f *Fetcher) Fetch(ctx context.Context, ticker string, from, to time.Time) error {
	records, err := factors.FetchWithFallback(
		func() ([]upstream.PriceRecord, error) { return f.primary.FetchPrice(ctx, ticker, from, to) },
		func() ([]upstream.PriceRecord, error) { return f.fallback.FetchPrice(ctx, ticker, from, to) },
	)
	if err != nil {
		return fmt.Errorf("fetch price for %s: %w", ticker, err)
	}

	bars := make([]domain.PriceBar, 0, len(records))
	for _, r := range records {
		bars = append(bars, domain.PriceBar{
			Ticker: ticker, Date: r.Date, Open: r.Open, High: r.High, Low: r.Low,
			Close: r.Close, Volume: r.Volume, Turnover: r.Turnover,
		})
	}

	if err := f.repo.UpsertBars(bars); err != nil {
		return fmt.Errorf("store price bars for %s: %w", ticker, err)
	}
	f.log.Debug().Str("ticker", ticker).Int("bars", len(bars)).Msg("fetched price bars")
	return nil
}
