// Package universe maintains the listed/OTC ticker catalog and its
// refresh staleness policy.
package universe

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/chenhom/gugo-screener/internal/storage"
	"github.com/chenhom/gugo-screener/internal/upstream"
)

// staleAfter is how long a catalog refresh remains fresh before
// shouldUpdate reports true again.
const staleAfter = 24 * time.Hour

// Service refreshes and serves the ticker catalog.
type Service struct {
	primary  upstream.Source
	fallback upstream.Source
	repo     *storage.FundamentalsRepository
	log      zerolog.Logger
}

// New builds a universe Service. fallback may be nil when the primary
// catalog alone is sufficient; an empty fallback catalog is acceptable.
func New(primary, fallback upstream.Source, repo *storage.FundamentalsRepository, log zerolog.Logger) *Service {
	return &Service{primary: primary, fallback: fallback, repo: repo, log: log.With().Str("component", "universe").Logger()}
}

// ShouldUpdate reports whether the catalog is absent or older than 24h.
func (s *Service) ShouldUpdate() (bool, error) {
	lastUpdated, err := s.repo.UniverseLastUpdated()
	if err != nil {
		return false, fmt.Errorf("check universe staleness: %w", err)
	}
	if lastUpdated == nil {
		return true, nil
	}
	return time.Since(*lastUpdated) > staleAfter, nil
}

// Refresh pulls the primary catalog and, if present, the fallback
// catalog, upserts the union into the universe table, and stamps the
// refresh time. The caller decides whether to call Refresh at all, via
// ShouldUpdate or a --force flag.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	primaryRows, err := s.primary.FetchCompanyInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch primary company catalog: %w", err)
	}

	byTicker := make(map[string]storage.Ticker, len(primaryRows))
	for _, r := range primaryRows {
		byTicker[r.Ticker] = storage.Ticker{
			Ticker: r.Ticker, Name: r.Name, Industry: r.Industry, ListedOn: r.ListedOn, Market: r.Market, Active: true,
		}
	}

	if s.fallback != nil {
		fallbackRows, err := s.fallback.FetchCompanyInfo(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("fallback company catalog unavailable, continuing with primary only")
		}
		for _, r := range fallbackRows {
			if _, exists := byTicker[r.Ticker]; exists {
				continue
			}
			byTicker[r.Ticker] = storage.Ticker{
				Ticker: r.Ticker, Name: r.Name, Industry: r.Industry, ListedOn: r.ListedOn, Market: r.Market, Active: true,
			}
		}
	}

	rows := make([]storage.Ticker, 0, len(byTicker))
	for _, t := range byTicker {
		rows = append(rows, t)
	}

	if err := s.repo.UpsertUniverse(rows); err != nil {
		return 0, fmt.Errorf("upsert universe catalog: %w", err)
	}
	if err := s.repo.SetUniverseLastUpdated(time.Now()); err != nil {
		return 0, fmt.Errorf("stamp universe refresh time: %w", err)
	}
	s.log.Info().Int("tickers", len(rows)).Msg("refreshed ticker catalog")
	return len(rows), nil
}

// List returns every active ticker in the catalog.
func (s *Service) List() ([]storage.Ticker, error) {
	return s.repo.ListUniverse()
}
