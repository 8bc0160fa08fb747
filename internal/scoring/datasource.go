package scoring

import (
	"time"

	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/chenhom/gugo-screener/internal/storage"
)

// storeDataSource adapts storage.Store's two fundamentals-bearing
// repositories to the DataSource interface the engine consumes.
type storeDataSource struct {
	fundamentals *storage.FundamentalsRepository
	quality      *storage.QualityRepository
}

// NewStoreDataSource builds a DataSource backed by a Store's repositories.
func NewStoreDataSource(store *storage.Store) DataSource {
	return &storeDataSource{fundamentals: store.Fundamentals, quality: store.Quality}
}

func (s *storeDataSource) ValuationCrossSection(asOf time.Time) ([]domain.Valuation, error) {
	return s.fundamentals.ValuationCrossSection(asOf)
}

func (s *storeDataSource) LatestGrowth(asOf time.Time) ([]domain.Growth, error) {
	return s.fundamentals.LatestGrowth(asOf)
}

func (s *storeDataSource) QualityCrossSection(asOf time.Time) ([]domain.Quality, error) {
	return s.quality.QualityCrossSection(asOf)
}

func (s *storeDataSource) FundFlowCrossSection(asOf time.Time) ([]domain.FundFlow, error) {
	return s.fundamentals.FundFlowCrossSection(asOf)
}

func (s *storeDataSource) ValuationHistory(ticker string, asOf time.Time, window int) ([]domain.Valuation, error) {
	return s.fundamentals.ValuationSeries(ticker, asOf, window)
}

func (s *storeDataSource) GrowthHistory(ticker string, asOf time.Time, window int) ([]domain.Growth, error) {
	// A negative LIMIT reads the whole series, so the window is taken from
	// rows on or before asOf rather than from the latest rows overall.
	rows, err := s.fundamentals.GrowthSeries(ticker, -1)
	if err != nil {
		return nil, err
	}
	out := rows[:0:0]
	for _, g := range rows {
		if !g.Month.After(asOf) {
			out = append(out, g)
		}
	}
	if window > 0 && len(out) > window {
		out = out[len(out)-window:]
	}
	return out, nil
}

func (s *storeDataSource) QualityHistory(ticker string, asOf time.Time, window int) ([]domain.Quality, error) {
	return s.quality.QualitySeries(ticker, asOf, window)
}

func (s *storeDataSource) FundFlowHistory(ticker string, asOf time.Time, window int) ([]domain.FundFlow, error) {
	rows, err := s.fundamentals.FundFlowWindow(ticker, asOf, window*7)
	if err != nil {
		return nil, err
	}
	if len(rows) > window {
		rows = rows[len(rows)-window:]
	}
	return rows, nil
}
