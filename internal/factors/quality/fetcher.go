// Package quality fetches income-statement and balance-sheet ratios from
// the upstream providers, merges them by reporting date, and persists the
// result to the quality database.
package quality

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

// Fetcher pulls one ticker's profitability and leverage ratios and upserts
// the merged result.
type Fetcher struct {
	primary  upstream.Source
	fallback upstream.Source
	repo     *storage.QualityRepository
	log      zerolog.Logger
}

// New builds a quality Fetcher.
func New(primary, fallback upstream.Source, repo *storage.QualityRepository, log zerolog.Logger) *Fetcher {
	return &Fetcher{primary: primary, fallback: fallback, repo: repo, log: log.With().Str("component", "factors.quality").Logger()}
}

// Fetch retrieves ticker's income statement and balance sheet rows for
// [from, to], merges them by date, and upserts the result.
func (f *Fetcher) Fetch(ctx context.Context, ticker string, from, to time.Time) error {
	income, err := factors.FetchWithFallback(
		func() ([]upstream.IncomeStatementRecord, error) { return f.primary.FetchFinancialStatements(ctx, ticker, from, to) },
		func() ([]upstream.IncomeStatementRecord, error) { return f.fallback.FetchFinancialStatements(ctx, ticker, from, to) },
	)
	if err != nil {
		return fmt.Errorf("fetch financial statements for %s: %w", ticker, err)
	}
	balance, err := factors.FetchWithFallback(
		func() ([]upstream.BalanceSheetRecord, error) { return f.primary.FetchBalanceSheet(ctx, ticker, from, to) },
		func() ([]upstream.BalanceSheetRecord, error) { return f.fallback.FetchBalanceSheet(ctx, ticker, from, to) },
	)
	if err != nil {
		return fmt.Errorf("fetch balance sheet for %s: %w", ticker, err)
	}

	rows := mergeByDate(ticker, income, balance)
	if err := f.repo.UpsertQuality(rows); err != nil {
		return fmt.Errorf("store quality for %s: %w", ticker, err)
	}
	f.log.Debug().Str("ticker", ticker).Int("rows", len(rows)).Msg("fetched quality")
	return nil
}

// rawLineItems is one reporting period's raw income-statement and
// balance-sheet fields, joined by date, before ratio derivation.
type rawLineItems struct {
	revenue       *float64
	grossProfit   *float64
	opIncome      *float64
	netIncome     *float64
	eps           *float64
	totalAssets   *float64
	totalEquity   *float64
	totalLiab     *float64
	currentAssets *float64
	currentLiab   *float64
}

// mergeByDate joins income and balance rows by reporting date and derives
// the seven quality ratios from the raw line items. A date is emitted only
// if at least one ratio (or EPS) was computable from what that date's rows
// actually carried.
func mergeByDate(ticker string, income []upstream.IncomeStatementRecord, balance []upstream.BalanceSheetRecord) []domain.Quality {
	byDate := map[string]*rawLineItems{}
	var order []string

	get := func(date time.Time) *rawLineItems {
		key := date.Format(domain.DateLayout)
		r, ok := byDate[key]
		if !ok {
			r = &rawLineItems{}
			byDate[key] = r
			order = append(order, key)
		}
		return r
	}

	for _, r := range income {
		raw := get(r.Date)
		raw.revenue, raw.grossProfit, raw.opIncome, raw.netIncome, raw.eps =
			r.Revenue, r.GrossProfit, r.OpIncome, r.NetIncome, r.EPS
	}
	for _, r := range balance {
		raw := get(r.Date)
		raw.totalAssets, raw.totalEquity, raw.totalLiab, raw.currentAssets, raw.currentLiab =
			r.TotalAssets, r.TotalEquity, r.TotalLiab, r.CurrentAssets, r.CurrentLiab
	}

	out := make([]domain.Quality, 0, len(order))
	for _, key := range order {
		date, err := time.Parse(domain.DateLayout, key)
		if err != nil {
			continue
		}
		q := deriveQuality(ticker, date, byDate[key])
		if q.AnyPresent() {
			out = append(out, q)
		}
	}
	return out
}

// deriveQuality computes the seven quality ratios from raw, per the
// system's percentage-ratio formulas. A ratio is left nil whenever its
// numerator or denominator is missing, or its denominator is zero.
func deriveQuality(ticker string, date time.Time, raw *rawLineItems) domain.Quality {
	return domain.Quality{
		Ticker:       ticker,
		Date:         date,
		GrossMargin:  pctRatio(raw.grossProfit, raw.revenue),
		OpMargin:     pctRatio(raw.opIncome, raw.revenue),
		NetMargin:    pctRatio(raw.netIncome, raw.revenue),
		ROA:          pctRatio(raw.netIncome, raw.totalAssets),
		ROE:          pctRatio(raw.netIncome, raw.totalEquity),
		DebtRatio:    pctRatio(raw.totalLiab, raw.totalAssets),
		CurrentRatio: pctRatio(raw.currentAssets, raw.currentLiab),
		EPS:          raw.eps,
	}
}

// pctRatio returns 100*numerator/denominator, or nil if either operand is
// missing or denominator is zero.
func pctRatio(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return nil
	}
	v := 100 * *numerator / *denominator
	return &v
}
