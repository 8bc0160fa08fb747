package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/chenhom/gugo-screener/internal/cache"
	"github.com/chenhom/gugo-screener/internal/domain"
)

// Per-dataset cache freshness windows: price and valuation snapshots
// change once a day, institutional flow is published in frequent
// batches, everything else defaults to a half hour.
const (
	snapshotTTL     = 24 * time.Hour
	institutionalTTL = 3 * time.Hour
	defaultTTL      = 30 * time.Minute
)

// CachedSource wraps a Source with the file-backed response cache: every
// call first checks the cache for a fresh entry keyed by dataset and
// parameters, falling through to inner and storing the result on a miss.
// A cache write failure never fails the call; it only means the next
// identical request re-fetches from inner.
type CachedSource struct {
	inner Source
	cache *cache.Cache
}

// NewCachedSource wraps inner with c.
func NewCachedSource(inner Source, c *cache.Cache) *CachedSource {
	return &CachedSource{inner: inner, cache: c}
}

func cachedFetch[T any](c *cache.Cache, dataset string, ttl time.Duration, params map[string]string, fetch func() ([]T, error)) ([]T, error) {
	key := cache.Key(dataset, params)

	var cached []T
	if c.GetIfFresh(key, &cached) {
		return cached, nil
	}

	records, err := fetch()
	if err != nil {
		return nil, err
	}
	_ = c.StoreWithTTL(key, records, ttl)
	return records, nil
}

func dateParams(ticker string, from, to time.Time) map[string]string {
	return map[string]string{
		"ticker": ticker,
		"from":   from.Format(domain.DateLayout),
		"to":     to.Format(domain.DateLayout),
	}
}

func (c *CachedSource) FetchPrice(ctx context.Context, ticker string, from, to time.Time) ([]PriceRecord, error) {
	return cachedFetch(c.cache, "price", snapshotTTL, dateParams(ticker, from, to), func() ([]PriceRecord, error) {
		return c.inner.FetchPrice(ctx, ticker, from, to)
	})
}

func (c *CachedSource) FetchValuation(ctx context.Context, ticker string, from, to time.Time) ([]ValuationRecord, error) {
	return cachedFetch(c.cache, "valuation", snapshotTTL, dateParams(ticker, from, to), func() ([]ValuationRecord, error) {
		return c.inner.FetchValuation(ctx, ticker, from, to)
	})
}

func (c *CachedSource) FetchMonthlyRevenue(ctx context.Context, ticker string, months int) ([]RevenueRecord, error) {
	params := map[string]string{"ticker": ticker, "months": fmt.Sprintf("%d", months)}
	return cachedFetch(c.cache, "revenue", defaultTTL, params, func() ([]RevenueRecord, error) {
		return c.inner.FetchMonthlyRevenue(ctx, ticker, months)
	})
}

func (c *CachedSource) FetchFinancialStatements(ctx context.Context, ticker string, from, to time.Time) ([]IncomeStatementRecord, error) {
	return cachedFetch(c.cache, "financials", defaultTTL, dateParams(ticker, from, to), func() ([]IncomeStatementRecord, error) {
		return c.inner.FetchFinancialStatements(ctx, ticker, from, to)
	})
}

func (c *CachedSource) FetchBalanceSheet(ctx context.Context, ticker string, from, to time.Time) ([]BalanceSheetRecord, error) {
	return cachedFetch(c.cache, "balance_sheet", defaultTTL, dateParams(ticker, from, to), func() ([]BalanceSheetRecord, error) {
		return c.inner.FetchBalanceSheet(ctx, ticker, from, to)
	})
}

func (c *CachedSource) FetchInstitutionalFlow(ctx context.Context, ticker string, from, to time.Time) ([]InstitutionalFlowRecord, error) {
	return cachedFetch(c.cache, "institutional_flow", institutionalTTL, dateParams(ticker, from, to), func() ([]InstitutionalFlowRecord, error) {
		return c.inner.FetchInstitutionalFlow(ctx, ticker, from, to)
	})
}

func (c *CachedSource) FetchCompanyInfo(ctx context.Context) ([]CompanyInfoRecord, error) {
	return cachedFetch(c.cache, "company_info", defaultTTL, map[string]string{}, func() ([]CompanyInfoRecord, error) {
		return c.inner.FetchCompanyInfo(ctx)
	})
}
