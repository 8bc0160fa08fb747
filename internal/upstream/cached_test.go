package upstream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenhom/gugo-screener/internal/cache"
)

type countingSource struct {
	calls int
	rows  []PriceRecord
	err   error
}

func (s *countingSource) FetchPrice(ctx context.Context, ticker string, from, to time.Time) ([]PriceRecord, error) {
	s.calls++
	return s.rows, s.err
}
func (s *countingSource) FetchValuation(context.Context, string, time.Time, time.Time) ([]ValuationRecord, error) {
	return nil, nil
}
func (s *countingSource) FetchMonthlyRevenue(context.Context, string, int) ([]RevenueRecord, error) {
	return nil, nil
}
func (s *countingSource) FetchFinancialStatements(context.Context, string, time.Time, time.Time) ([]IncomeStatementRecord, error) {
	return nil, nil
}
func (s *countingSource) FetchBalanceSheet(context.Context, string, time.Time, time.Time) ([]BalanceSheetRecord, error) {
	return nil, nil
}
func (s *countingSource) FetchInstitutionalFlow(context.Context, string, time.Time, time.Time) ([]InstitutionalFlowRecord, error) {
	return nil, nil
}
func (s *countingSource) FetchCompanyInfo(context.Context) ([]CompanyInfoRecord, error) {
	return nil, nil
}

func TestCachedSource_FetchPrice_SecondCallHitsCache(t *testing.T) {
	c, err := cache.New(t.TempDir(), time.Hour)
	require.NoError(t, err)

	inner := &countingSource{rows: []PriceRecord{{Open: 1, High: 2, Low: 0.5, Close: 1.5}}}
	cached := NewCachedSource(inner, c)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	first, err := cached.FetchPrice(context.Background(), "2330", from, to)
	require.NoError(t, err)
	second, err := cached.FetchPrice(context.Background(), "2330", from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second call should be served from cache")
	assert.Equal(t, first, second)
}

func TestCachedSource_FetchPrice_PropagatesError(t *testing.T) {
	c, err := cache.New(t.TempDir(), time.Hour)
	require.NoError(t, err)

	inner := &countingSource{err: errors.New("boom")}
	cached := NewCachedSource(inner, c)

	_, err = cached.FetchPrice(context.Background(), "2330", time.Now(), time.Now())
	assert.Error(t, err)
}
