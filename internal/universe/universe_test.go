package universe

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenhom/gugo-screener/internal/storage"
	"github.com/chenhom/gugo-screener/internal/upstream"
)

func testRepo(t *testing.T) (*storage.FundamentalsRepository, func()) {
	t.Helper()
	tmp, err := os.CreateTemp("", "gugo_universe_test_*.db")
	require.NoError(t, err)
	path := tmp.Name()
	_ = tmp.Close()

	db, err := storage.OpenDB(storage.Config{Path: path, Profile: storage.ProfileStandard, Name: "fundamentals"})
	require.NoError(t, err)
	return storage.NewFundamentalsRepository(db), func() {
		_ = db.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
	}
}

type fakeCompanySource struct {
	rows []upstream.CompanyInfoRecord
	err  error
}

func (f *fakeCompanySource) FetchPrice(context.Context, string, time.Time, time.Time) ([]upstream.PriceRecord, error) {
	return nil, nil
}
func (f *fakeCompanySource) FetchValuation(context.Context, string, time.Time, time.Time) ([]upstream.ValuationRecord, error) {
	return nil, nil
}
func (f *fakeCompanySource) FetchMonthlyRevenue(context.Context, string, int) ([]upstream.RevenueRecord, error) {
	return nil, nil
}
func (f *fakeCompanySource) FetchFinancialStatements(context.Context, string, time.Time, time.Time) ([]upstream.IncomeStatementRecord, error) {
	return nil, nil
}
func (f *fakeCompanySource) FetchBalanceSheet(context.Context, string, time.Time, time.Time) ([]upstream.BalanceSheetRecord, error) {
	return nil, nil
}
func (f *fakeCompanySource) FetchInstitutionalFlow(context.Context, string, time.Time, time.Time) ([]upstream.InstitutionalFlowRecord, error) {
	return nil, nil
}
func (f *fakeCompanySource) FetchCompanyInfo(context.Context) ([]upstream.CompanyInfoRecord, error) {
	return f.rows, f.err
}

func TestService_ShouldUpdate_TrueWhenNeverRefreshed(t *testing.T) {
	repo, cleanup := testRepo(t)
	defer cleanup()

	svc := New(&fakeCompanySource{}, nil, repo, zerolog.Nop())
	should, err := svc.ShouldUpdate()
	require.NoError(t, err)
	assert.True(t, should)
}

func TestService_Refresh_UpsertsAndStampsCatalog(t *testing.T) {
	repo, cleanup := testRepo(t)
	defer cleanup()

	primary := &fakeCompanySource{rows: []upstream.CompanyInfoRecord{
		{Ticker: "2330", Name: "TSMC", Industry: "Semiconductors", ListedOn: "1994-09-05", Market: "上市"},
	}}
	svc := New(primary, &fakeCompanySource{}, repo, zerolog.Nop())

	count, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	should, err := svc.ShouldUpdate()
	require.NoError(t, err)
	assert.False(t, should, "a catalog refreshed moments ago should not be stale")

	tickers, err := svc.List()
	require.NoError(t, err)
	require.Len(t, tickers, 1)
	assert.Equal(t, "2330", tickers[0].Ticker)
	assert.Equal(t, "上市", tickers[0].Market)
}

func TestService_Refresh_MergesFallbackMarketClassification(t *testing.T) {
	repo, cleanup := testRepo(t)
	defer cleanup()

	primary := &fakeCompanySource{rows: []upstream.CompanyInfoRecord{
		{Ticker: "2330", Name: "TSMC", Market: "上市"},
	}}
	fallback := &fakeCompanySource{rows: []upstream.CompanyInfoRecord{
		{Ticker: "6488", Name: "GlobalWafers", Market: "上櫃"},
	}}
	svc := New(primary, fallback, repo, zerolog.Nop())

	count, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	tickers, err := svc.List()
	require.NoError(t, err)
	byTicker := make(map[string]string, len(tickers))
	for _, t := range tickers {
		byTicker[t.Ticker] = t.Market
	}
	assert.Equal(t, "上市", byTicker["2330"])
	assert.Equal(t, "上櫃", byTicker["6488"])
}

func TestService_Refresh_FallbackErrorDoesNotFailRefresh(t *testing.T) {
	repo, cleanup := testRepo(t)
	defer cleanup()

	primary := &fakeCompanySource{rows: []upstream.CompanyInfoRecord{{Ticker: "2330", Name: "TSMC"}}}
	fallback := &fakeCompanySource{err: assertErr{}}
	svc := New(primary, fallback, repo, zerolog.Nop())

	count, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type assertErr struct{}

func (assertErr) Error() string { return "fallback unavailable" }
