package storage

import (
	"testing"
	"time"

	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestPriceRepository_UpsertAndSeries(t *testing.T) {
	db, cleanup := newTestDB(t, "price", ProfileFast)
	defer cleanup()
	repo := NewPriceRepository(db)

	bars := []domain.PriceBar{
		{Ticker: "2330", Date: mustDate(t, "2024-01-02"), Open: 500, High: 510, Low: 495, Close: 505, Volume: 1000},
		{Ticker: "2330", Date: mustDate(t, "2024-01-03"), Open: 505, High: 515, Low: 500, Close: 512, Volume: 1200},
	}
	require.NoError(t, repo.UpsertBars(bars))

	series, err := repo.Series("2330", mustDate(t, "2024-01-01"), mustDate(t, "2024-01-31"))
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 505.0, series[0].Close)
	assert.Equal(t, 512.0, series[1].Close)

	// Re-upsert the same (ticker, date) replaces rather than duplicates.
	bars[0].Close = 506
	require.NoError(t, repo.UpsertBars(bars))
	series, err = repo.Series("2330", mustDate(t, "2024-01-01"), mustDate(t, "2024-01-31"))
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 506.0, series[0].Close)
}

func TestPriceRepository_UpsertBars_RejectsInvalidOHLC(t *testing.T) {
	db, cleanup := newTestDB(t, "price", ProfileFast)
	defer cleanup()
	repo := NewPriceRepository(db)

	bad := []domain.PriceBar{
		{Ticker: "2330", Date: mustDate(t, "2024-01-02"), Open: 500, High: 400, Low: 495, Close: 505},
	}
	err := repo.UpsertBars(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidPriceData)
}

func TestPriceRepository_CrossSection(t *testing.T) {
	db, cleanup := newTestDB(t, "price", ProfileFast)
	defer cleanup()
	repo := NewPriceRepository(db)

	require.NoError(t, repo.UpsertBars([]domain.PriceBar{
		{Ticker: "2330", Date: mustDate(t, "2024-01-02"), Open: 1, High: 2, Low: 1, Close: 1.5},
		{Ticker: "2330", Date: mustDate(t, "2024-01-05"), Open: 1, High: 2, Low: 1, Close: 1.8},
		{Ticker: "1101", Date: mustDate(t, "2024-01-03"), Open: 1, High: 30, Low: 1, Close: 30},
	}))

	cs, err := repo.CrossSection(mustDate(t, "2024-01-04"))
	require.NoError(t, err)
	require.Len(t, cs, 2)

	byTicker := map[string]domain.PriceBar{}
	for _, b := range cs {
		byTicker[b.Ticker] = b
	}
	assert.Equal(t, 1.5, byTicker["2330"].Close, "cross-section must forward-fill to the latest bar at or before asOf")
	assert.Equal(t, 30.0, byTicker["1101"].Close)
}

func TestPriceRepository_TradingCalendar(t *testing.T) {
	db, cleanup := newTestDB(t, "price", ProfileFast)
	defer cleanup()
	repo := NewPriceRepository(db)

	require.NoError(t, repo.UpsertBars([]domain.PriceBar{
		{Ticker: "2330", Date: mustDate(t, "2024-01-02"), Open: 1, High: 2, Low: 1, Close: 1.5},
		{Ticker: "1101", Date: mustDate(t, "2024-01-02"), Open: 1, High: 30, Low: 1, Close: 30},
		{Ticker: "2330", Date: mustDate(t, "2024-01-03"), Open: 1, High: 2, Low: 1, Close: 1.6},
	}))

	cal, err := repo.TradingCalendar(mustDate(t, "2024-01-01"), mustDate(t, "2024-01-31"))
	require.NoError(t, err)
	require.Len(t, cal, 2, "distinct dates across tickers, not one row per ticker")
}
