package momentum

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/chenhom/gugo-screener/internal/storage"
)

func newPriceRepo(t *testing.T) (*storage.PriceRepository, func()) {
	t.Helper()
	db, cleanup := storageTestDB(t)
	return storage.NewPriceRepository(db), cleanup
}

func TestFetcher_Compute_ShortHistoryLeavesFieldsNil(t *testing.T) {
	repo, cleanup := newPriceRepo(t)
	defer cleanup()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []domain.PriceBar
	for i := 0; i < 10; i++ {
		d := start.AddDate(0, 0, i)
		bars = append(bars, domain.PriceBar{Ticker: "2330", Date: d, Open: 100, High: 101 + float64(i), Low: 99, Close: 100 + float64(i), Volume: 10})
	}
	require.NoError(t, repo.UpsertBars(bars))

	f := New(repo, zerolog.Nop())
	snap, err := f.Compute("2330", bars[len(bars)-1].Date)
	require.NoError(t, err)
	assert.Nil(t, snap.MA20, "20-day average needs 20 bars, only 10 supplied")
	assert.Nil(t, snap.RSI14, "RSI needs 14 bars plus one seed, only 10 supplied")
}

func TestFetcher_Compute_LongHistoryProducesValues(t *testing.T) {
	repo, cleanup := newPriceRepo(t)
	defer cleanup()

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []domain.PriceBar
	for i := 0; i < 300; i++ {
		d := start.AddDate(0, 0, i)
		price := 100 + float64(i)*0.1
		bars = append(bars, domain.PriceBar{Ticker: "2330", Date: d, Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 10})
	}
	require.NoError(t, repo.UpsertBars(bars))

	f := New(repo, zerolog.Nop())
	snap, err := f.Compute("2330", bars[len(bars)-1].Date)
	require.NoError(t, err)
	require.NotNil(t, snap.MA20)
	require.NotNil(t, snap.MA60)
	require.NotNil(t, snap.RSI14)
	require.NotNil(t, snap.PriceChange1M)
	assert.Greater(t, snap.MA20AboveMA60Days, 0, "a steadily rising series should have MA20 above MA60 for a long stretch")
}
