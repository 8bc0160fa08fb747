package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFundamentalsRepository_UpsertUniverse_IsIdempotent(t *testing.T) {
	db, cleanup := newTestDB(t, "fundamentals", ProfileStandard)
	defer cleanup()
	repo := NewFundamentalsRepository(db)

	rows := []Ticker{
		{Ticker: "2330", Name: "TSMC", Industry: "Semiconductors", ListedOn: "1994-09-05", Market: "上市", Active: true},
		{Ticker: "6488", Name: "GlobalWafers", Industry: "Semiconductors", Market: "上櫃", Active: true},
	}
	require.NoError(t, repo.UpsertUniverse(rows))
	require.NoError(t, repo.UpsertUniverse(rows))

	tickers, err := repo.ListUniverse()
	require.NoError(t, err)
	require.Len(t, tickers, 2, "re-upserting the same rows must replace, not duplicate")

	byTicker := make(map[string]Ticker, len(tickers))
	for _, t := range tickers {
		byTicker[t.Ticker] = t
	}
	assert.Equal(t, "上市", byTicker["2330"].Market)
	assert.Equal(t, "上櫃", byTicker["6488"].Market)
	assert.Equal(t, "TSMC", byTicker["2330"].Name)
}

func TestFundamentalsRepository_UpsertUniverse_UpdatesExistingRow(t *testing.T) {
	db, cleanup := newTestDB(t, "fundamentals", ProfileStandard)
	defer cleanup()
	repo := NewFundamentalsRepository(db)

	require.NoError(t, repo.UpsertUniverse([]Ticker{
		{Ticker: "2330", Name: "TSMC", Market: "上櫃", Active: true},
	}))
	require.NoError(t, repo.UpsertUniverse([]Ticker{
		{Ticker: "2330", Name: "TSMC", Market: "上市", Active: true},
	}))

	tickers, err := repo.ListUniverse()
	require.NoError(t, err)
	require.Len(t, tickers, 1)
	assert.Equal(t, "上市", tickers[0].Market, "conflicting upsert must overwrite the market classification")
}

func TestFundamentalsRepository_ListUniverse_ExcludesInactive(t *testing.T) {
	db, cleanup := newTestDB(t, "fundamentals", ProfileStandard)
	defer cleanup()
	repo := NewFundamentalsRepository(db)

	require.NoError(t, repo.UpsertUniverse([]Ticker{
		{Ticker: "2330", Name: "TSMC", Active: true},
		{Ticker: "9999", Name: "Delisted", Active: false},
	}))

	tickers, err := repo.ListUniverse()
	require.NoError(t, err)
	require.Len(t, tickers, 1)
	assert.Equal(t, "2330", tickers[0].Ticker)
}

func TestFundamentalsRepository_UniverseLastUpdated_NilUntilStamped(t *testing.T) {
	db, cleanup := newTestDB(t, "fundamentals", ProfileStandard)
	defer cleanup()
	repo := NewFundamentalsRepository(db)

	stamp, err := repo.UniverseLastUpdated()
	require.NoError(t, err)
	assert.Nil(t, stamp)

	now := mustDate(t, "2024-01-02")
	require.NoError(t, repo.SetUniverseLastUpdated(now))

	stamp, err = repo.UniverseLastUpdated()
	require.NoError(t, err)
	require.NotNil(t, stamp)
	assert.True(t, stamp.Equal(now))
}
