package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenhom/gugo-screener/internal/domain"
)

func TestFallback_FetchPrice_ParsesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 200, "msg": "ok",
			"data": [
				{"date": "2024-01-02", "Trading_Volume": 1000, "Trading_money": 500000, "open": 500, "max": 510, "min": 495, "close": 505}
			]
		}`))
	}))
	defer srv.Close()

	client := NewFallback(srv.URL, "", 5*time.Second, zerolog.Nop())
	records, err := client.FetchPrice(context.Background(), "2330", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 505.0, records[0].Close)
	assert.Equal(t, int64(1000), records[0].Volume)
}

func TestFallback_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	client := NewFallback(srv.URL, "", 5*time.Second, zerolog.Nop())
	_, err := client.FetchPrice(context.Background(), "2330", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.True(t, domain.IsQuotaExceeded(err))
}

func TestFallback_FetchFinancialStatements_MatchesSynonyms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 200, "msg": "ok",
			"data": [
				{"date": "2024-03-31", "type": "Revenue", "value": 1000},
				{"date": "2024-03-31", "type": "GrossProfit", "value": 400},
				{"date": "2024-03-31", "type": "SomeUnknownLabel", "value": 999}
			]
		}`))
	}))
	defer srv.Close()

	client := NewFallback(srv.URL, "", 5*time.Second, zerolog.Nop())
	records, err := client.FetchFinancialStatements(context.Background(), "2330", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Revenue)
	assert.Equal(t, 1000.0, *records[0].Revenue)
	require.NotNil(t, records[0].GrossProfit)
	assert.Equal(t, 400.0, *records[0].GrossProfit)
	assert.Nil(t, records[0].NetIncome)
}

func TestFallback_FetchInstitutionalFlow_GroupsByLegalEntity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 200, "msg": "ok",
			"data": [
				{"date": "2024-01-02", "name": "Foreign_Investor", "buy": 1000, "sell": 400},
				{"date": "2024-01-02", "name": "Investment_Trust", "buy": 200, "sell": 100},
				{"date": "2024-01-02", "name": "Dealer_self", "buy": 50, "sell": 80}
			]
		}`))
	}))
	defer srv.Close()

	client := NewFallback(srv.URL, "", 5*time.Second, zerolog.Nop())
	records, err := client.FetchInstitutionalFlow(context.Background(), "2330", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(600), records[0].ForeignNet)
	assert.Equal(t, int64(100), records[0].InvTrustNet)
	assert.Equal(t, int64(-30), records[0].DealerNet)
}

func TestFallback_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewFallback(srv.URL, "", 5*time.Second, zerolog.Nop())
	_, err := client.FetchPrice(context.Background(), "2330", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
