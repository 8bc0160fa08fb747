package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenhom/gugo-screener/internal/upstream"
)

func ptr(f float64) *float64 { return &f }

func TestMergeByDate_DerivesRatiosFromRawLineItems(t *testing.T) {
	date := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	income := []upstream.IncomeStatementRecord{
		{Date: date, Revenue: ptr(1000), GrossProfit: ptr(400), OpIncome: ptr(200), NetIncome: ptr(100), EPS: ptr(2.5)},
	}
	balance := []upstream.BalanceSheetRecord{
		{Date: date, TotalAssets: ptr(2000), TotalEquity: ptr(800), TotalLiab: ptr(1200), CurrentAssets: ptr(600), CurrentLiab: ptr(300)},
	}

	rows := mergeByDate("2330", income, balance)
	require.Len(t, rows, 1)
	q := rows[0]

	require.NotNil(t, q.GrossMargin)
	assert.InDelta(t, 40.0, *q.GrossMargin, 1e-9) // 100*400/1000
	require.NotNil(t, q.OpMargin)
	assert.InDelta(t, 20.0, *q.OpMargin, 1e-9) // 100*200/1000
	require.NotNil(t, q.NetMargin)
	assert.InDelta(t, 10.0, *q.NetMargin, 1e-9) // 100*100/1000
	require.NotNil(t, q.ROA)
	assert.InDelta(t, 5.0, *q.ROA, 1e-9) // 100*100/2000
	require.NotNil(t, q.ROE)
	assert.InDelta(t, 12.5, *q.ROE, 1e-9) // 100*100/800
	require.NotNil(t, q.DebtRatio)
	assert.InDelta(t, 60.0, *q.DebtRatio, 1e-9) // 100*1200/2000
	require.NotNil(t, q.CurrentRatio)
	assert.InDelta(t, 200.0, *q.CurrentRatio, 1e-9) // 100*600/300
	require.NotNil(t, q.EPS)
	assert.InDelta(t, 2.5, *q.EPS, 1e-9)
}

func TestMergeByDate_EmitsOnlyWhenAtLeastOneRatioComputable(t *testing.T) {
	date := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	// Revenue present but no numerators at all: nothing is computable.
	income := []upstream.IncomeStatementRecord{{Date: date, Revenue: ptr(1000)}}

	rows := mergeByDate("2330", income, nil)
	assert.Empty(t, rows)
}

func TestMergeByDate_MissingDenominatorLeavesRatioNil(t *testing.T) {
	date := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	income := []upstream.IncomeStatementRecord{{Date: date, GrossProfit: ptr(400), EPS: ptr(1)}}

	rows := mergeByDate("2330", income, nil)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].GrossMargin) // revenue missing, can't divide
	require.NotNil(t, rows[0].EPS)
	assert.InDelta(t, 1.0, *rows[0].EPS, 1e-9)
}
