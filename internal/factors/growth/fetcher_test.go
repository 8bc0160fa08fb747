package growth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenhom/gugo-screener/internal/upstream"
)

func month(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

func TestDeriveGrowthSeries_NeedsPriorMonthForMoM(t *testing.T) {
	records := []upstream.RevenueRecord{
		{Month: month(2024, 1), Revenue: 1000},
		{Month: month(2024, 2), Revenue: 1100},
	}
	rows := DeriveGrowthSeries("2330", records)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].MoM, "first month has no prior month to compare against")
	require.NotNil(t, rows[1].MoM)
	assert.InDelta(t, 10.0, *rows[1].MoM, 1e-9)
}

func TestDeriveGrowthSeries_NeedsTwelveMonthsForYoY(t *testing.T) {
	var records []upstream.RevenueRecord
	base := month(2023, time.January)
	for i := 0; i < 13; i++ {
		records = append(records, upstream.RevenueRecord{Month: base.AddDate(0, i, 0), Revenue: int64(1000 + i*10)})
	}
	rows := DeriveGrowthSeries("2330", records)
	require.Len(t, rows, 13)
	for i := 0; i < 12; i++ {
		assert.Nil(t, rows[i].YoY)
	}
	require.NotNil(t, rows[12].YoY)
}

func TestDeriveGrowthSeries_SortsUnorderedInput(t *testing.T) {
	records := []upstream.RevenueRecord{
		{Month: month(2024, 3), Revenue: 300},
		{Month: month(2024, 1), Revenue: 100},
		{Month: month(2024, 2), Revenue: 200},
	}
	rows := DeriveGrowthSeries("2330", records)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Month.Before(rows[1].Month))
	assert.True(t, rows[1].Month.Before(rows[2].Month))
}
