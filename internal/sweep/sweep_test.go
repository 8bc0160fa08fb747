package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenhom/gugo-screener/internal/backtest"
	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/chenhom/gugo-screener/internal/portfolio"
)

func day(offset int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func flatBars(ticker string, n int) []domain.PriceBar {
	out := make([]domain.PriceBar, n)
	for i := 0; i < n; i++ {
		out[i] = domain.PriceBar{Ticker: ticker, Date: day(i), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}
	}
	return out
}

func TestGrid_RunsEveryCartesianPair(t *testing.T) {
	input := backtest.Input{
		Candidates: map[string][]portfolio.Candidate{
			day(0).Format(domain.DateLayout): {{Ticker: "A", Score: 1}},
		},
		Prices:    map[string][]domain.PriceBar{"A": flatBars("A", 5)},
		Start:     day(0),
		End:       day(4),
		Mode:      portfolio.ModeEqual,
		CostModel: portfolio.ZeroCostModel(),
	}
	points, err := Grid(input, []int{1, 2}, []int{1, 2})
	require.NoError(t, err)
	assert.Len(t, points, 4)
}

func TestWindowCount_MatchesClosedForm(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	got := WindowCount(start, end, 1, 6)
	assert.Equal(t, 5, got)
}

func TestWalkForward_EmitsOneRowPerWindow(t *testing.T) {
	start := day(0)
	end := day(29)
	input := backtest.Input{
		Candidates: map[string][]portfolio.Candidate{
			day(0).Format(domain.DateLayout): {{Ticker: "A", Score: 1}},
		},
		Prices:    map[string][]domain.PriceBar{"A": flatBars("A", 30)},
		Rebalance: 1,
		Top:       1,
		Mode:      portfolio.ModeEqual,
		CostModel: portfolio.ZeroCostModel(),
	}
	windows, err := WalkForward(input, start, end, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, WindowCount(start, end, 0, 1), len(windows))
}
