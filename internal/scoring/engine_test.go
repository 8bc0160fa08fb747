package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenhom/gugo-screener/internal/domain"
)

func ptr(f float64) *float64 { return &f }

// fakeDataSource serves the two-ticker synthetic universe used throughout
// the seed scenarios: ticker B's every metric is exactly double ticker A's.
type fakeDataSource struct {
	valuations []domain.Valuation
	growths    []domain.Growth
	qualities  []domain.Quality
	flows      []domain.FundFlow

	valuationHistory map[string][]domain.Valuation
	growthHistory    map[string][]domain.Growth
	qualityHistory   map[string][]domain.Quality
	flowHistory      map[string][]domain.FundFlow
}

func (f *fakeDataSource) ValuationCrossSection(time.Time) ([]domain.Valuation, error) {
	return f.valuations, nil
}
func (f *fakeDataSource) LatestGrowth(time.Time) ([]domain.Growth, error) { return f.growths, nil }
func (f *fakeDataSource) QualityCrossSection(time.Time) ([]domain.Quality, error) {
	return f.qualities, nil
}
func (f *fakeDataSource) FundFlowCrossSection(time.Time) ([]domain.FundFlow, error) {
	return f.flows, nil
}

func (f *fakeDataSource) ValuationHistory(ticker string, _ time.Time, _ int) ([]domain.Valuation, error) {
	return f.valuationHistory[ticker], nil
}
func (f *fakeDataSource) GrowthHistory(ticker string, _ time.Time, _ int) ([]domain.Growth, error) {
	return f.growthHistory[ticker], nil
}
func (f *fakeDataSource) QualityHistory(ticker string, _ time.Time, _ int) ([]domain.Quality, error) {
	return f.qualityHistory[ticker], nil
}
func (f *fakeDataSource) FundFlowHistory(ticker string, _ time.Time, _ int) ([]domain.FundFlow, error) {
	return f.flowHistory[ticker], nil
}

type fakeMomentum struct {
	snapshots map[string]domain.MomentumSnapshot
	err       error
}

func (f *fakeMomentum) Compute(ticker string, _ time.Time) (domain.MomentumSnapshot, error) {
	if f.err != nil {
		return domain.MomentumSnapshot{}, f.err
	}
	snap, ok := f.snapshots[ticker]
	if !ok {
		return domain.MomentumSnapshot{}, errors.New("no snapshot")
	}
	return snap, nil
}

func twoTickerUniverse() (*fakeDataSource, *fakeMomentum) {
	data := &fakeDataSource{
		valuations: []domain.Valuation{
			{Ticker: "A", PER: ptr(10), PBR: ptr(1), DividendYield: ptr(5)},
			{Ticker: "B", PER: ptr(20), PBR: ptr(2), DividendYield: ptr(10)},
		},
		growths: []domain.Growth{
			{Ticker: "A", YoY: ptr(10), MoM: ptr(5)},
			{Ticker: "B", YoY: ptr(20), MoM: ptr(10)},
		},
		qualities: []domain.Quality{
			{Ticker: "A", ROE: ptr(15), GrossMargin: ptr(30), OpMargin: ptr(20)},
			{Ticker: "B", ROE: ptr(30), GrossMargin: ptr(60), OpMargin: ptr(40)},
		},
		flows: []domain.FundFlow{
			{Ticker: "A", ForeignNet: 100, InvTrustNet: 50},
			{Ticker: "B", ForeignNet: 200, InvTrustNet: 100},
		},
	}
	momentum := &fakeMomentum{snapshots: map[string]domain.MomentumSnapshot{
		"A": {Ticker: "A", PriceChange1M: ptr(100)},
		"B": {Ticker: "B", PriceChange1M: ptr(200)},
	}}
	return data, momentum
}

func TestScoreAll_TwoTickerUniverse_MatchesSeedScenario(t *testing.T) {
	data, momentum := twoTickerUniverse()
	engine := New(data, momentum)

	ranks, err := engine.ScoreAll([]string{"A", "B"}, time.Now())
	require.NoError(t, err)
	require.Len(t, ranks, 2)

	byTicker := map[string]domain.ScoredRank{ranks[0].Ticker: ranks[0], ranks[1].Ticker: ranks[1]}
	a, b := byTicker["A"], byTicker["B"]

	assert.InDelta(t, 53.33, a.Valuation, 0.5)
	assert.InDelta(t, 40, a.Growth, 0.5)
	assert.InDelta(t, 40, a.Quality, 0.5)
	assert.InDelta(t, 40, a.Chips, 0.5)
	assert.InDelta(t, 40, a.Momentum, 0.5)
	assert.InDelta(t, 45.33, a.Total, 0.5)
	assert.Empty(t, a.Missing)

	assert.InDelta(t, 46.67, b.Valuation, 0.5)
	assert.InDelta(t, 60, b.Growth, 0.5)
	assert.InDelta(t, 60, b.Quality, 0.5)
	assert.InDelta(t, 60, b.Chips, 0.5)
	assert.InDelta(t, 60, b.Momentum, 0.5)
	assert.InDelta(t, 54.67, b.Total, 0.5)
	assert.Empty(t, b.Missing)
}

func TestScoreAll_MissingFactorsAreReported(t *testing.T) {
	data := &fakeDataSource{
		valuations: []domain.Valuation{
			{Ticker: "A", PER: ptr(10), PBR: ptr(1), DividendYield: ptr(5)},
			{Ticker: "B", PER: ptr(20), PBR: ptr(2), DividendYield: ptr(10)},
		},
	}
	momentum := &fakeMomentum{err: errors.New("no price history")}
	engine := New(data, momentum)

	ranks, err := engine.ScoreAll([]string{"A", "B"}, time.Now())
	require.NoError(t, err)
	byTicker := map[string]domain.ScoredRank{ranks[0].Ticker: ranks[0], ranks[1].Ticker: ranks[1]}
	for _, r := range ranks {
		assert.ElementsMatch(t, []string{"growth", "quality", "chips", "momentum"}, r.Missing)
	}

	// Only valuation (weight 0.4) is present; the other four factors must
	// contribute 0 to Total rather than have their weight redistributed
	// onto valuation.
	assert.InDelta(t, 0.4*byTicker["A"].Valuation, byTicker["A"].Total, 1e-9)
	assert.InDelta(t, 0.4*byTicker["B"].Valuation, byTicker["B"].Total, 1e-9)
}

func TestScoreAll_RollingMethodAveragesHistory(t *testing.T) {
	data, momentum := twoTickerUniverse()
	// Ticker A's latest PER is 10; its trailing history averages to 20,
	// which should pull its rolling valuation score down to match B's
	// zscore position rather than A's own latest-value position.
	data.valuationHistory = map[string][]domain.Valuation{
		"A": {{Ticker: "A", PER: ptr(30)}, {Ticker: "A", PER: ptr(10)}},
		"B": {{Ticker: "B", PER: ptr(20)}, {Ticker: "B", PER: ptr(20)}},
	}
	engine := New(data, momentum, WithMethod(MethodRolling), WithRollingWindow(2))

	ranks, err := engine.ScoreAll([]string{"A", "B"}, time.Now())
	require.NoError(t, err)
	byTicker := map[string]domain.ScoredRank{ranks[0].Ticker: ranks[0], ranks[1].Ticker: ranks[1]}

	zscoreRanks, err := New(data, momentum).ScoreAll([]string{"A", "B"}, time.Now())
	require.NoError(t, err)
	zByTicker := map[string]domain.ScoredRank{zscoreRanks[0].Ticker: zscoreRanks[0], zscoreRanks[1].Ticker: zscoreRanks[1]}

	assert.NotEqual(t, zByTicker["A"].Valuation, byTicker["A"].Valuation)
}

func TestScoreAll_SingleFactorWeightDegeneratesToThatFactor(t *testing.T) {
	data, momentum := twoTickerUniverse()
	engine := New(data, momentum, WithWeights(Weights{Valuation: 1}))

	ranks, err := engine.ScoreAll([]string{"A", "B"}, time.Now())
	require.NoError(t, err)
	for _, r := range ranks {
		assert.InDelta(t, r.Valuation, r.Total, 1e-9)
	}
}

func TestScoreAll_EveryFactorScoreInRange(t *testing.T) {
	data, momentum := twoTickerUniverse()
	engine := New(data, momentum)

	ranks, err := engine.ScoreAll([]string{"A", "B"}, time.Now())
	require.NoError(t, err)
	for _, r := range ranks {
		for _, score := range []float64{r.Valuation, r.Growth, r.Quality, r.Chips, r.Momentum, r.Total} {
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
	}
}
