// Package scoring implements the cross-sectional factor ranking engine:
// five factor scores (valuation, growth, quality, chips, momentum), each in
// [0,100], combined into a weighted total per ticker on a given date.
package scoring

import (
	"fmt"
	"time"

	"github.com/chenhom/gugo-screener/internal/domain"
)

// Weights is the per-factor weight vector used to combine component scores
// into a total. Weights need not sum to 1 on input; asMap normalizes once
// over all five factors regardless of which factors end up present for any
// given ticker. A missing factor contributes 0 to the weighted total rather
// than having its weight redistributed across the factors that are present.
type Weights struct {
	Valuation float64
	Growth    float64
	Quality   float64
	Chips     float64
	Momentum  float64
}

// DefaultWeights is the system's default weight vector, derived from the
// relative emphasis a value-and-quality screen places on valuation versus
// the other four factors.
func DefaultWeights() Weights {
	return Weights{
		Valuation: 0.4,
		Growth:    0.15,
		Quality:   0.15,
		Chips:     0.15,
		Momentum:  0.15,
	}
}

func (w Weights) asMap() map[string]float64 {
	sum := w.Valuation + w.Growth + w.Quality + w.Chips + w.Momentum
	if sum == 0 {
		sum = 1
	}
	return map[string]float64{
		"valuation": w.Valuation / sum,
		"growth":    w.Growth / sum,
		"quality":   w.Quality / sum,
		"chips":     w.Chips / sum,
		"momentum":  w.Momentum / sum,
	}
}

// MomentumSource computes a momentum snapshot for a single ticker as of a
// date. It abstracts over internal/factors/momentum.Fetcher so the engine
// never depends on the price database directly.
type MomentumSource interface {
	Compute(ticker string, asOf time.Time) (domain.MomentumSnapshot, error)
}

// DataSource abstracts the cross-sectional reads the engine needs. The
// concrete implementation is backed by storage.FundamentalsRepository and
// storage.QualityRepository.
type DataSource interface {
	ValuationCrossSection(asOf time.Time) ([]domain.Valuation, error)
	LatestGrowth(asOf time.Time) ([]domain.Growth, error)
	QualityCrossSection(asOf time.Time) ([]domain.Quality, error)
	FundFlowCrossSection(asOf time.Time) ([]domain.FundFlow, error)

	// The four History accessors back the rolling scoring method: each
	// returns a ticker's last window cross-sectional rows on or before
	// asOf, oldest first.
	ValuationHistory(ticker string, asOf time.Time, window int) ([]domain.Valuation, error)
	GrowthHistory(ticker string, asOf time.Time, window int) ([]domain.Growth, error)
	QualityHistory(ticker string, asOf time.Time, window int) ([]domain.Quality, error)
	FundFlowHistory(ticker string, asOf time.Time, window int) ([]domain.FundFlow, error)
}

// Engine scores a universe of tickers on a single date.
type Engine struct {
	data     DataSource
	momentum MomentumSource
	weights  Weights
	method   Method
	window   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the default weight vector.
func WithWeights(w Weights) Option { return func(e *Engine) { e.weights = w } }

// WithMethod selects how raw metric values are converted to component
// scores. Defaults to MethodZScore.
func WithMethod(m Method) Option { return func(e *Engine) { e.method = m } }

// WithRollingWindow sets the trailing-observation count used by
// MethodRolling. Defaults to 3.
func WithRollingWindow(n int) Option { return func(e *Engine) { e.window = n } }

// New builds a scoring Engine over data and momentum, both required.
func New(data DataSource, momentum MomentumSource, opts ...Option) *Engine {
	e := &Engine{
		data:     data,
		momentum: momentum,
		weights:  DefaultWeights(),
		method:   MethodZScore,
		window:   3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// valuationMetrics builds the valuation factor's metric set. The "per"
// metric carries a history accessor so MethodRolling has a real trailing
// series to average instead of degenerating to the latest value.
func (e *Engine) valuationMetrics(asOf time.Time) []metric[domain.Valuation] {
	return []metric[domain.Valuation]{
		{name: "per", direction: lowerBetter, get: func(v domain.Valuation) (float64, bool) {
			if v.PER == nil {
				return 0, false
			}
			return *v.PER, true
		}, history: func(ticker string, window int) ([]float64, bool) {
			rows, err := e.data.ValuationHistory(ticker, asOf, window)
			if err != nil {
				return nil, false
			}
			return floatsFromValuation(rows, func(v domain.Valuation) (float64, bool) {
				if v.PER == nil {
					return 0, false
				}
				return *v.PER, true
			}), true
		}},
		{name: "pbr", direction: lowerBetter, get: func(v domain.Valuation) (float64, bool) {
			if v.PBR == nil {
				return 0, false
			}
			return *v.PBR, true
		}},
		{name: "dividend_yield", direction: higherBetter, get: func(v domain.Valuation) (float64, bool) {
			if v.DividendYield == nil {
				return 0, false
			}
			return *v.DividendYield, true
		}},
	}
}

// growthMetrics builds the growth factor's metric set. "yoy" wires
// GrowthHistory for MethodRolling.
func (e *Engine) growthMetrics(asOf time.Time) []metric[domain.Growth] {
	return []metric[domain.Growth]{
		{name: "yoy", direction: higherBetter, get: func(g domain.Growth) (float64, bool) {
			if g.YoY == nil {
				return 0, false
			}
			return *g.YoY, true
		}, history: func(ticker string, window int) ([]float64, bool) {
			rows, err := e.data.GrowthHistory(ticker, asOf, window)
			if err != nil {
				return nil, false
			}
			return floatsFromGrowth(rows, func(g domain.Growth) (float64, bool) {
				if g.YoY == nil {
					return 0, false
				}
				return *g.YoY, true
			}), true
		}},
		{name: "mom", direction: higherBetter, get: func(g domain.Growth) (float64, bool) {
			if g.MoM == nil {
				return 0, false
			}
			return *g.MoM, true
		}},
	}
}

// qualityMetrics builds the quality factor's metric set. "roe" wires
// QualityHistory for MethodRolling.
func (e *Engine) qualityMetrics(asOf time.Time) []metric[domain.Quality] {
	return []metric[domain.Quality]{
		{name: "roe", direction: higherBetter, get: func(q domain.Quality) (float64, bool) {
			if q.ROE == nil {
				return 0, false
			}
			return *q.ROE, true
		}, history: func(ticker string, window int) ([]float64, bool) {
			rows, err := e.data.QualityHistory(ticker, asOf, window)
			if err != nil {
				return nil, false
			}
			return floatsFromQuality(rows, func(q domain.Quality) (float64, bool) {
				if q.ROE == nil {
					return 0, false
				}
				return *q.ROE, true
			}), true
		}},
		{name: "roa", direction: higherBetter, get: func(q domain.Quality) (float64, bool) {
			if q.ROA == nil {
				return 0, false
			}
			return *q.ROA, true
		}},
		{name: "gross_margin", direction: higherBetter, get: func(q domain.Quality) (float64, bool) {
			if q.GrossMargin == nil {
				return 0, false
			}
			return *q.GrossMargin, true
		}},
		{name: "op_margin", direction: higherBetter, get: func(q domain.Quality) (float64, bool) {
			if q.OpMargin == nil {
				return 0, false
			}
			return *q.OpMargin, true
		}},
		{name: "net_margin", direction: higherBetter, get: func(q domain.Quality) (float64, bool) {
			if q.NetMargin == nil {
				return 0, false
			}
			return *q.NetMargin, true
		}},
		{name: "debt_ratio", direction: lowerBetter, get: func(q domain.Quality) (float64, bool) {
			if q.DebtRatio == nil {
				return 0, false
			}
			return *q.DebtRatio, true
		}},
		{name: "current_ratio", direction: higherBetter, get: func(q domain.Quality) (float64, bool) {
			if q.CurrentRatio == nil {
				return 0, false
			}
			return *q.CurrentRatio, true
		}},
	}
}

// chipsMetrics builds the chips (fund-flow) factor's metric set.
// "foreign_net" wires FundFlowHistory for MethodRolling.
func (e *Engine) chipsMetrics(asOf time.Time) []metric[domain.FundFlow] {
	return []metric[domain.FundFlow]{
		{name: "foreign_net", direction: higherBetter, get: func(f domain.FundFlow) (float64, bool) {
			return float64(f.ForeignNet), true
		}, history: func(ticker string, window int) ([]float64, bool) {
			rows, err := e.data.FundFlowHistory(ticker, asOf, window)
			if err != nil {
				return nil, false
			}
			out := make([]float64, len(rows))
			for i, f := range rows {
				out[i] = float64(f.ForeignNet)
			}
			return out, true
		}},
		{name: "inv_trust_net", direction: higherBetter, get: func(f domain.FundFlow) (float64, bool) {
			return float64(f.InvTrustNet), true
		}},
	}
}

// floatsFromValuation extracts get's value from each row that has one.
func floatsFromValuation(rows []domain.Valuation, get func(domain.Valuation) (float64, bool)) []float64 {
	var out []float64
	for _, r := range rows {
		if v, ok := get(r); ok {
			out = append(out, v)
		}
	}
	return out
}

// floatsFromGrowth extracts get's value from each row that has one.
func floatsFromGrowth(rows []domain.Growth, get func(domain.Growth) (float64, bool)) []float64 {
	var out []float64
	for _, r := range rows {
		if v, ok := get(r); ok {
			out = append(out, v)
		}
	}
	return out
}

// floatsFromQuality extracts get's value from each row that has one.
func floatsFromQuality(rows []domain.Quality, get func(domain.Quality) (float64, bool)) []float64 {
	var out []float64
	for _, r := range rows {
		if v, ok := get(r); ok {
			out = append(out, v)
		}
	}
	return out
}

// momentumMetrics is static: a momentum rolling history would require
// recomputing indicators at each past cross-section date, which the
// momentum snapshot does not expose; MethodRolling falls back to the
// latest value for this factor, same as any metric whose history is empty
// or fails to load.
var momentumMetrics = []metric[domain.MomentumSnapshot]{
	{name: "rsi14", direction: higherBetter, get: func(m domain.MomentumSnapshot) (float64, bool) {
		if m.RSI14 == nil {
			return 0, false
		}
		return *m.RSI14, true
	}},
	{name: "price_change_1m", direction: higherBetter, get: func(m domain.MomentumSnapshot) (float64, bool) {
		if m.PriceChange1M == nil {
			return 0, false
		}
		return *m.PriceChange1M, true
	}},
	{name: "price_change_52w", direction: higherBetter, get: func(m domain.MomentumSnapshot) (float64, bool) {
		if m.PriceChange52W == nil {
			return 0, false
		}
		return *m.PriceChange52W, true
	}},
}

// factorResult is the per-factor outcome for one ticker: the combined
// component score and whether any underlying metric was available.
type factorResult struct {
	score   float64
	present bool
}

// scoreFactor scores ticker's row (if any) against the cross-section in
// rows using metrics, under method. It returns present=false when ticker
// has no row or every metric on its row is nil.
func scoreFactor[T any](rows map[string]T, ticker string, metrics []metric[T], method Method, window int) factorResult {
	row, ok := rows[ticker]
	if !ok {
		return factorResult{}
	}

	var total float64
	var count int
	for _, m := range metrics {
		value, ok := m.get(row)
		if !ok {
			continue
		}

		var population []float64
		for _, r := range rows {
			if v, ok := m.get(r); ok {
				population = append(population, v)
			}
		}

		scoreValue := value
		if method == MethodRolling && m.history != nil {
			if hist, ok := m.history(ticker, window); ok && len(hist) > 0 {
				sum := 0.0
				for _, h := range hist {
					sum += h
				}
				scoreValue = sum / float64(len(hist))
			}
		}

		var component float64
		switch method {
		case MethodPercentile:
			component = percentileComponent(scoreValue, population, m.direction)
		default:
			component = zscoreComponent(scoreValue, population, m.direction)
		}
		total += component
		count++
	}

	if count == 0 {
		return factorResult{}
	}
	return factorResult{score: total / float64(count), present: true}
}

func indexValuation(rows []domain.Valuation) map[string]domain.Valuation {
	out := make(map[string]domain.Valuation, len(rows))
	for _, r := range rows {
		out[r.Ticker] = r
	}
	return out
}

func indexGrowth(rows []domain.Growth) map[string]domain.Growth {
	out := make(map[string]domain.Growth, len(rows))
	for _, r := range rows {
		out[r.Ticker] = r
	}
	return out
}

func indexQuality(rows []domain.Quality) map[string]domain.Quality {
	out := make(map[string]domain.Quality, len(rows))
	for _, r := range rows {
		out[r.Ticker] = r
	}
	return out
}

func indexFundFlow(rows []domain.FundFlow) map[string]domain.FundFlow {
	out := make(map[string]domain.FundFlow, len(rows))
	for _, r := range rows {
		out[r.Ticker] = r
	}
	return out
}

func indexMomentum(rows []domain.MomentumSnapshot) map[string]domain.MomentumSnapshot {
	out := make(map[string]domain.MomentumSnapshot, len(rows))
	for _, r := range rows {
		out[r.Ticker] = r
	}
	return out
}

// ScoreAll ranks every ticker in tickers as of asOf, returning one
// domain.ScoredRank per ticker in the same order as tickers.
func (e *Engine) ScoreAll(tickers []string, asOf time.Time) ([]domain.ScoredRank, error) {
	valuations, err := e.data.ValuationCrossSection(asOf)
	if err != nil {
		return nil, fmt.Errorf("load valuation cross-section: %w", err)
	}
	growths, err := e.data.LatestGrowth(asOf)
	if err != nil {
		return nil, fmt.Errorf("load growth cross-section: %w", err)
	}
	qualities, err := e.data.QualityCrossSection(asOf)
	if err != nil {
		return nil, fmt.Errorf("load quality cross-section: %w", err)
	}
	flows, err := e.data.FundFlowCrossSection(asOf)
	if err != nil {
		return nil, fmt.Errorf("load fund-flow cross-section: %w", err)
	}

	valuationByTicker := indexValuation(valuations)
	growthByTicker := indexGrowth(growths)
	qualityByTicker := indexQuality(qualities)
	flowByTicker := indexFundFlow(flows)

	momentumByTicker := make(map[string]domain.MomentumSnapshot, len(tickers))
	for _, ticker := range tickers {
		snap, err := e.momentum.Compute(ticker, asOf)
		if err != nil {
			continue
		}
		momentumByTicker[ticker] = snap
	}

	weights := e.weights.asMap()

	valuationMetricSet := e.valuationMetrics(asOf)
	growthMetricSet := e.growthMetrics(asOf)
	qualityMetricSet := e.qualityMetrics(asOf)
	chipsMetricSet := e.chipsMetrics(asOf)

	out := make([]domain.ScoredRank, 0, len(tickers))
	for _, ticker := range tickers {
		rank := domain.ScoredRank{Ticker: ticker, Date: asOf}

		valuation := scoreFactor(valuationByTicker, ticker, valuationMetricSet, e.method, e.window)
		growth := scoreFactor(growthByTicker, ticker, growthMetricSet, e.method, e.window)
		quality := scoreFactor(qualityByTicker, ticker, qualityMetricSet, e.method, e.window)
		chips := scoreFactor(flowByTicker, ticker, chipsMetricSet, e.method, e.window)
		momentum := scoreFactor(momentumByTicker, ticker, momentumMetrics, e.method, e.window)

		rank.Valuation, rank.Growth, rank.Quality, rank.Chips, rank.Momentum =
			valuation.score, growth.score, quality.score, chips.score, momentum.score

		present := map[string]bool{
			"valuation": valuation.present,
			"growth":    growth.present,
			"quality":   quality.present,
			"chips":     chips.present,
			"momentum":  momentum.present,
		}

		orderedFactors := []struct {
			key   string
			score float64
		}{
			{"valuation", valuation.score},
			{"growth", growth.score},
			{"quality", quality.score},
			{"chips", chips.score},
			{"momentum", momentum.score},
		}

		var weightedSum float64
		for _, f := range orderedFactors {
			if !present[f.key] {
				rank.Missing = append(rank.Missing, f.key)
				continue
			}
			weightedSum += weights[f.key] * f.score
		}

		rank.Total = weightedSum
		out = append(out, rank)
	}
	return out, nil
}

// Score ranks a single ticker; it is a convenience wrapper over ScoreAll.
func (e *Engine) Score(ticker string, asOf time.Time) (domain.ScoredRank, error) {
	ranks, err := e.ScoreAll([]string{ticker}, asOf)
	if err != nil {
		return domain.ScoredRank{}, err
	}
	if len(ranks) == 0 {
		return domain.ScoredRank{}, fmt.Errorf("no score computed for ticker %s", ticker)
	}
	return ranks[0], nil
}
