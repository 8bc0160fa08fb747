package domain

import "time"

// DateLayout is the canonical trading-day date format used throughout the
// system: "YYYY-MM-DD" in local market (Asia/Taipei) time. Months use the
// same layout with the day fixed to "01".
const DateLayout = "2006-01-02"

// MonthLayout is the canonical month key format: "YYYY-MM-01".
const MonthLayout = "2006-01-02"

// PriceBar is one OHLCV observation for a ticker on a trading day.
// Invariant: Close > 0 and Low <= {Open, Close} <= High. Rows are never
// mutated after creation; a later fetch over the same (ticker, date)
// replaces the row wholesale via upsert.
type PriceBar struct {
	Ticker   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Turnover int64
}

// Valid reports whether the bar satisfies the OHLC ordering invariant.
func (b PriceBar) Valid() bool {
	if b.Close <= 0 {
		return false
	}
	if b.Low > b.Open || b.Low > b.Close || b.Low > b.High {
		return false
	}
	if b.Open > b.High || b.Close > b.High {
		return false
	}
	return true
}

// Valuation holds per-day valuation multiples. Nullable fields are allowed
// individually, but a row with all three fields null is rejected by the
// fetcher before it ever reaches storage.
type Valuation struct {
	Ticker        string
	Date          time.Time
	PER           *float64
	PBR           *float64
	DividendYield *float64
}

// AllNull reports whether every nullable field is unset.
func (v Valuation) AllNull() bool {
	return v.PER == nil && v.PBR == nil && v.DividendYield == nil
}

// Growth holds a ticker's monthly revenue plus its derived growth metrics.
// YoY and MoM are derived from the revenue sequence (see DeriveGrowthSeries);
// EPS and EPSQoQ are stored and read back with the row, but the growth
// fetcher never sets them, so every row it writes leaves both nil.
type Growth struct {
	Ticker  string
	Month   time.Time
	Revenue int64
	YoY     *float64
	MoM     *float64
	EPS     *float64
	EPSQoQ  *float64
}

// Quality holds per-period profitability and leverage ratios derived from a
// ticker's income statement and balance sheet. A row is emitted by the
// fetcher only when at least one of these fields was computable.
type Quality struct {
	Ticker        string
	Date          time.Time
	ROE           *float64
	ROA           *float64
	GrossMargin   *float64
	OpMargin      *float64
	NetMargin     *float64
	DebtRatio     *float64
	CurrentRatio  *float64
	EPS           *float64
}

// AnyPresent reports whether at least one derived field is non-nil.
func (q Quality) AnyPresent() bool {
	return q.ROE != nil || q.ROA != nil || q.GrossMargin != nil ||
		q.OpMargin != nil || q.NetMargin != nil || q.DebtRatio != nil ||
		q.CurrentRatio != nil || q.EPS != nil
}

// FundFlow holds the three-legged institutional net-buy figures for a
// ticker on a trading day. Positive values mean net buying; the fields are
// signed share counts aggregated by legal-entity name (see the synonym
// tables in internal/upstream).
type FundFlow struct {
	Ticker        string
	Date          time.Time
	ForeignNet    int64
	InvTrustNet   int64
	DealerNet     int64
}

// MomentumSnapshot holds the latest technical-indicator reading for a
// ticker, computed from a warmed-up close-price window. Fields are nil
// where the warm-up window was insufficient to produce a value.
type MomentumSnapshot struct {
	Ticker            string
	Date              time.Time
	RSI14             *float64
	MA5               *float64
	MA20              *float64
	MA60              *float64
	MACD              *float64
	BollingerUpper    *float64
	BollingerMid      *float64
	BollingerLower    *float64
	PriceChange1M     *float64
	PriceChange52W    *float64
	MA20AboveMA60Days int
}

// ScoredRank is the output of the scoring engine for a single ticker on a
// single cross-section date: five factor scores in [0,100], a weighted
// total in [0,100], and the list of factor keys that were missing data.
type ScoredRank struct {
	Ticker    string
	Date      time.Time
	Valuation float64
	Growth    float64
	Quality   float64
	Chips     float64
	Momentum  float64
	Total     float64
	Missing   []string
}

// TargetWeights maps ticker to portfolio weight for one rebalance date.
// Weights sum to 1 (within floating point tolerance); an empty map means
// "hold cash".
type TargetWeights map[string]float64

// Portfolio is the back-test kernel's mutable in-run state. It is owned
// exclusively by the kernel for the lifetime of one simulation.
type Portfolio struct {
	Cash      float64
	Holdings  map[string]float64 // ticker -> fractional units held
	LastPrice map[string]float64 // ticker -> last observed price
}

// NewPortfolio returns a Portfolio seeded with 1 unit of cash and no
// holdings, the starting state for every back-test run.
func NewPortfolio() *Portfolio {
	return &Portfolio{
		Cash:      1,
		Holdings:  make(map[string]float64),
		LastPrice: make(map[string]float64),
	}
}

// Value returns cash plus the mark-to-market value of all holdings with a
// known last price.
func (p *Portfolio) Value() float64 {
	total := p.Cash
	for ticker, units := range p.Holdings {
		if price, ok := p.LastPrice[ticker]; ok {
			total += units * price
		}
	}
	return total
}

// EquityCurve is the ordered sequence of portfolio values produced by a
// back-test run, indexed by the run's sorted trading calendar.
type EquityCurve struct {
	Dates  []time.Time
	Equity []float64
}

// Returns computes the simple period-over-period return series. The
// result has one fewer element than Equity.
func (c EquityCurve) Returns() []float64 {
	if len(c.Equity) < 2 {
		return nil
	}
	out := make([]float64, len(c.Equity)-1)
	for i := 1; i < len(c.Equity); i++ {
		out[i-1] = c.Equity[i]/c.Equity[i-1] - 1
	}
	return out
}
