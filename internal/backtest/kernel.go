// Package backtest implements the event-loop portfolio simulator: given
// ranked candidates and price history, it rebalances on a fixed cadence
// and reports the resulting equity curve and summary statistics.
package backtest

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/chenhom/gugo-screener/internal/portfolio"
)

// tradingDaysPerYear annualizes CAGR and Sharpe.
const tradingDaysPerYear = 252

// Input is everything one back-test run needs.
type Input struct {
	// Candidates maps a date key (domain.DateLayout) to the ranked
	// candidates available for rebalancing on that date. A date absent
	// from this map has no target weights and is never a rebalance
	// trigger.
	Candidates map[string][]portfolio.Candidate
	// Prices maps ticker to its full price history; the run calendar is
	// the union of all bar dates intersected with [Start, End].
	Prices map[string][]domain.PriceBar

	Start, End time.Time
	Rebalance  int
	Top        int
	Mode       portfolio.Mode
	CostModel  portfolio.CostModel
}

// Result is the output of one back-test run.
type Result struct {
	Equity  domain.EquityCurve
	Returns []float64
	CAGR    float64
	Sharpe  float64
	MDD     float64
}

// Run executes the day-loop simulation described by input.
func Run(input Input) (Result, error) {
	if input.Rebalance < 1 {
		return Result{}, fmt.Errorf("rebalance must be >= 1, got %d", input.Rebalance)
	}

	pricesByDate, err := indexPricesByDate(input.Prices)
	if err != nil {
		return Result{}, err
	}

	calendar := buildCalendar(pricesByDate, input.Start, input.End)
	if len(calendar) == 0 {
		return Result{}, fmt.Errorf("empty trading calendar in [%s, %s]",
			input.Start.Format(domain.DateLayout), input.End.Format(domain.DateLayout))
	}

	port := domain.NewPortfolio()
	equity := domain.EquityCurve{}

	for i, date := range calendar {
		key := date.Format(domain.DateLayout)
		dayPrices := pricesByDate[key]
		for ticker, price := range dayPrices {
			port.LastPrice[ticker] = price
		}

		candidates, haveTargets := input.Candidates[key]
		if (i == 0 || i%input.Rebalance == 0) && haveTargets {
			weights := portfolio.Build(candidates, input.Top, input.Mode)
			rebalance(port, weights, input.CostModel)
		}

		equity.Dates = append(equity.Dates, date)
		equity.Equity = append(equity.Equity, port.Value())
	}

	returns := equity.Returns()
	result := Result{
		Equity:  equity,
		Returns: returns,
		CAGR:    cagr(equity.Equity),
		Sharpe:  sharpe(returns),
		MDD:     maxDrawdown(equity.Equity),
	}
	return result, nil
}

// rebalance liquidates positions absent from weights, then trades every
// target ticker toward its share of current portfolio value. Target
// tickers with no known price are skipped for this rebalance only.
func rebalance(port *domain.Portfolio, weights domain.TargetWeights, cost portfolio.CostModel) {
	value := port.Value()

	for ticker, units := range port.Holdings {
		if _, keep := weights[ticker]; keep {
			continue
		}
		price, ok := port.LastPrice[ticker]
		if !ok {
			continue
		}
		port.Cash += cost.Apply(price, portfolio.Sell) * units
		delete(port.Holdings, ticker)
	}

	for ticker, w := range weights {
		price, ok := port.LastPrice[ticker]
		if !ok {
			continue
		}
		targetUnits := value * w / price
		currentUnits := port.Holdings[ticker]
		diff := targetUnits - currentUnits
		if math.Abs(diff) < 1e-8 {
			continue
		}
		if diff > 0 {
			port.Cash -= cost.Apply(price, portfolio.Buy) * diff
		} else {
			port.Cash += cost.Apply(price, portfolio.Sell) * (-diff)
		}
		port.Holdings[ticker] = currentUnits + diff
	}
}

// indexPricesByDate validates every bar and groups closes by date key then
// ticker.
func indexPricesByDate(prices map[string][]domain.PriceBar) (map[string]map[string]float64, error) {
	out := make(map[string]map[string]float64)
	for ticker, bars := range prices {
		for _, b := range bars {
			if b.Close <= 0 || math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
				return nil, fmt.Errorf("%w: %s/%s close=%v", domain.ErrInvalidPriceData, ticker,
					b.Date.Format(domain.DateLayout), b.Close)
			}
			key := b.Date.Format(domain.DateLayout)
			if out[key] == nil {
				out[key] = make(map[string]float64)
			}
			out[key][ticker] = b.Close
		}
	}
	return out, nil
}

// buildCalendar returns the sorted set of dates with at least one price
// observation, restricted to [start, end].
func buildCalendar(pricesByDate map[string]map[string]float64, start, end time.Time) []time.Time {
	seen := make(map[string]time.Time, len(pricesByDate))
	for key := range pricesByDate {
		d, err := time.Parse(domain.DateLayout, key)
		if err != nil {
			continue
		}
		if d.Before(start) || (!end.IsZero() && d.After(end)) {
			continue
		}
		seen[key] = d
	}
	out := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// cagr annualizes the total return over len(equity)-1 trading days.
func cagr(equity []float64) float64 {
	n := len(equity) - 1
	if n <= 0 || equity[0] == 0 {
		return 0
	}
	total := equity[len(equity)-1] / equity[0]
	if total <= 0 {
		return -1
	}
	return math.Pow(total, float64(tradingDaysPerYear)/float64(n)) - 1
}

// sharpe returns the annualized Sharpe ratio of a daily return series, 0
// when the series has zero variance.
func sharpe(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := meanOf(returns)
	std := stdDevOf(returns, mean)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDevOf(xs []float64, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// maxDrawdown returns the largest peak-to-trough decline as a non-positive
// fraction.
func maxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		dd := v/peak - 1
		if dd < worst {
			worst = dd
		}
	}
	return worst
}
