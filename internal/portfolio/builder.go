package portfolio

import (
	"sort"

	"github.com/chenhom/gugo-screener/internal/domain"
)

// Mode selects how weight is distributed across the selected tickers.
type Mode string

const (
	ModeEqual Mode = "equal"
	ModeCap   Mode = "cap"
)

// adtvFloor is the 20-day average turnover below which a ticker is dropped
// from the target portfolio entirely (too illiquid to trade the position).
const adtvFloor = 10_000_000

// adtvCapFraction bounds a single ticker's weight as a fraction of its own
// 20-day average turnover.
const adtvCapFraction = 0.1

// Candidate is one ranked ticker as of a rebalance date, carrying the
// optional fields the portfolio builder needs beyond the bare score.
type Candidate struct {
	Ticker    string
	Score     float64
	MarketCap *float64
	ADTV20    *float64
}

// Build picks the top `top` candidates by score (ties broken by ticker id
// ascending) and returns their target weights under mode. Cap-weighting
// falls back to equal-weighting when any selected candidate lacks a market
// cap. The ADTV clip, when a candidate's ADTV20 is populated, zeroes out
// illiquid names and caps the rest; the leftover is implicitly held as
// cash since TargetWeights need not sum to 1.
func Build(candidates []Candidate, top int, mode Mode) domain.TargetWeights {
	selected := selectTop(candidates, top)
	if len(selected) == 0 {
		return domain.TargetWeights{}
	}

	weights := make(domain.TargetWeights, len(selected))
	switch mode {
	case ModeCap:
		if allHaveMarketCap(selected) {
			var total float64
			for _, c := range selected {
				total += *c.MarketCap
			}
			for _, c := range selected {
				if total == 0 {
					weights[c.Ticker] = 0
					continue
				}
				weights[c.Ticker] = *c.MarketCap / total
			}
			break
		}
		fallthrough
	default:
		equalWeight := 1.0 / float64(len(selected))
		for _, c := range selected {
			weights[c.Ticker] = equalWeight
		}
	}

	for _, c := range selected {
		if c.ADTV20 == nil {
			continue
		}
		if *c.ADTV20 < adtvFloor {
			weights[c.Ticker] = 0
			continue
		}
		if cap := adtvCapFraction * *c.ADTV20; weights[c.Ticker] > cap {
			weights[c.Ticker] = cap
		}
	}

	return weights
}

func selectTop(candidates []Candidate, top int) []Candidate {
	sorted := append([]Candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})
	if top > len(sorted) {
		top = len(sorted)
	}
	if top < 0 {
		top = 0
	}
	return sorted[:top]
}

func allHaveMarketCap(candidates []Candidate) bool {
	for _, c := range candidates {
		if c.MarketCap == nil {
			return false
		}
	}
	return true
}
