package cmd

import (
	"fmt"
	"time"

	"github.com/chenhom/gugo-screener/internal/backtest"
	"github.com/chenhom/gugo-screener/internal/domain"
	"github.com/chenhom/gugo-screener/internal/portfolio"
	"github.com/chenhom/gugo-screener/internal/scoring"
)

// buildBacktestInput assembles a backtest.Input from storage: every
// ticker's price history over [start, end], and ranked candidates on each
// date the kernel will treat as a rebalance trigger (day 0 and every
// `rebalance`th trading day after it, mirroring backtest.Run's own
// calendar walk). Candidates carry no market cap or ADTV, since the
// catalog does not track either; portfolio.Build degrades cap-weighting
// to equal-weighting and skips the ADTV clip in that case.
func buildBacktestInput(a *app, tickers []string, start, end time.Time, rebalance, top int, mode portfolio.Mode, cost portfolio.CostModel) (backtest.Input, error) {
	prices := make(map[string][]domain.PriceBar, len(tickers))
	for _, ticker := range tickers {
		bars, err := a.store.Price.Series(ticker, start, end)
		if err != nil {
			return backtest.Input{}, fmt.Errorf("load price series for %s: %w", ticker, err)
		}
		if len(bars) > 0 {
			prices[ticker] = bars
		}
	}

	calendar, err := a.store.Price.TradingCalendar(start, end)
	if err != nil {
		return backtest.Input{}, fmt.Errorf("load trading calendar: %w", err)
	}

	engine := scoring.New(scoring.NewStoreDataSource(a.store), a.momentum)
	candidates := make(map[string][]portfolio.Candidate, len(calendar)/rebalance+1)
	for i, date := range calendar {
		if i != 0 && i%rebalance != 0 {
			continue
		}
		ranks, err := engine.ScoreAll(tickers, date)
		if err != nil {
			return backtest.Input{}, fmt.Errorf("score universe as of %s: %w", date.Format(domain.DateLayout), err)
		}
		rows := make([]portfolio.Candidate, len(ranks))
		for j, r := range ranks {
			rows[j] = portfolio.Candidate{Ticker: r.Ticker, Score: r.Total}
		}
		candidates[date.Format(domain.DateLayout)] = rows
	}

	return backtest.Input{
		Candidates: candidates,
		Prices:     prices,
		Start:      start,
		End:        end,
		Rebalance:  rebalance,
		Top:        top,
		Mode:       mode,
		CostModel:  cost,
	}, nil
}

// parseMode parses a --mode flag value into portfolio.Mode, defaulting to
// equal-weighting.
func parseMode(s string) (portfolio.Mode, error) {
	switch portfolio.Mode(s) {
	case "", portfolio.ModeEqual:
		return portfolio.ModeEqual, nil
	case portfolio.ModeCap:
		return portfolio.ModeCap, nil
	default:
		return "", fmt.Errorf("%w: --mode must be equal or cap, got %q", domain.ErrUserInput, s)
	}
}

// parseDate parses a "YYYY-MM-DD" flag value.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", domain.ErrUserInput, err)
	}
	return d, nil
}
