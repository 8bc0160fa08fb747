package cmd

import (
	"strconv"
	"strings"
	"time"
)

// splitCSV splits a comma-separated flag value into trimmed, non-empty
// parts. An empty input yields a nil slice.
func splitCSV(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitCSVInts(csv string) ([]int, error) {
	var out []int
	for _, p := range splitCSV(csv) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// resolveTickers returns stocksFlag split on commas, or every active
// ticker in the universe catalog when stocksFlag is empty.
func (a *app) resolveTickers(stocksFlag string) ([]string, error) {
	if explicit := splitCSV(stocksFlag); len(explicit) > 0 {
		return explicit, nil
	}
	rows, err := a.store.Fundamentals.ListUniverse()
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(rows))
	for _, t := range rows {
		tickers = append(tickers, t.Ticker)
	}
	return tickers, nil
}

// window returns [today-days, today], used by every fetch-* command's
// --days flag.
func window(days int) (time.Time, time.Time) {
	to := time.Now()
	from := to.AddDate(0, 0, -days)
	return from, to
}
