package upstream

import (
	"strconv"
	"strings"
	"time"

	"github.com/chenhom/gugo-screener/internal/domain"
)

// rocYearOffset is the number of years the Republic of China calendar is
// behind the Gregorian calendar: ROC year 1 is Gregorian 1912.
const rocYearOffset = 1911

// parseROCDate parses a TWSE-style date string in "YYY/MM/DD" ROC-calendar
// format (e.g. "113/01/02" for 2024-01-02) into a Gregorian time.Time.
func parseROCDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, domain.ErrTransientFetch
	}
	rocYear, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, domain.ErrTransientFetch
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, domain.ErrTransientFetch
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, domain.ErrTransientFetch
	}
	return time.Date(rocYear+rocYearOffset, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// parseCommaFloat parses a numeric field that may contain thousands
// separators, a leading "+"/"-" sign, or the placeholder "--" TWSE uses
// for "not applicable". "--" and "" return (0, false).
func parseCommaFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "--" || s == "NA" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseCommaInt is parseCommaFloat truncated to an integer, used for share
// counts and turnover figures that TWSE reports without decimals.
func parseCommaInt(s string) (int64, bool) {
	v, ok := parseCommaFloat(s)
	if !ok {
		return 0, false
	}
	return int64(v), true
}
