package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chenhom/gugo-screener/internal/domain"
)

// PriceRepository persists OHLCV bars to the price database.
type PriceRepository struct {
	db *DB
}

// NewPriceRepository wraps db for price-bar access.
func NewPriceRepository(db *DB) *PriceRepository { return &PriceRepository{db: db} }

// UpsertBars replaces any existing rows for the same (ticker, date) pairs.
func (r *PriceRepository) UpsertBars(bars []domain.PriceBar) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO price_bar (ticker, date, open, high, low, close, volume, turnover)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ticker, date) DO UPDATE SET
				open = excluded.open, high = excluded.high, low = excluded.low,
				close = excluded.close, volume = excluded.volume, turnover = excluded.turnover
		`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, b := range bars {
			if !b.Valid() {
				return fmt.Errorf("%w: ticker=%s date=%s", domain.ErrInvalidPriceData, b.Ticker, b.Date.Format(domain.DateLayout))
			}
			if _, err := stmt.Exec(b.Ticker, b.Date.Format(domain.DateLayout), b.Open, b.High, b.Low, b.Close, b.Volume, b.Turnover); err != nil {
				return fmt.Errorf("upsert price bar %s/%s: %w", b.Ticker, b.Date.Format(domain.DateLayout), err)
			}
		}
		return nil
	})
}

// Series returns a ticker's bars in ascending date order within [from, to].
func (r *PriceRepository) Series(ticker string, from, to time.Time) ([]domain.PriceBar, error) {
	rows, err := r.db.Conn().Query(`
		SELECT ticker, date, open, high, low, close, volume, turnover
		FROM price_bar WHERE ticker = ? AND date BETWEEN ? AND ?
		ORDER BY date ASC
	`, ticker, from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query price series: %w", err)
	}
	defer rows.Close()
	return scanPriceBars(rows)
}

// CrossSection returns the most recent bar on or before asOf for every
// ticker that has one, used by the scoring engine and the back-test kernel's
// forward-fill step.
func (r *PriceRepository) CrossSection(asOf time.Time) ([]domain.PriceBar, error) {
	rows, err := r.db.Conn().Query(`
		SELECT p.ticker, p.date, p.open, p.high, p.low, p.close, p.volume, p.turnover
		FROM price_bar p
		INNER JOIN (
			SELECT ticker, MAX(date) AS max_date
			FROM price_bar WHERE date <= ?
			GROUP BY ticker
		) latest ON p.ticker = latest.ticker AND p.date = latest.max_date
	`, asOf.Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query price cross-section: %w", err)
	}
	defer rows.Close()
	return scanPriceBars(rows)
}

// TradingCalendar returns the sorted list of distinct dates that have at
// least one price bar within [from, to].
func (r *PriceRepository) TradingCalendar(from, to time.Time) ([]time.Time, error) {
	rows, err := r.db.Conn().Query(`
		SELECT DISTINCT date FROM price_bar WHERE date BETWEEN ? AND ? ORDER BY date ASC
	`, from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query trading calendar: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan trading calendar date: %w", err)
		}
		d, err := time.Parse(domain.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("parse trading calendar date %q: %w", s, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanPriceBars(rows *sql.Rows) ([]domain.PriceBar, error) {
	var out []domain.PriceBar
	for rows.Next() {
		var b domain.PriceBar
		var dateStr string
		if err := rows.Scan(&b.Ticker, &dateStr, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Turnover); err != nil {
			return nil, fmt.Errorf("scan price bar: %w", err)
		}
		d, err := time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse price bar date %q: %w", dateStr, err)
		}
		b.Date = d
		out = append(out, b)
	}
	return out, rows.Err()
}
