package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chenhom/gugo-screener/internal/domain"
)

// QualityRepository persists profitability/leverage ratios to the quality
// database.
type QualityRepository struct {
	db *DB
}

// NewQualityRepository wraps db.
func NewQualityRepository(db *DB) *QualityRepository { return &QualityRepository{db: db} }

// UpsertQuality replaces rows for the same (ticker, date) pairs, skipping
// rows where no field was computable.
func (r *QualityRepository) UpsertQuality(rows []domain.Quality) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO quality (ticker, date, roe, roa, gross_margin, op_margin, net_margin, debt_ratio, current_ratio, eps)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ticker, date) DO UPDATE SET
				roe = excluded.roe, roa = excluded.roa, gross_margin = excluded.gross_margin,
				op_margin = excluded.op_margin, net_margin = excluded.net_margin,
				debt_ratio = excluded.debt_ratio, current_ratio = excluded.current_ratio, eps = excluded.eps
		`)
		if err != nil {
			return fmt.Errorf("prepare quality upsert: %w", err)
		}
		defer stmt.Close()
		for _, q := range rows {
			if !q.AnyPresent() {
				continue
			}
			if _, err := stmt.Exec(q.Ticker, q.Date.Format(domain.DateLayout), q.ROE, q.ROA, q.GrossMargin,
				q.OpMargin, q.NetMargin, q.DebtRatio, q.CurrentRatio, q.EPS); err != nil {
				return fmt.Errorf("upsert quality %s/%s: %w", q.Ticker, q.Date.Format(domain.DateLayout), err)
			}
		}
		return nil
	})
}

// HasQuality reports whether ticker already has at least one quality row
// inside [from, to], used by the fetch commands to skip a refetch of a
// window that is already on disk unless --force is given.
func (r *QualityRepository) HasQuality(ticker string, from, to time.Time) (bool, error) {
	var exists int
	err := r.db.Conn().QueryRow(`
		SELECT EXISTS(SELECT 1 FROM quality WHERE ticker = ? AND date BETWEEN ? AND ?)
	`, ticker, from.Format(domain.DateLayout), to.Format(domain.DateLayout)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check quality presence for %s: %w", ticker, err)
	}
	return exists == 1, nil
}

// QualitySeries returns a ticker's last n quality rows on or before asOf, in
// ascending date order, used by the rolling scoring method.
func (r *QualityRepository) QualitySeries(ticker string, asOf time.Time, n int) ([]domain.Quality, error) {
	rows, err := r.db.Conn().Query(`
		SELECT ticker, date, roe, roa, gross_margin, op_margin, net_margin, debt_ratio, current_ratio, eps
		FROM quality WHERE ticker = ? AND date <= ? ORDER BY date DESC LIMIT ?
	`, ticker, asOf.Format(domain.DateLayout), n)
	if err != nil {
		return nil, fmt.Errorf("query quality series: %w", err)
	}
	defer rows.Close()

	var out []domain.Quality
	for rows.Next() {
		var q domain.Quality
		var dateStr string
		if err := rows.Scan(&q.Ticker, &dateStr, &q.ROE, &q.ROA, &q.GrossMargin, &q.OpMargin, &q.NetMargin,
			&q.DebtRatio, &q.CurrentRatio, &q.EPS); err != nil {
			return nil, fmt.Errorf("scan quality: %w", err)
		}
		d, err := time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse quality date %q: %w", dateStr, err)
		}
		q.Date = d
		out = append(out, q)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// QualityCrossSection returns the most recent quality row on or before asOf
// for every ticker.
func (r *QualityRepository) QualityCrossSection(asOf time.Time) ([]domain.Quality, error) {
	rows, err := r.db.Conn().Query(`
		SELECT q.ticker, q.date, q.roe, q.roa, q.gross_margin, q.op_margin, q.net_margin, q.debt_ratio, q.current_ratio, q.eps
		FROM quality q
		INNER JOIN (
			SELECT ticker, MAX(date) AS max_date FROM quality WHERE date <= ? GROUP BY ticker
		) latest ON q.ticker = latest.ticker AND q.date = latest.max_date
	`, asOf.Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query quality cross-section: %w", err)
	}
	defer rows.Close()

	var out []domain.Quality
	for rows.Next() {
		var q domain.Quality
		var dateStr string
		if err := rows.Scan(&q.Ticker, &dateStr, &q.ROE, &q.ROA, &q.GrossMargin, &q.OpMargin, &q.NetMargin,
			&q.DebtRatio, &q.CurrentRatio, &q.EPS); err != nil {
			return nil, fmt.Errorf("scan quality: %w", err)
		}
		d, err := time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse quality date %q: %w", dateStr, err)
		}
		q.Date = d
		out = append(out, q)
	}
	return out, rows.Err()
}
