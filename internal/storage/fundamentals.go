package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chenhom/gugo-screener/internal/domain"
)

// FundamentalsRepository persists valuation, growth, fund-flow, and
// universe rows to the fundamentals database.
type FundamentalsRepository struct {
	db *DB
}

// NewFundamentalsRepository wraps db.
func NewFundamentalsRepository(db *DB) *FundamentalsRepository { return &FundamentalsRepository{db: db} }

// UpsertValuations replaces rows for the same (ticker, date) pairs, skipping
// any row where every field is null.
func (r *FundamentalsRepository) UpsertValuations(rows []domain.Valuation) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO valuation (ticker, date, per, pbr, dividend_yield)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(ticker, date) DO UPDATE SET
				per = excluded.per, pbr = excluded.pbr, dividend_yield = excluded.dividend_yield
		`)
		if err != nil {
			return fmt.Errorf("prepare valuation upsert: %w", err)
		}
		defer stmt.Close()
		for _, v := range rows {
			if v.AllNull() {
				continue
			}
			if _, err := stmt.Exec(v.Ticker, v.Date.Format(domain.DateLayout), v.PER, v.PBR, v.DividendYield); err != nil {
				return fmt.Errorf("upsert valuation %s/%s: %w", v.Ticker, v.Date.Format(domain.DateLayout), err)
			}
		}
		return nil
	})
}

// ValuationCrossSection returns the most recent valuation row on or before
// asOf for every ticker.
func (r *FundamentalsRepository) ValuationCrossSection(asOf time.Time) ([]domain.Valuation, error) {
	rows, err := r.db.Conn().Query(`
		SELECT v.ticker, v.date, v.per, v.pbr, v.dividend_yield
		FROM valuation v
		INNER JOIN (
			SELECT ticker, MAX(date) AS max_date FROM valuation WHERE date <= ? GROUP BY ticker
		) latest ON v.ticker = latest.ticker AND v.date = latest.max_date
	`, asOf.Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query valuation cross-section: %w", err)
	}
	defer rows.Close()

	var out []domain.Valuation
	for rows.Next() {
		var v domain.Valuation
		var dateStr string
		if err := rows.Scan(&v.Ticker, &dateStr, &v.PER, &v.PBR, &v.DividendYield); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		d, err := time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse valuation date %q: %w", dateStr, err)
		}
		v.Date = d
		out = append(out, v)
	}
	return out, rows.Err()
}

// ValuationSeries returns a ticker's last n valuation rows on or before
// asOf, in ascending date order, used by the rolling scoring method.
func (r *FundamentalsRepository) ValuationSeries(ticker string, asOf time.Time, n int) ([]domain.Valuation, error) {
	rows, err := r.db.Conn().Query(`
		SELECT ticker, date, per, pbr, dividend_yield
		FROM valuation WHERE ticker = ? AND date <= ? ORDER BY date DESC LIMIT ?
	`, ticker, asOf.Format(domain.DateLayout), n)
	if err != nil {
		return nil, fmt.Errorf("query valuation series: %w", err)
	}
	defer rows.Close()

	var out []domain.Valuation
	for rows.Next() {
		var v domain.Valuation
		var dateStr string
		if err := rows.Scan(&v.Ticker, &dateStr, &v.PER, &v.PBR, &v.DividendYield); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		d, err := time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse valuation date %q: %w", dateStr, err)
		}
		v.Date = d
		out = append(out, v)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// HasValuation reports whether ticker already has at least one valuation
// row inside [from, to], used by the fetch commands to skip a refetch of a
// window that is already on disk unless --force is given.
func (r *FundamentalsRepository) HasValuation(ticker string, from, to time.Time) (bool, error) {
	var exists int
	err := r.db.Conn().QueryRow(`
		SELECT EXISTS(SELECT 1 FROM valuation WHERE ticker = ? AND date BETWEEN ? AND ?)
	`, ticker, from.Format(domain.DateLayout), to.Format(domain.DateLayout)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check valuation presence for %s: %w", ticker, err)
	}
	return exists == 1, nil
}

// UpsertGrowth replaces rows for the same (ticker, month) pairs.
func (r *FundamentalsRepository) UpsertGrowth(rows []domain.Growth) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO growth (ticker, month, revenue, yoy, mom, eps, eps_qoq)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ticker, month) DO UPDATE SET
				revenue = excluded.revenue, yoy = excluded.yoy, mom = excluded.mom,
				eps = excluded.eps, eps_qoq = excluded.eps_qoq
		`)
		if err != nil {
			return fmt.Errorf("prepare growth upsert: %w", err)
		}
		defer stmt.Close()
		for _, g := range rows {
			if _, err := stmt.Exec(g.Ticker, g.Month.Format(domain.MonthLayout), g.Revenue, g.YoY, g.MoM, g.EPS, g.EPSQoQ); err != nil {
				return fmt.Errorf("upsert growth %s/%s: %w", g.Ticker, g.Month.Format(domain.MonthLayout), err)
			}
		}
		return nil
	})
}

// GrowthSeries returns a ticker's monthly growth rows in ascending order,
// used to derive YoY/MoM and to feed the growth score.
func (r *FundamentalsRepository) GrowthSeries(ticker string, months int) ([]domain.Growth, error) {
	rows, err := r.db.Conn().Query(`
		SELECT ticker, month, revenue, yoy, mom, eps, eps_qoq
		FROM growth WHERE ticker = ? ORDER BY month DESC LIMIT ?
	`, ticker, months)
	if err != nil {
		return nil, fmt.Errorf("query growth series: %w", err)
	}
	defer rows.Close()

	var out []domain.Growth
	for rows.Next() {
		var g domain.Growth
		var monthStr string
		if err := rows.Scan(&g.Ticker, &monthStr, &g.Revenue, &g.YoY, &g.MoM, &g.EPS, &g.EPSQoQ); err != nil {
			return nil, fmt.Errorf("scan growth: %w", err)
		}
		m, err := time.Parse(domain.MonthLayout, monthStr)
		if err != nil {
			return nil, fmt.Errorf("parse growth month %q: %w", monthStr, err)
		}
		g.Month = m
		out = append(out, g)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// LatestGrowth returns the most recent growth row per ticker as of asOf.
func (r *FundamentalsRepository) LatestGrowth(asOf time.Time) ([]domain.Growth, error) {
	rows, err := r.db.Conn().Query(`
		SELECT g.ticker, g.month, g.revenue, g.yoy, g.mom, g.eps, g.eps_qoq
		FROM growth g
		INNER JOIN (
			SELECT ticker, MAX(month) AS max_month FROM growth WHERE month <= ? GROUP BY ticker
		) latest ON g.ticker = latest.ticker AND g.month = latest.max_month
	`, asOf.Format(domain.MonthLayout))
	if err != nil {
		return nil, fmt.Errorf("query latest growth: %w", err)
	}
	defer rows.Close()

	var out []domain.Growth
	for rows.Next() {
		var g domain.Growth
		var monthStr string
		if err := rows.Scan(&g.Ticker, &monthStr, &g.Revenue, &g.YoY, &g.MoM, &g.EPS, &g.EPSQoQ); err != nil {
			return nil, fmt.Errorf("scan growth: %w", err)
		}
		m, err := time.Parse(domain.MonthLayout, monthStr)
		if err != nil {
			return nil, fmt.Errorf("parse growth month %q: %w", monthStr, err)
		}
		g.Month = m
		out = append(out, g)
	}
	return out, rows.Err()
}

// FundFlowCrossSection returns the most recent fund-flow row on or before
// asOf for every ticker.
func (r *FundamentalsRepository) FundFlowCrossSection(asOf time.Time) ([]domain.FundFlow, error) {
	rows, err := r.db.Conn().Query(`
		SELECT f.ticker, f.date, f.foreign_net, f.inv_trust_net, f.dealer_net
		FROM fund_flow f
		INNER JOIN (
			SELECT ticker, MAX(date) AS max_date FROM fund_flow WHERE date <= ? GROUP BY ticker
		) latest ON f.ticker = latest.ticker AND f.date = latest.max_date
	`, asOf.Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query fund flow cross-section: %w", err)
	}
	defer rows.Close()

	var out []domain.FundFlow
	for rows.Next() {
		var f domain.FundFlow
		var dateStr string
		if err := rows.Scan(&f.Ticker, &dateStr, &f.ForeignNet, &f.InvTrustNet, &f.DealerNet); err != nil {
			return nil, fmt.Errorf("scan fund flow: %w", err)
		}
		d, err := time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse fund flow date %q: %w", dateStr, err)
		}
		f.Date = d
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpsertFundFlow replaces rows for the same (ticker, date) pairs.
func (r *FundamentalsRepository) UpsertFundFlow(rows []domain.FundFlow) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO fund_flow (ticker, date, foreign_net, inv_trust_net, dealer_net)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(ticker, date) DO UPDATE SET
				foreign_net = excluded.foreign_net, inv_trust_net = excluded.inv_trust_net,
				dealer_net = excluded.dealer_net
		`)
		if err != nil {
			return fmt.Errorf("prepare fund flow upsert: %w", err)
		}
		defer stmt.Close()
		for _, f := range rows {
			if _, err := stmt.Exec(f.Ticker, f.Date.Format(domain.DateLayout), f.ForeignNet, f.InvTrustNet, f.DealerNet); err != nil {
				return fmt.Errorf("upsert fund flow %s/%s: %w", f.Ticker, f.Date.Format(domain.DateLayout), err)
			}
		}
		return nil
	})
}

// FundFlowWindow returns a ticker's fund-flow rows in ascending date order
// over the trailing `days` calendar days ending at asOf.
func (r *FundamentalsRepository) FundFlowWindow(ticker string, asOf time.Time, days int) ([]domain.FundFlow, error) {
	from := asOf.AddDate(0, 0, -days)
	rows, err := r.db.Conn().Query(`
		SELECT ticker, date, foreign_net, inv_trust_net, dealer_net
		FROM fund_flow WHERE ticker = ? AND date BETWEEN ? AND ? ORDER BY date ASC
	`, ticker, from.Format(domain.DateLayout), asOf.Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query fund flow window: %w", err)
	}
	defer rows.Close()

	var out []domain.FundFlow
	for rows.Next() {
		var f domain.FundFlow
		var dateStr string
		if err := rows.Scan(&f.Ticker, &dateStr, &f.ForeignNet, &f.InvTrustNet, &f.DealerNet); err != nil {
			return nil, fmt.Errorf("scan fund flow: %w", err)
		}
		d, err := time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse fund flow date %q: %w", dateStr, err)
		}
		f.Date = d
		out = append(out, f)
	}
	return out, rows.Err()
}

// Ticker is one row of the ticker catalog (C12). Market is one of "上市",
// "上櫃", or "興櫃".
type Ticker struct {
	Ticker   string
	Name     string
	Industry string
	ListedOn string
	Market   string
	Active   bool
}

// UpsertUniverse replaces the catalog rows for the given tickers.
func (r *FundamentalsRepository) UpsertUniverse(rows []Ticker) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO universe (ticker, name, industry, listed_on, market, active)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(ticker) DO UPDATE SET
				name = excluded.name, industry = excluded.industry,
				listed_on = excluded.listed_on, market = excluded.market, active = excluded.active
		`)
		if err != nil {
			return fmt.Errorf("prepare universe upsert: %w", err)
		}
		defer stmt.Close()
		for _, t := range rows {
			active := 0
			if t.Active {
				active = 1
			}
			if _, err := stmt.Exec(t.Ticker, t.Name, t.Industry, t.ListedOn, t.Market, active); err != nil {
				return fmt.Errorf("upsert universe ticker %s: %w", t.Ticker, err)
			}
		}
		return nil
	})
}

const universeLastUpdatedKey = "stock_list_last_updated"

// UniverseLastUpdated returns the timestamp of the last successful catalog
// refresh, or nil if the catalog has never been refreshed.
func (r *FundamentalsRepository) UniverseLastUpdated() (*time.Time, error) {
	value, ok, err := r.db.Meta(universeLastUpdatedKey)
	if err != nil {
		return nil, fmt.Errorf("read universe last-updated stamp: %w", err)
	}
	if !ok {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("parse universe last-updated stamp %q: %w", value, err)
	}
	return &t, nil
}

// SetUniverseLastUpdated records when the catalog was last refreshed.
func (r *FundamentalsRepository) SetUniverseLastUpdated(t time.Time) error {
	if err := r.db.SetMeta(universeLastUpdatedKey, t.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write universe last-updated stamp: %w", err)
	}
	return nil
}

// ListUniverse returns every active ticker in catalog order.
func (r *FundamentalsRepository) ListUniverse() ([]Ticker, error) {
	rows, err := r.db.Conn().Query(`
		SELECT ticker, name, industry, listed_on, market, active FROM universe WHERE active = 1 ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("query universe: %w", err)
	}
	defer rows.Close()

	var out []Ticker
	for rows.Next() {
		var t Ticker
		var active int
		if err := rows.Scan(&t.Ticker, &t.Name, &t.Industry, &t.ListedOn, &t.Market, &active); err != nil {
			return nil, fmt.Errorf("scan universe ticker: %w", err)
		}
		t.Active = active == 1
		out = append(out, t)
	}
	return out, rows.Err()
}
