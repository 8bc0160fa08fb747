package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/chenhom/gugo-screener/internal/domain"
)

// DefaultPrimaryBaseURL is the TWSE OpenAPI host used when no override is
// configured.
const DefaultPrimaryBaseURL = "https://openapi.twse.com.tw"

// twsePriceRow mirrors one row of TWSE's per-ticker monthly quote dataset
// (exchangeReport/STOCK_DAY), one call per (ticker, month).
type twsePriceRow struct {
	Code         string `json:"Code"`
	Date         string `json:"Date"`
	TradeVolume  string `json:"TradeVolume"`
	TradeValue   string `json:"TradeValue"`
	OpeningPrice string `json:"OpeningPrice"`
	HighestPrice string `json:"HighestPrice"`
	LowestPrice  string `json:"LowestPrice"`
	ClosingPrice string `json:"ClosingPrice"`
}

// twsePERow mirrors one row of TWSE's per-ticker monthly PER/PBR dataset
// (exchangeReport/BWIBBU), one call per (ticker, month).
type twsePERow struct {
	Code          string `json:"Code"`
	Date          string `json:"Date"`
	PEratio       string `json:"PEratio"`
	PBratio       string `json:"PBratio"`
	DividendYield string `json:"DividendYield"`
}

// twseInstitutionalRow mirrors one row of TWSE's T86 full-market daily
// snapshot. T86 has no per-ticker or per-month range parameter; each leg is
// reported as a wide buy/sell column pair under the leg's literal
// legal-entity label, which legalEntityGroup resolves the same way the
// long-format FinMind dataset's name field is resolved.
type twseInstitutionalRow struct {
	Code            string `json:"Code"`
	Date            string `json:"Date"`
	ForeignBuy      string `json:"外陸資買進股數(不含外資自營商)"`
	ForeignSell     string `json:"外陸資賣出股數(不含外資自營商)"`
	TrustBuy        string `json:"投信買進股數"`
	TrustSell       string `json:"投信賣出股數"`
	DealerSelfBuy   string `json:"自營商買進股數(自行買賣)"`
	DealerSelfSell  string `json:"自營商賣出股數(自行買賣)"`
	DealerHedgeBuy  string `json:"自營商買進股數(避險)"`
	DealerHedgeSell string `json:"自營商賣出股數(避險)"`
}

// legs returns this row's per-entity (label, buy, sell) tuples, labeled
// with the literal legal-entity names legalEntityGroup matches against.
func (r twseInstitutionalRow) legs() []struct{ label, buy, sell string } {
	return []struct{ label, buy, sell string }{
		{"外資及陸資(不含外資自營商)", r.ForeignBuy, r.ForeignSell},
		{"投信", r.TrustBuy, r.TrustSell},
		{"自營商(自行買賣)", r.DealerSelfBuy, r.DealerSelfSell},
	}
}

type twseCompanyRow struct {
	Code     string `json:"公司代號"`
	Name     string `json:"公司簡稱"`
	Industry string `json:"產業別"`
	ListedOn string `json:"上市日"`
}

// Primary is the TWSE OpenAPI client. Price and valuation are
// month-granular (and T86 institutional flow day-granular) on TWSE's side,
// so those fetches iterate the requested window themselves rather than
// relying on a single call to cover a historical range. The monthly
// revenue and financial statement tables carry only the latest period, so
// those fetches make a single call and return that period alone.
type Primary struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewPrimary builds a Primary client against the TWSE OpenAPI base URL.
func NewPrimary(baseURL string, timeout time.Duration, log zerolog.Logger) *Primary {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	return &Primary{http: client, log: log.With().Str("component", "upstream.primary").Logger()}
}

// monthsBetween returns the first-of-month dates spanning [from, to],
// inclusive of both endpoints' months.
func monthsBetween(from, to time.Time) []time.Time {
	var out []time.Time
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// daysBetween returns every calendar day spanning [from, to], inclusive.
func daysBetween(from, to time.Time) []time.Time {
	var out []time.Time
	cur := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		out = append(out, cur)
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}

func (p *Primary) FetchPrice(ctx context.Context, ticker string, from, to time.Time) ([]PriceRecord, error) {
	var out []PriceRecord
	for _, month := range monthsBetween(from, to) {
		var rows []twsePriceRow
		resp, err := p.http.R().SetContext(ctx).
			SetQueryParam("date", month.Format("20060102")).
			SetQueryParam("stockNo", ticker).
			SetResult(&rows).
			Get("/exchangeReport/STOCK_DAY")
		if err != nil {
			return nil, fmt.Errorf("%w: twse price request for %s: %v", domain.ErrTransientFetch, month.Format("2006-01"), err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			continue
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%w: twse price status %d", domain.ErrTransientFetch, resp.StatusCode())
		}
		for _, row := range rows {
			if row.Code != "" && row.Code != ticker {
				continue
			}
			date, err := parseROCDate(row.Date)
			if err != nil || date.Before(from) || date.After(to) {
				continue
			}
			open, _ := parseCommaFloat(row.OpeningPrice)
			high, _ := parseCommaFloat(row.HighestPrice)
			low, _ := parseCommaFloat(row.LowestPrice)
			closeV, ok := parseCommaFloat(row.ClosingPrice)
			if !ok {
				continue
			}
			volume, _ := parseCommaInt(row.TradeVolume)
			turnover, _ := parseCommaInt(row.TradeValue)
			out = append(out, PriceRecord{Date: date, Open: open, High: high, Low: low, Close: closeV, Volume: volume, Turnover: turnover})
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (p *Primary) FetchValuation(ctx context.Context, ticker string, from, to time.Time) ([]ValuationRecord, error) {
	var out []ValuationRecord
	for _, month := range monthsBetween(from, to) {
		var rows []twsePERow
		resp, err := p.http.R().SetContext(ctx).
			SetQueryParam("date", month.Format("20060102")).
			SetQueryParam("stockNo", ticker).
			SetResult(&rows).
			Get("/exchangeReport/BWIBBU")
		if err != nil {
			return nil, fmt.Errorf("%w: twse valuation request for %s: %v", domain.ErrTransientFetch, month.Format("2006-01"), err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			continue
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%w: twse valuation status %d", domain.ErrTransientFetch, resp.StatusCode())
		}
		for _, row := range rows {
			if row.Code != "" && row.Code != ticker {
				continue
			}
			date, err := parseROCDate(row.Date)
			if err != nil || date.Before(from) || date.After(to) {
				continue
			}
			rec := ValuationRecord{Date: date}
			if v, ok := parseCommaFloat(row.PEratio); ok {
				rec.PER = &v
			}
			if v, ok := parseCommaFloat(row.PBratio); ok {
				rec.PBR = &v
			}
			if v, ok := parseCommaFloat(row.DividendYield); ok {
				rec.DividendYield = &v
			}
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// fetchLineItemRows pulls a TWSE opendata full-market table (wide format:
// one row per company, columns keyed by Chinese line-item label) and
// returns it as raw string maps so the caller can match columns against
// incomeLineSynonyms/balanceLineSynonyms without a bespoke struct per
// dataset revision.
func (p *Primary) fetchLineItemRows(ctx context.Context, path string) ([]map[string]string, error) {
	var rows []map[string]string
	resp, err := p.http.R().SetContext(ctx).SetResult(&rows).Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: twse opendata request %s: %v", domain.ErrTransientFetch, path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: twse opendata %s status %d", domain.ErrTransientFetch, path, resp.StatusCode())
	}
	return rows, nil
}

// opendataCode and opendataReportDate are the column keys TWSE's opendata
// company-level tables use for the issuer code and the report's as-of
// date, across the revenue/income-statement/balance-sheet tables.
const (
	opendataCode       = "公司代號"
	opendataReportDate = "出表日期"
)

// FetchMonthlyRevenue pulls TWSE's opendata monthly revenue table. The
// table carries only the latest published month per issuer, not a
// historical range, so a window missing the latest month falls through to
// the fallback provider.
func (p *Primary) FetchMonthlyRevenue(ctx context.Context, ticker string, months int) ([]RevenueRecord, error) {
	to := time.Now()
	from := to.AddDate(0, -months, 0)
	rows, err := p.fetchLineItemRows(ctx, "/v1/opendata/t187ap05_L")
	if err != nil {
		return nil, err
	}
	var out []RevenueRecord
	for _, row := range rows {
		if row[opendataCode] != ticker {
			continue
		}
		date, err := parseROCDate(row[opendataReportDate])
		if err != nil || date.Before(from) || date.After(to) {
			continue
		}
		for label, v := range row {
			if incomeLineSynonyms[label] != "revenue" {
				continue
			}
			revenue, ok := parseCommaInt(v)
			if !ok {
				continue
			}
			month := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
			out = append(out, RevenueRecord{Month: month, Revenue: revenue})
			break
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// FetchFinancialStatements pulls TWSE's opendata income-statement table and
// matches its columns against incomeLineSynonyms. As with
// FetchMonthlyRevenue, the table exposes only the latest published period.
func (p *Primary) FetchFinancialStatements(ctx context.Context, ticker string, from, to time.Time) ([]IncomeStatementRecord, error) {
	rows, err := p.fetchLineItemRows(ctx, "/v1/opendata/t187ap06_L_ci")
	if err != nil {
		return nil, err
	}
	var out []IncomeStatementRecord
	for _, row := range rows {
		if row[opendataCode] != ticker {
			continue
		}
		date, err := parseROCDate(row[opendataReportDate])
		if err != nil || date.Before(from) || date.After(to) {
			continue
		}
		rec := IncomeStatementRecord{Date: date}
		any := false
		for label, raw := range row {
			canon, ok := incomeLineSynonyms[label]
			if !ok {
				continue
			}
			v, ok := parseCommaFloat(raw)
			if !ok {
				continue
			}
			switch canon {
			case "revenue":
				rec.Revenue = &v
			case "grossProfit":
				rec.GrossProfit = &v
			case "opIncome":
				rec.OpIncome = &v
			case "netIncome":
				rec.NetIncome = &v
			case "eps":
				rec.EPS = &v
			default:
				continue
			}
			any = true
		}
		if any {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// FetchBalanceSheet pulls TWSE's opendata balance-sheet table and matches
// its columns against balanceLineSynonyms. Same latest-period-only
// limitation as FetchFinancialStatements.
func (p *Primary) FetchBalanceSheet(ctx context.Context, ticker string, from, to time.Time) ([]BalanceSheetRecord, error) {
	rows, err := p.fetchLineItemRows(ctx, "/v1/opendata/t187ap07_L_ci")
	if err != nil {
		return nil, err
	}
	var out []BalanceSheetRecord
	for _, row := range rows {
		if row[opendataCode] != ticker {
			continue
		}
		date, err := parseROCDate(row[opendataReportDate])
		if err != nil || date.Before(from) || date.After(to) {
			continue
		}
		rec := BalanceSheetRecord{Date: date}
		any := false
		for label, raw := range row {
			canon, ok := balanceLineSynonyms[label]
			if !ok {
				continue
			}
			v, ok := parseCommaFloat(raw)
			if !ok {
				continue
			}
			switch canon {
			case "totalAssets":
				rec.TotalAssets = &v
			case "totalEquity":
				rec.TotalEquity = &v
			case "totalLiab":
				rec.TotalLiab = &v
			case "currentAssets":
				rec.CurrentAssets = &v
			case "currentLiab":
				rec.CurrentLiab = &v
			default:
				continue
			}
			any = true
		}
		if any {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// FetchInstitutionalFlow iterates [from, to] one day at a time against
// T86, since it is a full-market snapshot for a single day with no
// ticker or date-range parameter. Each leg's raw buy/sell column pair is
// matched against legalEntityGroup rather than trusted as a pre-netted
// field, the same normalization FetchInstitutionalFlow's Fallback
// counterpart applies to FinMind's long-format rows.
func (p *Primary) FetchInstitutionalFlow(ctx context.Context, ticker string, from, to time.Time) ([]InstitutionalFlowRecord, error) {
	var out []InstitutionalFlowRecord
	for _, day := range daysBetween(from, to) {
		var rows []twseInstitutionalRow
		resp, err := p.http.R().SetContext(ctx).
			SetQueryParam("date", day.Format("20060102")).
			SetResult(&rows).
			Get("/v1/fund/T86")
		if err != nil {
			return nil, fmt.Errorf("%w: twse institutional flow request for %s: %v", domain.ErrTransientFetch, day.Format(domain.DateLayout), err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			continue
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%w: twse institutional flow status %d", domain.ErrTransientFetch, resp.StatusCode())
		}

		for _, row := range rows {
			if row.Code != ticker {
				continue
			}
			date, err := parseROCDate(row.Date)
			if err != nil {
				continue
			}
			rec := InstitutionalFlowRecord{Date: date}
			for _, leg := range row.legs() {
				buy, _ := parseCommaInt(leg.buy)
				sell, _ := parseCommaInt(leg.sell)
				net := buy - sell
				switch legalEntityGroup(leg.label) {
				case "foreign":
					rec.ForeignNet += net
				case "trust":
					rec.InvTrustNet += net
				case "dealer":
					rec.DealerNet += net
				}
			}
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (p *Primary) FetchCompanyInfo(ctx context.Context) ([]CompanyInfoRecord, error) {
	var rows []twseCompanyRow
	resp, err := p.http.R().SetContext(ctx).SetResult(&rows).Get("/v1/opendata/t187ap03_L")
	if err != nil {
		return nil, fmt.Errorf("%w: twse company info request: %v", domain.ErrTransientFetch, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: twse company info status %d", domain.ErrTransientFetch, resp.StatusCode())
	}

	out := make([]CompanyInfoRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, CompanyInfoRecord{Ticker: row.Code, Name: row.Name, Industry: row.Industry, ListedOn: row.ListedOn, Market: "上市"})
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}
