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

// finMindEnvelope is the common response wrapper across every FinMind
// dataset endpoint: {"status": 200, "msg": "...", "data": [...]}.
type finMindEnvelope[T any] struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   []T    `json:"data"`
}

type finMindPriceRow struct {
	Date         string  `json:"date"`
	TradingVol   int64   `json:"Trading_Volume"`
	TradingMoney int64   `json:"Trading_money"`
	Open         float64 `json:"open"`
	Max          float64 `json:"max"`
	Min          float64 `json:"min"`
	Close        float64 `json:"close"`
}

type finMindPERow struct {
	Date          string  `json:"date"`
	PER           float64 `json:"PER"`
	PBR           float64 `json:"PBR"`
	DividendYield float64 `json:"dividend_yield"`
}

type finMindRevenueRow struct {
	Date    string `json:"date"` // first day of the revenue month
	Revenue int64  `json:"revenue"`
}

// finMindFinancialRow is one raw line item from FinMind's long-format
// financial statement datasets. Type is a line-item label matched through
// incomeLineSynonyms or balanceLineSynonyms, not a pre-computed ratio.
type finMindFinancialRow struct {
	Date  string  `json:"date"`
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type finMindInstitutionalRow struct {
	Date string `json:"date"`
	Name string `json:"name"` // legal-entity label; grouped via legalEntityGroup
	Buy  int64  `json:"buy"`
	Sell int64  `json:"sell"`
}

type finMindCompanyRow struct {
	StockID    string `json:"stock_id"`
	StockName  string `json:"stock_name"`
	Industry   string `json:"industry_category"`
	ListedDate string `json:"date"`
	Type       string `json:"type"`
}

// marketFromFinMindType maps FinMind's "type" field to the three-way
// market classification used throughout the catalog.
func marketFromFinMindType(t string) string {
	switch t {
	case "twse":
		return "上市"
	case "tpex":
		return "上櫃"
	default:
		return "興櫃"
	}
}

// DefaultFallbackBaseURL is the FinMind API host used when no override is
// configured. Dataset requests append "/api/v4/data" to this base.
const DefaultFallbackBaseURL = "https://api.finmindtrade.com"

// Fallback is the FinMind API client, used when the primary TWSE client
// returns domain.ErrNotFound for a dataset. FinMind enforces a daily quota
// per token; a 402 response is surfaced as domain.NewQuotaExceeded so the
// batch executor can fast-stop instead of retrying into a quota it cannot
// recover from this run.
type Fallback struct {
	http  *resty.Client
	log   zerolog.Logger
	token string
}

// NewFallback builds a Fallback client against the FinMind API base URL.
// token may be empty for FinMind's free, rate-limited tier.
func NewFallback(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Fallback {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	if token != "" {
		client.SetAuthToken(token)
	}
	return &Fallback{http: client, log: log.With().Str("component", "upstream.fallback").Logger(), token: token}
}

func (f *Fallback) request(ctx context.Context, dataset, ticker string, extra map[string]string) *resty.Request {
	r := f.http.R().SetContext(ctx).SetQueryParam("dataset", dataset)
	if ticker != "" {
		r.SetQueryParam("data_id", ticker)
	}
	for k, v := range extra {
		r.SetQueryParam(k, v)
	}
	return r
}

func checkFinMindStatus(dataset string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: finmind %s request: %v", domain.ErrTransientFetch, dataset, err)
	}
	if resp.StatusCode() == http.StatusPaymentRequired {
		return domain.NewQuotaExceeded(dataset)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("%w: finmind %s status %d", domain.ErrTransientFetch, dataset, resp.StatusCode())
	}
	return nil
}

func (f *Fallback) FetchPrice(ctx context.Context, ticker string, from, to time.Time) ([]PriceRecord, error) {
	var env finMindEnvelope[finMindPriceRow]
	resp, err := f.request(ctx, "TaiwanStockPrice", ticker, map[string]string{
		"start_date": from.Format(domain.DateLayout),
		"end_date":   to.Format(domain.DateLayout),
	}).SetResult(&env).Get("/api/v4/data")
	if err := checkFinMindStatus("TaiwanStockPrice", resp, err); err != nil {
		return nil, err
	}

	out := make([]PriceRecord, 0, len(env.Data))
	for _, row := range env.Data {
		date, perr := time.Parse(domain.DateLayout, row.Date)
		if perr != nil {
			continue
		}
		out = append(out, PriceRecord{
			Date: date, Open: row.Open, High: row.Max, Low: row.Min, Close: row.Close,
			Volume: row.TradingVol, Turnover: row.TradingMoney,
		})
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (f *Fallback) FetchValuation(ctx context.Context, ticker string, from, to time.Time) ([]ValuationRecord, error) {
	var env finMindEnvelope[finMindPERow]
	resp, err := f.request(ctx, "TaiwanStockPER", ticker, map[string]string{
		"start_date": from.Format(domain.DateLayout),
		"end_date":   to.Format(domain.DateLayout),
	}).SetResult(&env).Get("/api/v4/data")
	if err := checkFinMindStatus("TaiwanStockPER", resp, err); err != nil {
		return nil, err
	}

	out := make([]ValuationRecord, 0, len(env.Data))
	for _, row := range env.Data {
		date, perr := time.Parse(domain.DateLayout, row.Date)
		if perr != nil {
			continue
		}
		per, pbr, dy := row.PER, row.PBR, row.DividendYield
		out = append(out, ValuationRecord{Date: date, PER: &per, PBR: &pbr, DividendYield: &dy})
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (f *Fallback) FetchMonthlyRevenue(ctx context.Context, ticker string, months int) ([]RevenueRecord, error) {
	to := time.Now()
	from := to.AddDate(0, -months, 0)
	var env finMindEnvelope[finMindRevenueRow]
	resp, err := f.request(ctx, "TaiwanStockMonthRevenue", ticker, map[string]string{
		"start_date": from.Format(domain.DateLayout),
		"end_date":   to.Format(domain.DateLayout),
	}).SetResult(&env).Get("/api/v4/data")
	if err := checkFinMindStatus("TaiwanStockMonthRevenue", resp, err); err != nil {
		return nil, err
	}

	out := make([]RevenueRecord, 0, len(env.Data))
	for _, row := range env.Data {
		month, perr := time.Parse(domain.DateLayout, row.Date)
		if perr != nil {
			continue
		}
		out = append(out, RevenueRecord{Month: time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC), Revenue: row.Revenue})
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (f *Fallback) FetchFinancialStatements(ctx context.Context, ticker string, from, to time.Time) ([]IncomeStatementRecord, error) {
	var env finMindEnvelope[finMindFinancialRow]
	resp, err := f.request(ctx, "TaiwanStockFinancialStatements", ticker, map[string]string{
		"start_date": from.Format(domain.DateLayout),
		"end_date":   to.Format(domain.DateLayout),
	}).SetResult(&env).Get("/api/v4/data")
	if err := checkFinMindStatus("TaiwanStockFinancialStatements", resp, err); err != nil {
		return nil, err
	}

	byDate := map[string]*IncomeStatementRecord{}
	var order []string
	for _, row := range env.Data {
		canon, ok := incomeLineSynonyms[row.Type]
		if !ok {
			continue
		}
		rec, ok := byDate[row.Date]
		if !ok {
			date, perr := time.Parse(domain.DateLayout, row.Date)
			if perr != nil {
				continue
			}
			rec = &IncomeStatementRecord{Date: date}
			byDate[row.Date] = rec
			order = append(order, row.Date)
		}
		v := row.Value
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
		}
	}
	out := make([]IncomeStatementRecord, 0, len(order))
	for _, d := range order {
		out = append(out, *byDate[d])
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (f *Fallback) FetchBalanceSheet(ctx context.Context, ticker string, from, to time.Time) ([]BalanceSheetRecord, error) {
	var env finMindEnvelope[finMindFinancialRow]
	resp, err := f.request(ctx, "TaiwanStockBalanceSheet", ticker, map[string]string{
		"start_date": from.Format(domain.DateLayout),
		"end_date":   to.Format(domain.DateLayout),
	}).SetResult(&env).Get("/api/v4/data")
	if err := checkFinMindStatus("TaiwanStockBalanceSheet", resp, err); err != nil {
		return nil, err
	}

	byDate := map[string]*BalanceSheetRecord{}
	var order []string
	for _, row := range env.Data {
		canon, ok := balanceLineSynonyms[row.Type]
		if !ok {
			continue
		}
		rec, ok := byDate[row.Date]
		if !ok {
			date, perr := time.Parse(domain.DateLayout, row.Date)
			if perr != nil {
				continue
			}
			rec = &BalanceSheetRecord{Date: date}
			byDate[row.Date] = rec
			order = append(order, row.Date)
		}
		v := row.Value
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
		}
	}
	out := make([]BalanceSheetRecord, 0, len(order))
	for _, d := range order {
		out = append(out, *byDate[d])
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (f *Fallback) FetchInstitutionalFlow(ctx context.Context, ticker string, from, to time.Time) ([]InstitutionalFlowRecord, error) {
	var env finMindEnvelope[finMindInstitutionalRow]
	resp, err := f.request(ctx, "TaiwanStockInstitutionalInvestorsBuySell", ticker, map[string]string{
		"start_date": from.Format(domain.DateLayout),
		"end_date":   to.Format(domain.DateLayout),
	}).SetResult(&env).Get("/api/v4/data")
	if err := checkFinMindStatus("TaiwanStockInstitutionalInvestorsBuySell", resp, err); err != nil {
		return nil, err
	}

	byDate := map[string]*InstitutionalFlowRecord{}
	var order []string
	for _, row := range env.Data {
		rec, ok := byDate[row.Date]
		if !ok {
			date, perr := time.Parse(domain.DateLayout, row.Date)
			if perr != nil {
				continue
			}
			rec = &InstitutionalFlowRecord{Date: date}
			byDate[row.Date] = rec
			order = append(order, row.Date)
		}
		net := row.Buy - row.Sell
		switch legalEntityGroup(row.Name) {
		case "foreign":
			rec.ForeignNet += net
		case "trust":
			rec.InvTrustNet += net
		case "dealer":
			rec.DealerNet += net
		}
	}
	out := make([]InstitutionalFlowRecord, 0, len(order))
	for _, d := range order {
		out = append(out, *byDate[d])
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (f *Fallback) FetchCompanyInfo(ctx context.Context) ([]CompanyInfoRecord, error) {
	var env finMindEnvelope[finMindCompanyRow]
	resp, err := f.request(ctx, "TaiwanStockInfo", "", nil).SetResult(&env).Get("/api/v4/data")
	if err := checkFinMindStatus("TaiwanStockInfo", resp, err); err != nil {
		return nil, err
	}

	out := make([]CompanyInfoRecord, 0, len(env.Data))
	for _, row := range env.Data {
		out = append(out, CompanyInfoRecord{
			Ticker: row.StockID, Name: row.StockName, Industry: row.Industry,
			ListedOn: row.ListedDate, Market: marketFromFinMindType(row.Type),
		})
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}
