// Package upstream implements the two data providers the ingestion layer
// fetches from: a Primary client against the TWSE OpenAPI, and a Fallback
// client against FinMind, used when the primary has no data for a dataset
// or ticker.
package upstream

import (
	"context"
	"time"
)

// PriceRecord is one OHLCV row as reported by a provider, before it is
// converted into a domain.PriceBar.
type PriceRecord struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Turnover int64
}

// ValuationRecord is one day's valuation multiples as reported by a
// provider.
type ValuationRecord struct {
	Date          time.Time
	PER           *float64
	PBR           *float64
	DividendYield *float64
}

// RevenueRecord is one month's consolidated revenue figure.
type RevenueRecord struct {
	Month   time.Time
	Revenue int64
}

// IncomeStatementRecord holds the raw income-statement line items for one
// reporting period, as matched out of a provider's report via
// incomeLineSynonyms. Quality ratios (gross/op/net margin) are derived from
// these by internal/factors/quality, not by the provider.
type IncomeStatementRecord struct {
	Date        time.Time
	Revenue     *float64
	GrossProfit *float64
	OpIncome    *float64
	NetIncome   *float64
	EPS         *float64
}

// BalanceSheetRecord holds the raw balance-sheet line items for one
// reporting period, as matched out of a provider's report via
// balanceLineSynonyms. ROE/ROA/debtRatio/currentRatio are derived from
// these (combined with the matching IncomeStatementRecord's NetIncome) by
// internal/factors/quality, not by the provider.
type BalanceSheetRecord struct {
	Date          time.Time
	TotalAssets   *float64
	TotalEquity   *float64
	TotalLiab     *float64
	CurrentAssets *float64
	CurrentLiab   *float64
}

// InstitutionalFlowRecord is one day's three-legged net-buy figures.
type InstitutionalFlowRecord struct {
	Date        time.Time
	ForeignNet  int64
	InvTrustNet int64
	DealerNet   int64
}

// CompanyInfoRecord is one ticker's catalog entry. Market is one of
// "上市" (listed), "上櫃" (OTC), or "興櫃" (emerging board).
type CompanyInfoRecord struct {
	Ticker   string
	Name     string
	Industry string
	ListedOn string
	Market   string
}

// Source is implemented by both the Primary (TWSE) and Fallback (FinMind)
// clients. Every method returns domain.ErrNotFound when the provider has
// no data for the requested window, and domain.ErrTransientFetch for a
// retryable network or parse failure.
type Source interface {
	FetchPrice(ctx context.Context, ticker string, from, to time.Time) ([]PriceRecord, error)
	FetchValuation(ctx context.Context, ticker string, from, to time.Time) ([]ValuationRecord, error)
	FetchMonthlyRevenue(ctx context.Context, ticker string, months int) ([]RevenueRecord, error)
	FetchFinancialStatements(ctx context.Context, ticker string, from, to time.Time) ([]IncomeStatementRecord, error)
	FetchBalanceSheet(ctx context.Context, ticker string, from, to time.Time) ([]BalanceSheetRecord, error)
	FetchInstitutionalFlow(ctx context.Context, ticker string, from, to time.Time) ([]InstitutionalFlowRecord, error)
	FetchCompanyInfo(ctx context.Context) ([]CompanyInfoRecord, error)
}
