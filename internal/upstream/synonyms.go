package upstream

// incomeLineSynonyms maps a raw income-statement line-item label, in
// whatever vocabulary a provider reports it under, to the canonical field
// it feeds. TWSE's opendata statements label lines in Chinese; FinMind's
// TaiwanStockFinancialStatements dataset labels the same lines in English.
// Both vocabularies are matched here so parsers never branch on which
// provider produced a row.
var incomeLineSynonyms = map[string]string{
	"營業收入":    "revenue",
	"營業收入淨額":  "revenue",
	"營收":      "revenue",
	"總收入":     "revenue",
	"Revenue":         "revenue",
	"OperatingRevenue": "revenue",

	"營業毛利":      "grossProfit",
	"營業毛利（毛損）":  "grossProfit",
	"毛利":        "grossProfit",
	"GrossProfit": "grossProfit",

	"營業利益":       "opIncome",
	"營業利益（損失）":   "opIncome",
	"OperatingIncome": "opIncome",

	"本期淨利":             "netIncome",
	"本期淨利（淨損）":         "netIncome",
	"稅後淨利":             "netIncome",
	"本期淨利（淨損）歸屬於母公司業主": "netIncome",
	"IncomeAfterTaxes":       "netIncome",

	"基本每股盈餘":          "eps",
	"每股盈餘":            "eps",
	"EPS":              "eps",
	"EarningsPerShare":  "eps",
}

// balanceLineSynonyms maps a raw balance-sheet line-item label to the
// canonical field it feeds, across both TWSE's Chinese statement labels
// and FinMind's English TaiwanStockBalanceSheet labels.
var balanceLineSynonyms = map[string]string{
	"資產總額":          "totalAssets",
	"資產總計":          "totalAssets",
	"TotalAssets":      "totalAssets",

	"權益總額":     "totalEquity",
	"權益總計":     "totalEquity",
	"股東權益總額":   "totalEquity",
	"股東權益總計":   "totalEquity",
	"Equity":      "totalEquity",
	"TotalEquity": "totalEquity",

	"負債總額":           "totalLiab",
	"負債總計":           "totalLiab",
	"TotalLiabilities": "totalLiab",

	"流動資產":       "currentAssets",
	"流動資產合計":     "currentAssets",
	"CurrentAssets": "currentAssets",

	"流動負債":            "currentLiab",
	"流動負債合計":          "currentLiab",
	"CurrentLiabilities": "currentLiab",
}

// legalEntityGroups assigns a raw institutional-investor legal-entity
// label, in whatever form a provider reports it, to one of the three
// chip-flow legs this system tracks. TWSE's T86 dataset reports the legs
// under literal Chinese legal-entity names; FinMind's
// TaiwanStockInstitutionalInvestorsBuySell dataset reports the same three
// legs under its own English type labels. Matching is exact against this
// set, not a prefix or substring match, since the two providers use
// slightly different exact label text for the same entity.
var legalEntityGroups = map[string]string{
	"外資及陸資(不含外資自營商)": "foreign",
	"外資及陸資":          "foreign",
	"Foreign_Investor":   "foreign",

	"投信":               "trust",
	"Investment_Trust":   "trust",

	"自營商(自行買賣)": "dealer",
	"自營商":       "dealer",
	"Dealer_self":  "dealer",
	"Dealer_Hedging": "dealer",
}

// legalEntityGroup looks up label's chip-flow leg. It returns "" when
// label matches none of the known synonyms, in which case the caller
// drops the row rather than miscounting it into an arbitrary leg.
func legalEntityGroup(label string) string {
	return legalEntityGroups[label]
}
