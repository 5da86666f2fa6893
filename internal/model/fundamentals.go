package model

import "time"

// Fundamentals is the company snapshot used by the fundamental report.
// Every numeric field is nil when the provider did not report it.
type Fundamentals struct {
	Symbol    string    `json:"symbol"`
	FetchedAt time.Time `json:"fetched_at"`

	LongName  string `json:"long_name,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Sector    string `json:"sector,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Country   string `json:"country,omitempty"`
	Website   string `json:"website,omitempty"`
	Exchange  string `json:"exchange,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Summary   string `json:"business_summary,omitempty"`
	Employees *int64 `json:"full_time_employees,omitempty"`

	MarketCap         *float64 `json:"market_cap,omitempty"`
	EnterpriseValue   *float64 `json:"enterprise_value,omitempty"`
	CurrentPrice      *float64 `json:"current_price,omitempty"`
	High52w           *float64 `json:"fifty_two_week_high,omitempty"`
	Low52w            *float64 `json:"fifty_two_week_low,omitempty"`
	AverageVolume     *float64 `json:"average_volume,omitempty"`
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"`
	FloatShares       *float64 `json:"float_shares,omitempty"`

	TrailingPE       *float64 `json:"trailing_pe,omitempty"`
	ForwardPE        *float64 `json:"forward_pe,omitempty"`
	ProfitMargins    *float64 `json:"profit_margins,omitempty"`
	OperatingMargins *float64 `json:"operating_margins,omitempty"`
	ReturnOnEquity   *float64 `json:"return_on_equity,omitempty"`
	ReturnOnAssets   *float64 `json:"return_on_assets,omitempty"`

	CurrentRatio      *float64 `json:"current_ratio,omitempty"`
	QuickRatio        *float64 `json:"quick_ratio,omitempty"`
	DebtToEquity      *float64 `json:"debt_to_equity,omitempty"`
	TotalDebt         *float64 `json:"total_debt,omitempty"`
	TotalCapital      *float64 `json:"total_capital,omitempty"`
	TotalCash         *float64 `json:"total_cash,omitempty"`
	TotalCashPerShare *float64 `json:"total_cash_per_share,omitempty"`
	BookValue         *float64 `json:"book_value,omitempty"`

	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`
	EarningsGrowth *float64 `json:"earnings_growth,omitempty"`
	TrailingEPS    *float64 `json:"trailing_eps,omitempty"`
	ForwardEPS     *float64 `json:"forward_eps,omitempty"`
	PEGRatio       *float64 `json:"peg_ratio,omitempty"`
	PriceToSales   *float64 `json:"price_to_sales,omitempty"`
	PriceToBook    *float64 `json:"price_to_book,omitempty"`
	TotalRevenue   *float64 `json:"total_revenue,omitempty"`
	EBITDA         *float64 `json:"ebitda,omitempty"`
	EVToEBITDA     *float64 `json:"enterprise_to_ebitda,omitempty"`
	EVToRevenue    *float64 `json:"enterprise_to_revenue,omitempty"`

	DividendYield *float64 `json:"dividend_yield,omitempty"`
	DividendRate  *float64 `json:"dividend_rate,omitempty"`
	PayoutRatio   *float64 `json:"payout_ratio,omitempty"`

	TargetMeanPrice   *float64 `json:"target_mean_price,omitempty"`
	RecommendationKey string   `json:"recommendation_key,omitempty"`
	AnalystCount      *float64 `json:"number_of_analyst_opinions,omitempty"`

	Income   Statement `json:"income_statement"`
	Balance  Statement `json:"balance_sheet"`
	CashFlow Statement `json:"cash_flow"`
}

// Statement is a financial statement keyed by line item, one value per period.
type Statement struct {
	Periods []time.Time           `json:"periods"`
	Items   map[string][]*float64 `json:"items"`
}
