package fundamentals

import (
	"fmt"
	"strings"

	"StockLens/internal/format"
	"StockLens/internal/model"
)

// Group is a titled list of formatted metrics.
type Group struct {
	Title   string         `json:"title"`
	Metrics []model.Metric `json:"metrics"`
}

// StatementTable is a statement restricted to its key line items.
type StatementTable struct {
	Title   string         `json:"title"`
	Periods []string       `json:"periods"`
	Rows    []StatementRow `json:"rows"`
}

// StatementRow is one line item across periods.
type StatementRow struct {
	Item   string     `json:"item"`
	Values []string   `json:"values"`
	Raw    []*float64 `json:"raw"`
}

// Report is the formatted fundamental analysis of one company.
type Report struct {
	Symbol     string           `json:"symbol"`
	Name       string           `json:"name"`
	KeyMetrics []model.Metric   `json:"key_metrics"`
	Company    []model.Metric   `json:"company"`
	Summary    string           `json:"business_summary,omitempty"`
	Ratios     []Group          `json:"ratios"`
	Statements []StatementTable `json:"statements"`
	Dividend   *Group           `json:"dividend,omitempty"`
	Analyst    Group            `json:"analyst"`
	Multiples  Group            `json:"multiples"`
}

// nonZero treats a zero value as missing.
func nonZero(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func metric(label, value string, raw *float64) model.Metric {
	return model.Metric{Label: label, Value: value, Raw: raw}
}

func ratio(label string, v *float64) model.Metric {
	v = nonZero(v)
	return metric(label, format.Fixed(v, 2), v)
}

func pct(label string, v *float64) model.Metric {
	v = nonZero(v)
	return metric(label, format.Percentage(v, 2), v)
}

func dollars(label string, v *float64) model.Metric {
	v = nonZero(v)
	if v == nil {
		return metric(label, format.NA, nil)
	}
	return metric(label, fmt.Sprintf("$%.2f", *v), v)
}

func count(label string, v *float64) model.Metric {
	v = nonZero(v)
	return metric(label, format.Number(v, 0), v)
}

func text(label, v string) model.Metric {
	if strings.TrimSpace(v) == "" {
		v = format.NA
	}
	return metric(label, v, nil)
}

// keyPrice renders a price key metric; a missing price shows as $0.
func keyPrice(label string, v *float64) model.Metric {
	if v == nil {
		return metric(label, "$0", nil)
	}
	return metric(label, fmt.Sprintf("$%.2f", *v), v)
}

// Analyze formats every section of the fundamental report.
func Analyze(f *model.Fundamentals) *Report {
	r := &Report{
		Symbol:  f.Symbol,
		Name:    f.LongName,
		Summary: f.Summary,
	}
	if r.Name == "" {
		r.Name = f.ShortName
	}

	r.KeyMetrics = []model.Metric{
		metric("Market Cap", format.CurrencyPtr(f.MarketCap), f.MarketCap),
		metric("Enterprise Value", format.CurrencyPtr(f.EnterpriseValue), f.EnterpriseValue),
		keyPrice("Current Price", f.CurrentPrice),
		keyPrice("52 Week High", f.High52w),
		keyPrice("52 Week Low", f.Low52w),
		count("Average Volume", f.AverageVolume),
		count("Shares Outstanding", f.SharesOutstanding),
		count("Float", f.FloatShares),
	}

	employees := format.NA
	if f.Employees != nil && *f.Employees > 0 {
		e := float64(*f.Employees)
		employees = format.Number(&e, 0)
	}
	r.Company = []model.Metric{
		text("Company Name", f.LongName),
		text("Sector", f.Sector),
		text("Industry", f.Industry),
		text("Country", f.Country),
		text("Employees", employees),
		text("Website", f.Website),
		text("Exchange", f.Exchange),
		text("Currency", f.Currency),
	}

	var debtToCapital *float64
	if capital := nonZero(f.TotalCapital); capital != nil {
		debt := 0.0
		if f.TotalDebt != nil {
			debt = *f.TotalDebt
		}
		v := debt / *capital
		debtToCapital = &v
	}

	r.Ratios = []Group{
		{Title: "Profitability Ratios", Metrics: []model.Metric{
			ratio("P/E Ratio (TTM)", f.TrailingPE),
			ratio("Forward P/E", f.ForwardPE),
			pct("Profit Margin", f.ProfitMargins),
			pct("Operating Margin", f.OperatingMargins),
			pct("Return on Equity", f.ReturnOnEquity),
			pct("Return on Assets", f.ReturnOnAssets),
		}},
		{Title: "Liquidity Ratios", Metrics: []model.Metric{
			ratio("Current Ratio", f.CurrentRatio),
			ratio("Quick Ratio", f.QuickRatio),
			ratio("Debt to Equity", f.DebtToEquity),
			metric("Total Debt/Total Capital", format.Fixed(debtToCapital, 2), debtToCapital),
			dollars("Cash Per Share", f.TotalCashPerShare),
			dollars("Book Value Per Share", f.BookValue),
		}},
		{Title: "Growth Metrics", Metrics: []model.Metric{
			pct("Revenue Growth", f.RevenueGrowth),
			pct("Earnings Growth", f.EarningsGrowth),
			dollars("EPS (TTM)", f.TrailingEPS),
			dollars("Forward EPS", f.ForwardEPS),
			ratio("PEG Ratio", f.PEGRatio),
			ratio("Price to Sales", f.PriceToSales),
		}},
	}

	r.Statements = []StatementTable{
		statementTable("Income Statement (Annual)", f.Income, IncomeItems),
		statementTable("Balance Sheet (Annual)", f.Balance, BalanceItems),
		statementTable("Cash Flow Statement (Annual)", f.CashFlow, CashFlowItems),
	}

	if nonZero(f.DividendYield) != nil || nonZero(f.DividendRate) != nil {
		r.Dividend = &Group{Title: "Dividend Information", Metrics: []model.Metric{
			pct("Dividend Yield", f.DividendYield),
			dollars("Annual Dividend Rate", f.DividendRate),
			pct("Payout Ratio", f.PayoutRatio),
		}}
	}

	r.Analyst = Group{Title: "Analyst Recommendations", Metrics: []model.Metric{
		dollars("Target Price", f.TargetMeanPrice),
		text("Recommendation", format.TitleKey(f.RecommendationKey)),
		count("Number of Analysts", f.AnalystCount),
	}}

	var evRevenue *float64
	if ev, rev := nonZero(f.EnterpriseValue), nonZero(f.TotalRevenue); ev != nil && rev != nil {
		v := format.SafeDivide(*ev, *rev)
		evRevenue = &v
	}
	r.Multiples = Group{Title: "Valuation Multiples", Metrics: []model.Metric{
		ratio("P/E Ratio", f.TrailingPE),
		ratio("P/B Ratio", f.PriceToBook),
		ratio("P/S Ratio", f.PriceToSales),
		ratio("EV/Revenue", evRevenue),
		ratio("EV/EBITDA", f.EVToEBITDA),
	}}
	return r
}

// statementTable keeps the key items that have at least one value.
func statementTable(title string, st model.Statement, items []lineItem) StatementTable {
	t := StatementTable{Title: title}
	for _, p := range st.Periods {
		if p.IsZero() {
			t.Periods = append(t.Periods, format.NA)
			continue
		}
		t.Periods = append(t.Periods, p.Format("2006-01-02"))
	}
	for _, it := range items {
		vals, ok := st.Items[it.Label]
		if !ok || allNil(vals) {
			continue
		}
		row := StatementRow{Item: it.Label, Raw: vals}
		for _, v := range vals {
			if v == nil {
				row.Values = append(row.Values, format.NA)
				continue
			}
			row.Values = append(row.Values, format.Currency(*v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func allNil(vals []*float64) bool {
	for _, v := range vals {
		if v != nil {
			return false
		}
	}
	return true
}
