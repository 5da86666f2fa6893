// Package fundamentals fetches company fundamentals and turns them into a
// formatted report.
package fundamentals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/httpclient"
	"StockLens/internal/logger"
	"StockLens/internal/model"
)

// ErrNoFundamentals is returned when the provider has nothing for a symbol.
var ErrNoFundamentals = errors.New("fundamental data unavailable")

// Fetcher loads the fundamentals of one symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (*model.Fundamentals, error)
}

const (
	yahooCookieURL  = "https://fc.yahoo.com"
	yahooCrumbURL   = "https://query1.finance.yahoo.com/v1/test/getcrumb"
	yahooSummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary/"
)

var summaryModules = []string{
	"price", "summaryDetail", "defaultKeyStatistics", "financialData", "assetProfile",
	"incomeStatementHistory", "balanceSheetHistory", "cashflowStatementHistory",
}

// YahooFetcher reads the quoteSummary endpoint. The endpoint needs a session
// cookie and a matching crumb, which are obtained once and refreshed when
// Yahoo rejects them.
type YahooFetcher struct {
	Client     *httpclient.Client
	CookieURL  string
	CrumbURL   string
	SummaryURL string

	mu    sync.Mutex
	crumb string
	log   zerolog.Logger
	now   func() time.Time
}

// NewYahooFetcher creates a fetcher with its own cookie jar on top of the
// shared client's limiter and retry policy.
func NewYahooFetcher(client *httpclient.Client) *YahooFetcher {
	jar, _ := cookiejar.New(nil)
	hc := *client.HTTPClient
	hc.Jar = jar
	c := *client
	c.HTTPClient = &hc

	return &YahooFetcher{
		Client:     &c,
		CookieURL:  yahooCookieURL,
		CrumbURL:   yahooCrumbURL,
		SummaryURL: yahooSummaryURL,
		log:        logger.Component("fundamentals"),
		now:        time.Now,
	}
}

func (f *YahooFetcher) getCrumb(ctx context.Context, refresh bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crumb != "" && !refresh {
		return f.crumb, nil
	}

	// fc.yahoo.com answers 404 but still sets the session cookie.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.CookieURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.Client.UserAgent)
	if resp, err := f.Client.HTTPClient.Do(req); err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	} else {
		f.log.Debug().Err(err).Msg("cookie request failed")
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, f.CrumbURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.Client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("get crumb: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.Contains(crumb, "<") {
		return "", fmt.Errorf("get crumb: unexpected body %q", crumb)
	}
	f.crumb = crumb
	f.log.Debug().Msg("obtained yahoo crumb")
	return crumb, nil
}

// Fetch loads and maps the quoteSummary modules for symbol.
func (f *YahooFetcher) Fetch(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	body, err := f.fetchSummary(ctx, symbol, false)
	var se *httpclient.StatusError
	if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
		f.log.Info().Str("symbol", symbol).Msg("crumb rejected, refreshing")
		body, err = f.fetchSummary(ctx, symbol, true)
	}
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoFundamentals)
	}
	if err != nil {
		return nil, err
	}
	if body.QuoteSummary.Error != nil {
		if body.QuoteSummary.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%s: %w", symbol, ErrNoFundamentals)
		}
		return nil, fmt.Errorf("quoteSummary %s: %s", symbol, body.QuoteSummary.Error.Description)
	}
	if len(body.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoFundamentals)
	}

	fund := mapSummary(symbol, body.QuoteSummary.Result[0])
	fund.FetchedAt = f.now().UTC()
	return fund, nil
}

func (f *YahooFetcher) fetchSummary(ctx context.Context, symbol string, refresh bool) (*quoteSummaryResponse, error) {
	crumb, err := f.getCrumb(ctx, refresh)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"modules": {strings.Join(summaryModules, ",")},
		"crumb":   {crumb},
	}
	var body quoteSummaryResponse
	if err := f.Client.GetJSON(ctx, f.SummaryURL+url.PathEscape(symbol), q, &body); err != nil {
		return nil, fmt.Errorf("quoteSummary %s: %w", symbol, err)
	}
	return &body, nil
}

// rawValue is Yahoo's {"raw": 1.2, "fmt": "1.20"} number wrapper. Missing
// values arrive as {}.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type summaryResult struct {
	Price struct {
		LongName           string   `json:"longName"`
		ShortName          string   `json:"shortName"`
		ExchangeName       string   `json:"exchangeName"`
		Currency           string   `json:"currency"`
		RegularMarketPrice rawValue `json:"regularMarketPrice"`
		MarketCap          rawValue `json:"marketCap"`
	} `json:"price"`
	SummaryDetail struct {
		FiftyTwoWeekHigh rawValue `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  rawValue `json:"fiftyTwoWeekLow"`
		AverageVolume    rawValue `json:"averageVolume"`
		TrailingPE       rawValue `json:"trailingPE"`
		ForwardPE        rawValue `json:"forwardPE"`
		DividendYield    rawValue `json:"dividendYield"`
		DividendRate     rawValue `json:"dividendRate"`
		PayoutRatio      rawValue `json:"payoutRatio"`
		PriceToSales     rawValue `json:"priceToSalesTrailing12Months"`
		MarketCap        rawValue `json:"marketCap"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics struct {
		EnterpriseValue     rawValue `json:"enterpriseValue"`
		SharesOutstanding   rawValue `json:"sharesOutstanding"`
		FloatShares         rawValue `json:"floatShares"`
		BookValue           rawValue `json:"bookValue"`
		PriceToBook         rawValue `json:"priceToBook"`
		TrailingEps         rawValue `json:"trailingEps"`
		ForwardEps          rawValue `json:"forwardEps"`
		PegRatio            rawValue `json:"pegRatio"`
		EnterpriseToEbitda  rawValue `json:"enterpriseToEbitda"`
		EnterpriseToRevenue rawValue `json:"enterpriseToRevenue"`
	} `json:"defaultKeyStatistics"`
	FinancialData struct {
		CurrentPrice            rawValue `json:"currentPrice"`
		TargetMeanPrice         rawValue `json:"targetMeanPrice"`
		RecommendationKey       string   `json:"recommendationKey"`
		NumberOfAnalystOpinions rawValue `json:"numberOfAnalystOpinions"`
		TotalCash               rawValue `json:"totalCash"`
		TotalCashPerShare       rawValue `json:"totalCashPerShare"`
		Ebitda                  rawValue `json:"ebitda"`
		TotalDebt               rawValue `json:"totalDebt"`
		QuickRatio              rawValue `json:"quickRatio"`
		CurrentRatio            rawValue `json:"currentRatio"`
		TotalRevenue            rawValue `json:"totalRevenue"`
		DebtToEquity            rawValue `json:"debtToEquity"`
		RevenueGrowth           rawValue `json:"revenueGrowth"`
		EarningsGrowth          rawValue `json:"earningsGrowth"`
		ProfitMargins           rawValue `json:"profitMargins"`
		OperatingMargins        rawValue `json:"operatingMargins"`
		ReturnOnAssets          rawValue `json:"returnOnAssets"`
		ReturnOnEquity          rawValue `json:"returnOnEquity"`
	} `json:"financialData"`
	AssetProfile struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		Country             string `json:"country"`
		Website             string `json:"website"`
		FullTimeEmployees   *int64 `json:"fullTimeEmployees"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"assetProfile"`
	IncomeStatementHistory struct {
		Statements []map[string]json.RawMessage `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	BalanceSheetHistory struct {
		Statements []map[string]json.RawMessage `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
	CashflowStatementHistory struct {
		Statements []map[string]json.RawMessage `json:"cashflowStatements"`
	} `json:"cashflowStatementHistory"`
}

// lineItem maps a display label to a quoteSummary statement field.
type lineItem struct {
	Label string
	Field string
}

// Statement line items in display order.
var (
	IncomeItems = []lineItem{
		{"Total Revenue", "totalRevenue"},
		{"Gross Profit", "grossProfit"},
		{"Operating Income", "operatingIncome"},
		{"Net Income", "netIncome"},
		{"EBIT", "ebit"},
	}
	BalanceItems = []lineItem{
		{"Total Assets", "totalAssets"},
		{"Current Assets", "totalCurrentAssets"},
		{"Total Liabilities Current", "totalCurrentLiabilities"},
		{"Long Term Debt", "longTermDebt"},
		{"Total Stockholder Equity", "totalStockholderEquity"},
		{"Cash And Cash Equivalents", "cash"},
	}
	CashFlowItems = []lineItem{
		{"Operating Cash Flow", "totalCashFromOperatingActivities"},
		{"Investing Cash Flow", "totalCashflowsFromInvestingActivities"},
		{"Financing Cash Flow", "totalCashFromFinancingActivities"},
		{"Capital Expenditure", "capitalExpenditures"},
		{"Free Cash Flow", ""},
	}
)

func fieldValue(row map[string]json.RawMessage, field string) *float64 {
	raw, ok := row[field]
	if !ok {
		return nil
	}
	var v rawValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v.Raw
}

func mapStatement(rows []map[string]json.RawMessage, items []lineItem) model.Statement {
	st := model.Statement{Items: make(map[string][]*float64, len(items))}
	for _, row := range rows {
		if end := fieldValue(row, "endDate"); end != nil {
			st.Periods = append(st.Periods, time.Unix(int64(*end), 0).UTC())
		} else {
			st.Periods = append(st.Periods, time.Time{})
		}
		for _, it := range items {
			var v *float64
			if it.Field != "" {
				v = fieldValue(row, it.Field)
			} else if it.Label == "Free Cash Flow" {
				op := fieldValue(row, "totalCashFromOperatingActivities")
				capex := fieldValue(row, "capitalExpenditures")
				if op != nil && capex != nil {
					fcf := *op + *capex
					v = &fcf
				}
			}
			st.Items[it.Label] = append(st.Items[it.Label], v)
		}
	}
	return st
}

func firstOf(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func mapSummary(symbol string, r summaryResult) *model.Fundamentals {
	f := &model.Fundamentals{
		Symbol:    symbol,
		LongName:  r.Price.LongName,
		ShortName: r.Price.ShortName,
		Exchange:  r.Price.ExchangeName,
		Currency:  r.Price.Currency,
		Sector:    r.AssetProfile.Sector,
		Industry:  r.AssetProfile.Industry,
		Country:   r.AssetProfile.Country,
		Website:   r.AssetProfile.Website,
		Summary:   r.AssetProfile.LongBusinessSummary,
		Employees: r.AssetProfile.FullTimeEmployees,

		MarketCap:         firstOf(r.Price.MarketCap.Raw, r.SummaryDetail.MarketCap.Raw),
		EnterpriseValue:   r.DefaultKeyStatistics.EnterpriseValue.Raw,
		CurrentPrice:      firstOf(r.FinancialData.CurrentPrice.Raw, r.Price.RegularMarketPrice.Raw),
		High52w:           r.SummaryDetail.FiftyTwoWeekHigh.Raw,
		Low52w:            r.SummaryDetail.FiftyTwoWeekLow.Raw,
		AverageVolume:     r.SummaryDetail.AverageVolume.Raw,
		SharesOutstanding: r.DefaultKeyStatistics.SharesOutstanding.Raw,
		FloatShares:       r.DefaultKeyStatistics.FloatShares.Raw,

		TrailingPE:       r.SummaryDetail.TrailingPE.Raw,
		ForwardPE:        r.SummaryDetail.ForwardPE.Raw,
		ProfitMargins:    r.FinancialData.ProfitMargins.Raw,
		OperatingMargins: r.FinancialData.OperatingMargins.Raw,
		ReturnOnEquity:   r.FinancialData.ReturnOnEquity.Raw,
		ReturnOnAssets:   r.FinancialData.ReturnOnAssets.Raw,

		CurrentRatio:      r.FinancialData.CurrentRatio.Raw,
		QuickRatio:        r.FinancialData.QuickRatio.Raw,
		DebtToEquity:      r.FinancialData.DebtToEquity.Raw,
		TotalDebt:         r.FinancialData.TotalDebt.Raw,
		TotalCash:         r.FinancialData.TotalCash.Raw,
		TotalCashPerShare: r.FinancialData.TotalCashPerShare.Raw,
		BookValue:         r.DefaultKeyStatistics.BookValue.Raw,

		RevenueGrowth:  r.FinancialData.RevenueGrowth.Raw,
		EarningsGrowth: r.FinancialData.EarningsGrowth.Raw,
		TrailingEPS:    r.DefaultKeyStatistics.TrailingEps.Raw,
		ForwardEPS:     r.DefaultKeyStatistics.ForwardEps.Raw,
		PEGRatio:       r.DefaultKeyStatistics.PegRatio.Raw,
		PriceToSales:   r.SummaryDetail.PriceToSales.Raw,
		PriceToBook:    r.DefaultKeyStatistics.PriceToBook.Raw,
		TotalRevenue:   r.FinancialData.TotalRevenue.Raw,
		EBITDA:         r.FinancialData.Ebitda.Raw,
		EVToEBITDA:     r.DefaultKeyStatistics.EnterpriseToEbitda.Raw,
		EVToRevenue:    r.DefaultKeyStatistics.EnterpriseToRevenue.Raw,

		DividendYield: r.SummaryDetail.DividendYield.Raw,
		DividendRate:  r.SummaryDetail.DividendRate.Raw,
		PayoutRatio:   r.SummaryDetail.PayoutRatio.Raw,

		TargetMeanPrice:   r.FinancialData.TargetMeanPrice.Raw,
		RecommendationKey: r.FinancialData.RecommendationKey,
		AnalystCount:      r.FinancialData.NumberOfAnalystOpinions.Raw,

		Income:   mapStatement(r.IncomeStatementHistory.Statements, IncomeItems),
		Balance:  mapStatement(r.BalanceSheetHistory.Statements, BalanceItems),
		CashFlow: mapStatement(r.CashflowStatementHistory.Statements, CashFlowItems),
	}

	// Total capital is debt plus equity from the latest balance sheet.
	if eq := f.Balance.Items["Total Stockholder Equity"]; len(eq) > 0 && eq[0] != nil {
		capital := *eq[0]
		if f.TotalDebt != nil {
			capital += *f.TotalDebt
		}
		f.TotalCapital = &capital
	}
	return f
}
