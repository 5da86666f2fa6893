package fundamentals

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"StockLens/internal/httpclient"
	"StockLens/internal/model"
)

const summaryJSON = `{"quoteSummary":{"result":[{
"price":{"longName":"Apple Inc.","shortName":"Apple","exchangeName":"NasdaqGS","currency":"USD","regularMarketPrice":{"raw":190.5,"fmt":"190.50"},"marketCap":{"raw":2950000000000}},
"summaryDetail":{"fiftyTwoWeekHigh":{"raw":199.62},"fiftyTwoWeekLow":{"raw":164.08},"averageVolume":{"raw":55000000},"trailingPE":{"raw":29.6},"forwardPE":{},"dividendYield":{"raw":0.0051},"dividendRate":{"raw":0.96},"payoutRatio":{"raw":0.15},"priceToSalesTrailing12Months":{"raw":7.6},"maxAge":1},
"defaultKeyStatistics":{"enterpriseValue":{"raw":3000000000000},"sharesOutstanding":{"raw":15500000000},"bookValue":{"raw":4.8},"priceToBook":{"raw":39.5},"trailingEps":{"raw":6.43},"enterpriseToEbitda":{"raw":22.8}},
"financialData":{"currentPrice":{"raw":190.4},"targetMeanPrice":{"raw":210.2},"recommendationKey":"strong_buy","numberOfAnalystOpinions":{"raw":38},"totalDebt":{"raw":110000000000},"totalRevenue":{"raw":385000000000},"profitMargins":{"raw":0.2531},"returnOnEquity":{"raw":0},"currentRatio":{"raw":0.99}},
"assetProfile":{"sector":"Technology","industry":"Consumer Electronics","country":"United States","fullTimeEmployees":161000,"website":"https://www.apple.com","longBusinessSummary":"Designs phones."},
"incomeStatementHistory":{"incomeStatementHistory":[{"maxAge":1,"endDate":{"raw":1696032000,"fmt":"2023-09-30"},"totalRevenue":{"raw":383285000000},"netIncome":{"raw":96995000000},"grossProfit":{}}]},
"balanceSheetHistory":{"balanceSheetStatements":[{"maxAge":1,"endDate":{"raw":1696032000},"totalStockholderEquity":{"raw":62146000000},"totalAssets":{"raw":352583000000}}]},
"cashflowStatementHistory":{"cashflowStatements":[{"maxAge":1,"endDate":{"raw":1696032000},"totalCashFromOperatingActivities":{"raw":110543000000},"capitalExpenditures":{"raw":-10959000000}}]}
}],"error":null}}`

func newTestFetcher(t *testing.T, handler http.Handler) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := NewYahooFetcher(httpclient.New(httpclient.Options{Timeout: 2 * time.Second, RequestsPerSec: 100, MaxRetryTimeout: time.Second}))
	f.CookieURL = srv.URL + "/cookie"
	f.CrumbURL = srv.URL + "/crumb"
	f.SummaryURL = srv.URL + "/summary/"
	f.now = func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestYahooFetcher_RefreshesCrumb(t *testing.T) {
	var crumbs int32
	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/crumb", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&crumbs, 1)
		fmt.Fprintf(w, "crumb%d", n)
	})
	mux.HandleFunc("/summary/AAPL", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("crumb") != "crumb2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if c, err := r.Cookie("A3"); err != nil || c.Value != "session" {
			t.Errorf("session cookie not sent")
		}
		if !strings.Contains(r.URL.Query().Get("modules"), "balanceSheetHistory") {
			t.Errorf("modules = %q", r.URL.Query().Get("modules"))
		}
		w.Write([]byte(summaryJSON))
	})

	f := newTestFetcher(t, mux)
	fund, err := f.Fetch(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&crumbs) != 2 {
		t.Errorf("expected crumb refresh, got %d crumb calls", crumbs)
	}

	if fund.Symbol != "AAPL" || fund.LongName != "Apple Inc." || fund.Sector != "Technology" {
		t.Errorf("info: %+v", fund)
	}
	if fund.CurrentPrice == nil || *fund.CurrentPrice != 190.4 {
		t.Errorf("current price should prefer financialData: %v", fund.CurrentPrice)
	}
	if fund.ForwardPE != nil {
		t.Errorf("empty wrapper should map to nil, got %v", *fund.ForwardPE)
	}
	if fund.Employees == nil || *fund.Employees != 161000 {
		t.Errorf("employees: %v", fund.Employees)
	}
	if len(fund.Income.Periods) != 1 || fund.Income.Periods[0].Year() != 2023 {
		t.Errorf("income periods: %v", fund.Income.Periods)
	}
	fcf := fund.CashFlow.Items["Free Cash Flow"]
	if len(fcf) != 1 || fcf[0] == nil || *fcf[0] != 99584000000 {
		t.Errorf("free cash flow: %v", fcf)
	}
	if fund.TotalCapital == nil || *fund.TotalCapital != 172146000000 {
		t.Errorf("total capital: %v", fund.TotalCapital)
	}
}

func TestYahooFetcher_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/crumb", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("abc")) })
	mux.HandleFunc("/summary/ZZZZ", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found"}}}`))
	})

	f := newTestFetcher(t, mux)
	if _, err := f.Fetch(context.Background(), "ZZZZ"); !errors.Is(err, ErrNoFundamentals) {
		t.Errorf("expected ErrNoFundamentals, got %v", err)
	}
}

func findMetric(t *testing.T, metrics []model.Metric, label string) model.Metric {
	t.Helper()
	for _, m := range metrics {
		if m.Label == label {
			return m
		}
	}
	t.Fatalf("metric %q not found", label)
	return model.Metric{}
}

func ptr(v float64) *float64 { return &v }

func TestAnalyze(t *testing.T) {
	f := &model.Fundamentals{
		Symbol:            "AAPL",
		LongName:          "Apple Inc.",
		MarketCap:         ptr(2.95e12),
		CurrentPrice:      ptr(190.4),
		SharesOutstanding: ptr(15500000000),
		TrailingPE:        ptr(29.6),
		ProfitMargins:     ptr(0.2531),
		ReturnOnEquity:    ptr(0),
		TotalDebt:         ptr(50),
		TotalCapital:      ptr(200),
		EnterpriseValue:   ptr(3e12),
		TotalRevenue:      ptr(3.75e11),
		RecommendationKey: "strong_buy",
		TargetMeanPrice:   ptr(210.2),
	}
	r := Analyze(f)

	cases := []struct {
		metrics []model.Metric
		label   string
		want    string
	}{
		{r.KeyMetrics, "Market Cap", "$2.95T"},
		{r.KeyMetrics, "Enterprise Value", "$3.00T"},
		{r.KeyMetrics, "Current Price", "$190.40"},
		{r.KeyMetrics, "52 Week High", "$0"},
		{r.KeyMetrics, "Shares Outstanding", "15,500,000,000"},
		{r.KeyMetrics, "Float", "N/A"},
		{r.Ratios[0].Metrics, "P/E Ratio (TTM)", "29.60"},
		{r.Ratios[0].Metrics, "Profit Margin", "25.31%"},
		{r.Ratios[0].Metrics, "Return on Equity", "N/A"},
		{r.Ratios[1].Metrics, "Total Debt/Total Capital", "0.25"},
		{r.Ratios[2].Metrics, "EPS (TTM)", "N/A"},
		{r.Analyst.Metrics, "Recommendation", "Strong Buy"},
		{r.Analyst.Metrics, "Target Price", "$210.20"},
		{r.Analyst.Metrics, "Number of Analysts", "N/A"},
		{r.Multiples.Metrics, "EV/Revenue", "8.00"},
		{r.Multiples.Metrics, "EV/EBITDA", "N/A"},
		{r.Company, "Sector", "N/A"},
	}
	for _, c := range cases {
		if got := findMetric(t, c.metrics, c.label).Value; got != c.want {
			t.Errorf("%s = %q, want %q", c.label, got, c.want)
		}
	}
	if r.Dividend != nil {
		t.Error("dividend block should be absent without yield or rate")
	}

	f.DividendRate = ptr(0.96)
	if r := Analyze(f); r.Dividend == nil || findMetric(t, r.Dividend.Metrics, "Dividend Yield").Value != "N/A" {
		t.Errorf("dividend block: %+v", r.Dividend)
	}
}

func TestAnalyze_Statements(t *testing.T) {
	rev := 383300000000.0
	f := &model.Fundamentals{
		Income: model.Statement{
			Periods: []time.Time{time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC), {}},
			Items: map[string][]*float64{
				"Total Revenue": {&rev, nil},
				"Gross Profit":  {nil, nil},
			},
		},
	}
	r := Analyze(f)
	inc := r.Statements[0]
	if len(inc.Periods) != 2 || inc.Periods[0] != "2023-09-30" || inc.Periods[1] != "N/A" {
		t.Errorf("periods: %v", inc.Periods)
	}
	if len(inc.Rows) != 1 || inc.Rows[0].Item != "Total Revenue" {
		t.Fatalf("rows: %+v", inc.Rows)
	}
	if inc.Rows[0].Values[0] != "$383.30B" || inc.Rows[0].Values[1] != "N/A" {
		t.Errorf("values: %v", inc.Rows[0].Values)
	}
	if len(r.Statements[1].Rows) != 0 {
		t.Errorf("empty balance sheet should have no rows")
	}
}
