package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockLens/internal/httpclient"
	"StockLens/internal/model"
)

func testClient() *httpclient.Client {
	return httpclient.New(httpclient.Options{Timeout: 2 * time.Second, RequestsPerSec: 100, MaxRetryTimeout: time.Second})
}

const chartJSON = `{"chart":{"result":[{"meta":{"symbol":"^GSPC","regularMarketPrice":5010.5},
"timestamp":[1704326400,1704153600,1704240000],
"indicators":{"quote":[{"open":[4700,4740,null],"high":[4720,4760,null],"low":[4680,4720,null],"close":[4710,4750,null],"volume":[1000,2000,null]}]}}],"error":null}}`

func TestYahooFetcher_SkipsNullsAndSorts(t *testing.T) {
	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	f := NewYahooFetcher(testClient())
	f.BaseURL = srv.URL + "/"

	bars, err := f.FetchDailyBars(context.Background(), "spx500", "6mo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(gotPath, "^GSPC") {
		t.Errorf("alias not mapped, path %q", gotPath)
	}
	if gotRange != "6mo" {
		t.Errorf("range = %q", gotRange)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars after skipping nulls, got %d", len(bars))
	}
	if !bars[0].Time.Before(bars[1].Time) || bars[0].Close != 4750 {
		t.Errorf("bars not sorted: %+v", bars)
	}

	price, err := f.FetchCurrentPrice(context.Background(), "SPX500")
	if err != nil || price != 5010.5 {
		t.Errorf("price = %v, err = %v", price, err)
	}
}

func TestYahooFetcher_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher(testClient())
	f.BaseURL = srv.URL + "/"
	if _, err := f.FetchDailyBars(context.Background(), "ZZZZ", "1y"); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestCollector_LoadYahooNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher(testClient())
	f.BaseURL = srv.URL + "/"
	c := NewCollector(f, nil)

	_, err := c.Load(context.Background(), "ZZZZQ", model.MarketInternational, "1y")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	want := "No data found for ticker ZZZZQ. The symbol may be delisted or invalid."
	if err.Error() != want {
		t.Errorf("message = %q", err.Error())
	}
}

func TestYahooFetcher_ChartErrorNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher(testClient())
	f.BaseURL = srv.URL + "/"
	if _, err := f.FetchDailyBars(context.Background(), "ZZZZQ", "1y"); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestTwelveDataFetcher_WeeklyFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "k" {
			t.Errorf("missing api key")
		}
		if r.URL.Query().Get("interval") == "1week" {
			w.Write([]byte(`{"status":"error","message":"interval not available"}`))
			return
		}
		w.Write([]byte(`{"status":"ok","values":[
{"datetime":"2024-01-03","open":"11","high":"12","low":"10","close":"11.5","volume":"300"},
{"datetime":"2024-01-02","open":"10","high":"11","low":"9","close":"10.5","volume":"200"}]}`))
	}))
	defer srv.Close()

	f := NewTwelveDataFetcher(testClient(), "k")
	f.BaseURL = srv.URL

	weekly, err := f.FetchWeeklyBars(context.Background(), "AAPL", "1mo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(weekly) != 1 {
		t.Fatalf("expected one aggregated week, got %d", len(weekly))
	}
	w := weekly[0]
	if w.Open != 10 || w.Close != 11.5 || w.High != 12 || w.Low != 9 || w.Volume != 500 {
		t.Errorf("unexpected weekly bar: %+v", w)
	}
}

func TestCollector_LoadInternational(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	c := NewCollector(&MockFetcher{Price: 150, End: end}, nil)

	s, err := c.Load(context.Background(), " aapl ", model.MarketInternational, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Symbol != "AAPL" || s.Source != "mock" {
		t.Errorf("symbol=%s source=%s", s.Symbol, s.Source)
	}
	if len(s.Bars) != 252 {
		t.Errorf("expected 252 bars for 1y, got %d", len(s.Bars))
	}
	if !s.Bars[len(s.Bars)-1].Time.Equal(end) {
		t.Errorf("last bar %v, want %v", s.Bars[len(s.Bars)-1].Time, end)
	}
}

func TestCollector_LoadRejectsBadInput(t *testing.T) {
	c := NewCollector(&MockFetcher{}, nil)
	if _, err := c.Load(context.Background(), "", model.MarketInternational, "1y"); err == nil {
		t.Error("expected error for empty ticker")
	}
	if _, err := c.Load(context.Background(), "AAPL", model.MarketInternational, "7y"); err == nil {
		t.Error("expected error for invalid period")
	}
}

func TestCollector_LoadNoData(t *testing.T) {
	c := NewCollector(&MockFetcher{Bars: map[string][]model.OHLCV{}}, nil)

	_, err := c.Load(context.Background(), "GONE", model.MarketInternational, "1y")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	want := "No data found for ticker GONE. The symbol may be delisted or invalid."
	if err.Error() != want {
		t.Errorf("message = %q", err.Error())
	}
}

func TestCollector_WeeklyBars(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	c := NewCollector(&MockFetcher{Bars: map[string][]model.OHLCV{"AAPL": GenerateBars(100, 260, end)}}, nil)

	weekly, err := c.WeeklyBars(context.Background(), "AAPL", "")
	if err != nil {
		t.Fatalf("WeeklyBars: %v", err)
	}
	if len(weekly) < 50 || len(weekly) > 54 {
		t.Errorf("weeks = %d for a year of daily bars", len(weekly))
	}

	if _, err := c.WeeklyBars(context.Background(), "GONE", "1y"); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestCollector_LoadDropsInvalidBars(t *testing.T) {
	bars := GenerateBars(100, 30, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	bars[3].High = bars[3].Low - 1
	bars[7].Close = math.NaN()
	c := NewCollector(&MockFetcher{Bars: map[string][]model.OHLCV{"MSFT": bars}}, nil)

	s, err := c.Load(context.Background(), "MSFT", model.MarketInternational, "1y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Bars) != 28 {
		t.Errorf("expected 28 bars, got %d", len(s.Bars))
	}
}

func TestCollector_IndianResolution(t *testing.T) {
	bars := GenerateBars(2500, 40, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	tests := []struct {
		name   string
		known  string
		ticker string
		want   string
	}{
		{"nse first", "RELIANCE.NS", "reliance", "RELIANCE.NS"},
		{"bse fallback", "RELIANCE.BO", "RELIANCE", "RELIANCE.BO"},
		{"explicit suffix", "TCS.BO", "TCS.BO", "TCS.BO"},
		{"index", "^NSEI", "^NSEI", "^NSEI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector(&MockFetcher{Bars: map[string][]model.OHLCV{tt.known: bars}}, nil)
			s, err := c.Load(context.Background(), tt.ticker, model.MarketIndian, "3mo")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Symbol != tt.want {
				t.Errorf("symbol = %s, want %s", s.Symbol, tt.want)
			}
		})
	}
}

func TestCollector_IndianNotFound(t *testing.T) {
	c := NewCollector(&MockFetcher{Bars: map[string][]model.OHLCV{}}, nil)
	_, err := c.Load(context.Background(), "NOPE", model.MarketIndian, "1y")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if !strings.Contains(err.Error(), "Try adding .NS (NSE) or .BO (BSE) suffix.") {
		t.Errorf("message = %q", err.Error())
	}
}

type failingQuoter struct{}

func (failingQuoter) FetchQuote(context.Context, string) (*model.Quote, error) {
	return nil, errors.New("rate limited")
}

func TestCollector_QuoteFallsBackToPrice(t *testing.T) {
	bars := GenerateBars(100, 10, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	c := NewCollector(&MockFetcher{Bars: map[string][]model.OHLCV{"IBM": bars}}, failingQuoter{})

	q, err := c.Quote(context.Background(), "ibm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Symbol != "IBM" || q.Price != bars[len(bars)-1].Close {
		t.Errorf("unexpected quote: %+v", q)
	}
}

func TestGenerateBars_Weekdays(t *testing.T) {
	bars := GenerateBars(100, 15, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)) // Sunday
	for _, b := range bars {
		if wd := b.Time.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("weekend bar at %v", b.Time)
		}
	}
	if bars[len(bars)-1].Time.Weekday() != time.Friday {
		t.Errorf("last bar should be the Friday before end")
	}
}
