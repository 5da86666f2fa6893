package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"StockLens/internal/analyzer"
	"StockLens/internal/collector"
	"StockLens/internal/format"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/news"
	"StockLens/internal/recorder"
	"StockLens/internal/watchlist"
)

var testEnd = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

type stubFundamentals struct{}

func (stubFundamentals) Fetch(_ context.Context, symbol string) (*model.Fundamentals, error) {
	if symbol == "FAIL" {
		return nil, errors.New("upstream exploded")
	}
	return &model.Fundamentals{Symbol: symbol, LongName: symbol + " Corp", FetchedAt: testEnd}, nil
}

type stubNews struct{}

func (stubNews) Name() string { return news.SourceYahoo }

func (stubNews) Fetch(_ context.Context, ticker string) ([]model.Article, error) {
	return []model.Article{{Title: ticker + " posts record profit"}}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	fetcher := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		"AAPL": collector.GenerateBars(150, 260, testEnd),
	}}
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rec.Close() })

	m := metrics.New()
	a := analyzer.New(collector.NewCollector(fetcher, nil), stubFundamentals{},
		news.NewService(nil, time.Minute, stubNews{}), rec, m)
	wl, err := watchlist.NewManager(filepath.Join(t.TempDir(), "wl.json"), nil, model.MarketInternational)
	if err != nil {
		t.Fatal(err)
	}

	s := New(a, wl, nil, m, Options{Version: "test"})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, s
}

func do(t *testing.T, method, url string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestStatusCodes(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", http.MethodGet, "/api/v1/health", 200},
		{"suggestions", http.MethodGet, "/api/v1/markets/indian/suggestions", 200},
		{"dashboard", http.MethodGet, "/api/v1/stocks/AAPL?period=1y", 200},
		{"invalid ticker", http.MethodGet, "/api/v1/stocks/BAD$$", 400},
		{"bad market", http.MethodGet, "/api/v1/stocks/AAPL?market=mars", 400},
		{"bad period", http.MethodGet, "/api/v1/stocks/AAPL?period=7y", 400},
		{"no data", http.MethodGet, "/api/v1/stocks/NOPE", 404},
		{"fundamentals", http.MethodGet, "/api/v1/stocks/AAPL/fundamentals", 200},
		{"fundamentals upstream", http.MethodGet, "/api/v1/stocks/FAIL/fundamentals", 502},
		{"news", http.MethodGet, "/api/v1/stocks/AAPL/news", 200},
		{"news bad source", http.MethodGet, "/api/v1/stocks/AAPL/news?source=tabloid", 400},
		{"unwatch missing", http.MethodDelete, "/api/v1/watchlist/MSFT", 404},
		{"metrics", http.MethodGet, "/metrics", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.path, nil, "")
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.want, body)
			}
			if tt.want >= 400 {
				var e map[string]string
				if err := json.Unmarshal(body, &e); err != nil || e["error"] == "" {
					t.Errorf("error body = %s", body)
				}
			}
		})
	}
}

func TestDashboardAndHistory(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/stocks/aapl?rows=false", nil, "")
	if resp.StatusCode != 200 {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var d struct {
		Symbol string                 `json:"symbol"`
		Recent []model.IndicatorRow   `json:"recent"`
		Rows   []model.IndicatorRow   `json:"rows"`
		Report *model.TechnicalReport `json:"report"`
	}
	if err := json.Unmarshal(body, &d); err != nil {
		t.Fatal(err)
	}
	if d.Symbol != "AAPL" || len(d.Recent) != 5 || d.Rows != nil || d.Report == nil {
		t.Errorf("dashboard = %+v", d)
	}

	_, body = do(t, http.MethodGet, ts.URL+"/api/v1/stocks/AAPL/history", nil, "")
	var h struct {
		Reports []recorder.ReportSummary `json:"reports"`
	}
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatal(err)
	}
	if len(h.Reports) != 1 || h.Reports[0].ID != d.Report.ID {
		t.Errorf("history = %+v", h.Reports)
	}

	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, body = do(t, http.MethodGet, ts.URL+"/api/v1/stocks/AAPL/history?since=2024-06-01", nil, "")
	var hp struct {
		Prices []model.OHLCV `json:"prices"`
	}
	if err := json.Unmarshal(body, &hp); err != nil {
		t.Fatal(err)
	}
	if len(hp.Prices) == 0 {
		t.Fatal("history returned no stored prices")
	}
	for _, b := range hp.Prices {
		if b.Time.Before(since) {
			t.Errorf("price %s predates since", b.Time.Format("2006-01-02"))
		}
	}
	if last := hp.Prices[len(hp.Prices)-1].Time; !last.Equal(testEnd) {
		t.Errorf("last stored price = %s, want %s", last, testEnd)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/stocks/AAPL/history?since=June", nil, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad since status = %d", resp.StatusCode)
	}
}

func TestErrorHints(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/stocks/BAD$$", format.ErrorMessages["invalid_ticker"]},
		{"/api/v1/stocks/NOPE", format.ErrorMessages["no_data"]},
		{"/api/v1/stocks/FAIL/fundamentals", format.ErrorMessages["api_error"]},
		{"/api/v1/stocks/AAPL/news?source=tabloid", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, body := do(t, http.MethodGet, ts.URL+tt.path, nil, "")
			var e map[string]string
			if err := json.Unmarshal(body, &e); err != nil {
				t.Fatal(err)
			}
			if e["hint"] != tt.want {
				t.Errorf("hint = %q, want %q", e["hint"], tt.want)
			}
		})
	}
}

func TestExports(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/stocks/AAPL/technical/export", nil, "")
	if resp.StatusCode != 200 || resp.Header.Get("Content-Type") != "text/csv" {
		t.Fatalf("status %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "technical_analysis_20240628.csv") {
		t.Errorf("disposition = %q", cd)
	}
	if !bytes.HasPrefix(body, []byte("Date,Open,High,Low,Close,Volume,SMA_20")) {
		t.Errorf("csv starts %q", body[:40])
	}
	if lines := bytes.Count(body, []byte("\n")); lines != 261 {
		t.Errorf("csv lines = %d, want 261", lines)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/api/v1/stocks/AAPL/fundamentals/export", nil, "")
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "fundamental_analysis_AAPL.csv") {
		t.Errorf("disposition = %q", cd)
	}
	if !bytes.Contains(body, []byte("AAPL Corp")) {
		t.Errorf("fundamentals csv = %s", body)
	}
}

func multipartCSV(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	ts, _ := newTestServer(t)

	var csv strings.Builder
	csv.WriteString("Date,Open,High,Low,Close,Volume\n")
	for _, b := range collector.GenerateBars(80, 60, testEnd) {
		fmt.Fprintf(&csv, "%s,%.4f,%.4f,%.4f,%.4f,%.0f\n", b.Time.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.Volume)
	}

	body, ct := multipartCSV(t, "tcs.csv", csv.String())
	resp, data := do(t, http.MethodPost, ts.URL+"/api/v1/upload", body, ct)
	if resp.StatusCode != 200 {
		t.Fatalf("status %d: %s", resp.StatusCode, data)
	}
	var res struct {
		Data      []model.OHLCV           `json:"data"`
		Quality   struct{ Records int }   `json:"quality"`
		Dashboard struct{ Symbol string } `json:"dashboard"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 60 || res.Quality.Records != 60 || res.Dashboard.Symbol != "TCS" {
		t.Errorf("upload result: data=%d records=%d symbol=%q", len(res.Data), res.Quality.Records, res.Dashboard.Symbol)
	}

	body, ct = multipartCSV(t, "bad.csv", "date,open\n2024-01-02,1\n")
	if resp, data := do(t, http.MethodPost, ts.URL+"/api/v1/upload", body, ct); resp.StatusCode != 400 {
		t.Errorf("missing columns: status %d: %s", resp.StatusCode, data)
	}

	body, ct = multipartCSV(t, "prices.xlsx", "x")
	if resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/upload", body, ct); resp.StatusCode != 400 {
		t.Errorf("non-csv: status %d", resp.StatusCode)
	}

	if resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/upload?market=mars", nil, ""); resp.StatusCode != 400 {
		t.Errorf("bad market: status %d", resp.StatusCode)
	}
}

func TestWatchlistRoutes(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/watchlist", strings.NewReader(`{"ticker":"reliance.ns","market":"indian"}`), "application/json")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/watchlist/AAPL", nil, ""); resp.StatusCode != http.StatusCreated {
		t.Fatalf("add by path status = %d", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/watchlist/AAPL", nil, ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate status = %d", resp.StatusCode)
	}

	_, body := do(t, http.MethodGet, ts.URL+"/api/v1/watchlist", nil, "")
	var list struct {
		Entries []model.WatchEntry `json:"entries"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Entries) != 2 || list.Entries[0].Ticker != "RELIANCE.NS" || list.Entries[0].Market != model.MarketIndian {
		t.Errorf("entries = %+v", list.Entries)
	}

	if resp, _ := do(t, http.MethodDelete, ts.URL+"/api/v1/watchlist/AAPL", nil, ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
}

func TestWebSocket(t *testing.T) {
	ts, s := newTestServer(t)
	if _, err := s.watchlist.Add("AAPL", model.MarketInternational); err != nil {
		t.Fatal(err)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snap struct {
		Type string             `json:"type"`
		Data []model.WatchEntry `json:"data"`
	}
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Type != "snapshot" || len(snap.Data) != 1 || snap.Data[0].Ticker != "AAPL" {
		t.Fatalf("snapshot = %+v", snap)
	}

	// Registration happens right after the upgrade; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Hub().Broadcast(model.WatchUpdate{Ticker: "AAPL", Signal: model.ActionBuy, Changed: true})

	var upd struct {
		Type string            `json:"type"`
		Data model.WatchUpdate `json:"data"`
	}
	if err := conn.ReadJSON(&upd); err != nil {
		t.Fatal(err)
	}
	if upd.Type != "update" || upd.Data.Signal != model.ActionBuy || !upd.Data.Changed {
		t.Errorf("update = %+v", upd)
	}
}
