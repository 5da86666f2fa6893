package news

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

	"StockLens/internal/config"
	"StockLens/internal/httpclient"
	"StockLens/internal/model"
)

func jsonServer(t *testing.T, check func(r *http.Request), body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFinnhub_SortsNewestFirst(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	srv := jsonServer(t, func(r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/company-news" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if q.Get("from") != "2024-05-03" || q.Get("to") != "2024-05-10" || q.Get("token") != "key" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
	}, `[{"datetime":1715000000,"headline":"older","source":"Reuters","summary":"a","url":"u1"},
{"datetime":1715200000,"headline":"newer","source":"CNBC","summary":"b","url":"u2","related":"AAPL"}]`)

	f := NewFinnhub("key", 2*time.Second).SetBaseURL(srv.URL)
	f.now = func() time.Time { return now }

	got, err := f.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Title != "newer" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got[0].Related) != 1 || got[0].Related[0] != "AAPL" {
		t.Errorf("related = %v", got[0].Related)
	}
}

func TestProviders_MissingKey(t *testing.T) {
	providers := []Provider{
		NewFinnhub("", time.Second),
		NewMarketAux("", time.Second),
		NewNewsAPI("", time.Second),
	}
	for _, p := range providers {
		if _, err := p.Fetch(context.Background(), "AAPL"); !errors.Is(err, ErrMissingKey) {
			t.Errorf("%s: expected ErrMissingKey, got %v", p.Name(), err)
		}
	}
}

func TestMarketAux_MapsEntities(t *testing.T) {
	srv := jsonServer(t, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbols") != "RELIANCE" || q.Get("limit") != "20" || q.Get("filter_entities") != "true" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
	}, `{"data":[{"title":"Reliance gains","description":"","snippet":"Shares rose","keywords":"oil, retail, telecom",
"url":"https://x","published_at":"2024-05-01T10:00:00.000000Z","source":"et.com",
"entities":[{"symbol":"RELIANCE.NS","sentiment_score":0.5},{"name":"Jio","sentiment_score":0.1}]}]}`)

	m := NewMarketAux("key", 2*time.Second).SetBaseURL(srv.URL)
	got, err := m.Fetch(context.Background(), "reliance.ns")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
	a := got[0]
	if a.Summary != "Shares rose" {
		t.Errorf("summary should fall back to snippet, got %q", a.Summary)
	}
	if len(a.Keywords) != 3 || a.Keywords[1] != "retail" {
		t.Errorf("keywords = %v", a.Keywords)
	}
	if len(a.Related) != 2 || a.Related[1] != "Jio" {
		t.Errorf("related = %v", a.Related)
	}
	if a.ProviderScore == nil || *a.ProviderScore < 0.299 || *a.ProviderScore > 0.301 {
		t.Errorf("provider score = %v", a.ProviderScore)
	}
}

func TestNewsAPI_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`))
	}))
	defer srv.Close()

	n := NewNewsAPI("bad", 2*time.Second).SetBaseURL(srv.URL)
	_, err := n.Fetch(context.Background(), "AAPL")
	if err == nil || !strings.Contains(err.Error(), "Your API key is invalid.") {
		t.Errorf("expected API error message, got %v", err)
	}
}

func TestNewsAPI_Query(t *testing.T) {
	srv := jsonServer(t, func(r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "TSLA stock" {
			t.Errorf("q = %q", got)
		}
	}, `{"status":"ok","articles":[{"source":{"name":"Bloomberg"},"author":"A","title":"T","description":"D","url":"u","publishedAt":"2024-05-01T10:00:00Z"}]}`)

	got, err := NewNewsAPI("key", 2*time.Second).SetBaseURL(srv.URL).Fetch(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Source != "Bloomberg" || got[0].Summary != "D" {
		t.Errorf("unexpected articles: %+v", got)
	}
}

func TestYahoo_Fetch(t *testing.T) {
	srv := jsonServer(t, nil, `{"news":[{"title":"Apple event","publisher":"Yahoo","link":"https://y","providerPublishTime":1715000000,"type":"STORY","relatedTickers":["AAPL"]}]}`)
	y := NewYahoo(httpclient.New(httpclient.Options{Timeout: 2 * time.Second, RequestsPerSec: 100}))
	y.BaseURL = srv.URL

	got, err := y.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Source != "Yahoo" || got[0].PublishedAt.Unix() != 1715000000 {
		t.Errorf("unexpected articles: %+v", got)
	}
}

func TestScraper_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/topic/infy" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
<div class="story"><h3><a href="/news/1">Infosys wins deal</a></h3><p>Large contract</p></div>
<div class="story"><h3><a href="https://other.example/2">Infosys results</a></h3><p>Profit up</p></div>
<div class="story"><h3></h3></div>
</body></html>`)
	}))
	defer srv.Close()

	s := NewScraper([]config.ScrapeSource{{
		Name:       "Test",
		BaseURL:    srv.URL,
		SearchPath: "/topic/{symbol}",
		Container:  "div.story",
		Title:      "h3 a",
		Link:       "h3 a",
		Summary:    "p",
	}}, 2*time.Second)

	got, err := s.Fetch(context.Background(), "INFY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].URL != srv.URL+"/news/1" || got[0].Summary != "Large contract" {
		t.Errorf("first article: %+v", got[0])
	}
	if got[1].URL != "https://other.example/2" {
		t.Errorf("absolute link rewritten: %s", got[1].URL)
	}
}

func TestScraper_AllSourcesFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := NewScraper([]config.ScrapeSource{{Name: "Dead", BaseURL: srv.URL, SearchPath: "/x", Container: "div", Title: "a", Link: "a"}}, time.Second)
	if _, err := s.Fetch(context.Background(), "AAPL"); err == nil {
		t.Error("expected error when every source fails")
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  plain text ", "plain text"},
		{"<p>Shares <b>rose</b>\n 5%</p>", "Shares rose 5%"},
		{"<div>a<script>var x=1</script> b</div>", "a b"},
		{"AT&amp;T earnings", "AT&T earnings"},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"), time.Minute)
	if v, ok, _ := c.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expected entry to expire")
	}
}

type stubProvider struct {
	name     string
	calls    int32
	articles []model.Article
	err      error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(context.Context, string) ([]model.Article, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.articles, s.err
}

func manyArticles(n int) []model.Article {
	out := make([]model.Article, n)
	for i := range out {
		out[i] = model.Article{Title: fmt.Sprintf("Strong gain %d", i), Summary: "<p>growth</p>"}
	}
	out[n-1].Title = "Weak outlook"
	out[n-1].Summary = "decline and loss"
	return out
}

func TestService_TruncatesAndScoresFullSet(t *testing.T) {
	yahoo := &stubProvider{name: SourceYahoo, articles: manyArticles(20)}
	finnhub := &stubProvider{name: SourceFinnhub, articles: manyArticles(20)}
	svc := NewService(nil, 0, yahoo, finnhub)

	res, err := svc.Fetch(context.Background(), "", "aapl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceYahoo || res.Ticker != "AAPL" {
		t.Errorf("source=%s ticker=%s", res.Source, res.Ticker)
	}
	if len(res.Articles) != 10 || res.Fetched != 20 {
		t.Errorf("articles=%d fetched=%d", len(res.Articles), res.Fetched)
	}
	if len(res.Sentiment.Articles) != 20 || res.Sentiment.Negative != 1 || res.Sentiment.Positive != 19 {
		t.Errorf("sentiment should cover every fetched article: %+v", res.Sentiment)
	}
	if res.Articles[0].Summary != "growth" {
		t.Errorf("summary not cleaned: %q", res.Articles[0].Summary)
	}

	res, err = svc.Fetch(context.Background(), "finnhub", "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Articles) != 15 {
		t.Errorf("finnhub should show 15, got %d", len(res.Articles))
	}
}

func TestService_Caches(t *testing.T) {
	p := &stubProvider{name: SourceYahoo, articles: manyArticles(3)}
	svc := NewService(NewMemoryCache(), time.Minute, p)

	first, err := svc.Fetch(context.Background(), SourceYahoo, "MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Fetch(context.Background(), SourceYahoo, "MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("cached flags: first=%v second=%v", first.Cached, second.Cached)
	}
	if atomic.LoadInt32(&p.calls) != 1 {
		t.Errorf("provider called %d times", p.calls)
	}
	if len(second.Articles) != 3 {
		t.Errorf("cached articles = %d", len(second.Articles))
	}
}

func TestService_Errors(t *testing.T) {
	p := &stubProvider{name: SourceFinnhub, err: fmt.Errorf("finnhub: %w", ErrMissingKey)}
	svc := NewService(nil, 0, p)

	if _, err := svc.Fetch(context.Background(), "reddit", "AAPL"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
	if _, err := svc.Fetch(context.Background(), SourceFinnhub, "AAPL"); !errors.Is(err, ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
	if got := svc.Sources(); len(got) != 1 || got[0] != SourceFinnhub {
		t.Errorf("sources = %v", got)
	}
}
