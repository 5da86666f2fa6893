package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesObservations(t *testing.T) {
	m := New()
	m.ObserveFetch("yahoo", time.Now(), nil)
	m.ObserveFetch("yahoo", time.Now(), errors.New("boom"))
	m.ObserveAnalysis("BUY")
	m.ObserveArticles("finnhub", 7)
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.SetWatchlistSize(3)
	m.ObserveNotification(nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		`stocklens_fetch_total{outcome="ok",provider="yahoo"} 1`,
		`stocklens_fetch_total{outcome="error",provider="yahoo"} 1`,
		`stocklens_analyses_total{overall="BUY"} 1`,
		`stocklens_news_articles_total{source="finnhub"} 7`,
		`stocklens_news_cache_total{result="hit"} 1`,
		`stocklens_watchlist_size 3`,
		`stocklens_notifications_total{outcome="sent"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("x", time.Now(), nil)
	m.ObserveAnalysis("SELL")
	m.ObserveArticles("x", 1)
	m.ObserveCache(true)
	m.SetWatchlistSize(1)
	m.ObserveNotification(nil)
}
