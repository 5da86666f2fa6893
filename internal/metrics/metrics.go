// Package metrics holds the Prometheus collectors for StockLens.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	FetchTotal     *prometheus.CounterVec // labels: provider, outcome
	FetchDuration  *prometheus.HistogramVec
	AnalysesTotal  *prometheus.CounterVec // labels: overall
	ArticlesTotal  *prometheus.CounterVec // labels: source
	NewsCacheTotal *prometheus.CounterVec // labels: result=hit|miss
	WatchlistSize  prometheus.Gauge
	Notifications  *prometheus.CounterVec // labels: outcome
}

// New registers all collectors on a fresh registry, so tests and
// multiple servers in one process do not collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_fetch_total",
			Help: "Upstream data fetches by provider and outcome",
		}, []string{"provider", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stocklens_fetch_duration_seconds",
			Help:    "Upstream fetch latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_analyses_total",
			Help: "Technical analyses completed by overall signal",
		}, []string{"overall"}),
		ArticlesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_news_articles_total",
			Help: "News articles returned by source",
		}, []string{"source"}),
		NewsCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_news_cache_total",
			Help: "News cache lookups by result",
		}, []string{"result"}),
		WatchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stocklens_watchlist_size",
			Help: "Number of watched tickers",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_notifications_total",
			Help: "Telegram notifications by outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.AnalysesTotal,
		m.ArticlesTotal,
		m.NewsCacheTotal,
		m.WatchlistSize,
		m.Notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFetch records one upstream call.
func (m *Metrics) ObserveFetch(provider string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchTotal.WithLabelValues(provider, outcome).Inc()
	m.FetchDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveAnalysis(overall string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(overall).Inc()
}

func (m *Metrics) ObserveArticles(source string, n int) {
	if m == nil {
		return
	}
	m.ArticlesTotal.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.NewsCacheTotal.WithLabelValues("hit").Inc()
	} else {
		m.NewsCacheTotal.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) SetWatchlistSize(n int) {
	if m == nil {
		return
	}
	m.WatchlistSize.Set(float64(n))
}

func (m *Metrics) ObserveNotification(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Notifications.WithLabelValues("error").Inc()
		return
	}
	m.Notifications.WithLabelValues("sent").Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
