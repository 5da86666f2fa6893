package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/analyzer"
	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/fundamentals"
	"StockLens/internal/httpclient"
	"StockLens/internal/logger"
	"StockLens/internal/metrics"
	"StockLens/internal/news"
	"StockLens/internal/recorder"
)

// app is the set of long-lived components every subcommand works with.
type app struct {
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	recorder recorder.Recorder
	metrics  *metrics.Metrics
	closers  []io.Closer
	log      zerolog.Logger
}

// newApp wires collectors, providers and storage from cfg. A recorder that
// cannot be opened degrades to a no-op one.
func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, log: logger.Component("app")}

	client := httpclient.New(httpclient.Options{
		Timeout:         time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		RequestsPerSec:  cfg.HTTP.RequestsPerSecond,
		MaxRetryTimeout: time.Duration(cfg.HTTP.MaxRetrySeconds) * time.Second,
		Proxy:           cfg.Proxy,
	})

	fetcher, err := newFetcher(cfg, client)
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("provider", fetcher.Name()).Msg("data source")
	col := collector.NewCollector(fetcher, collector.NewFinanceGoFetcher())

	var fund fundamentals.Fetcher
	if cfg.FundamentalsEnabled() {
		fund = fundamentals.NewYahooFetcher(client)
	}

	svc := news.NewService(a.newsCache(), time.Duration(cfg.News.CacheTTLSeconds)*time.Second, newsProviders(cfg, client)...)
	svc.DefaultSource = cfg.News.DefaultSource

	rec, err := recorder.Open(cfg.Database.Driver, cfg.Database.SQLitePath, cfg.Database.PostgresDSN)
	if err != nil {
		a.log.Warn().Err(err).Str("driver", cfg.Database.Driver).Msg("init recorder failed, using noop")
		rec = recorder.NewNoopRecorder()
	}
	a.recorder = rec
	a.closers = append(a.closers, rec)

	a.metrics = metrics.New()
	a.analyzer = analyzer.New(col, fund, svc, rec, a.metrics)
	return a, nil
}

// newFetcher picks the daily-bar source named by data_source.provider.
func newFetcher(cfg *config.Config, client *httpclient.Client) (collector.Fetcher, error) {
	switch cfg.DataSource.Provider {
	case "", "yahoo":
		return collector.NewYahooFetcher(client), nil
	case "financego":
		return collector.NewFinanceGoFetcher(), nil
	case "twelvedata":
		return collector.NewTwelveDataFetcher(client, cfg.DataSource.TwelveDataAPIKey), nil
	default:
		return nil, fmt.Errorf("unsupported data provider %q", cfg.DataSource.Provider)
	}
}

// newsProviders registers every source. Keyed sources without a key stay
// registered and report news.ErrMissingKey when asked.
func newsProviders(cfg *config.Config, client *httpclient.Client) []news.Provider {
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	providers := []news.Provider{
		news.NewYahoo(client),
		news.NewMarketAux(cfg.News.MarketAuxKey, timeout),
		news.NewNewsAPI(cfg.News.NewsAPIKey, timeout),
		news.NewFinnhub(cfg.News.FinnhubKey, timeout),
	}
	if len(cfg.News.ScrapeSources) > 0 {
		providers = append(providers, news.NewScraper(cfg.News.ScrapeSources, timeout))
	}
	return providers
}

// newsCache returns the shared Redis cache when configured and reachable,
// otherwise an in-process one.
func (a *app) newsCache() news.Cache {
	if a.cfg.Cache.RedisAddr == "" {
		return news.NewMemoryCache()
	}
	rc, err := news.NewRedisCache(a.cfg.Cache.RedisAddr, a.cfg.Cache.RedisPassword, a.cfg.Cache.RedisDB)
	if err != nil {
		a.log.Warn().Err(err).Str("addr", a.cfg.Cache.RedisAddr).Msg("redis unavailable, using memory cache")
		return news.NewMemoryCache()
	}
	a.closers = append(a.closers, rc)
	return rc
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}
