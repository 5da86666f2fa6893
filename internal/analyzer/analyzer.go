// Package analyzer ties data loading, indicators, signals, fundamentals and
// news together for one ticker.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/format"
	"StockLens/internal/fundamentals"
	"StockLens/internal/ingest"
	"StockLens/internal/logger"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/news"
	"StockLens/internal/recorder"
	"StockLens/internal/strategy"
	"StockLens/internal/tracing"
)

// ErrFundamentalsDisabled is returned when no fundamentals fetcher is configured.
var ErrFundamentalsDisabled = errors.New("fundamental analysis is disabled")

// Analyzer orchestrates one analysis request. Recorder and Metrics failures
// never fail a request.
type Analyzer struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics

	fund fundamentals.Fetcher // nil disables fundamentals
	news *news.Service

	log zerolog.Logger
	now func() time.Time
}

// New creates an Analyzer. A nil recorder is replaced with a no-op one.
func New(c *collector.Collector, f fundamentals.Fetcher, n *news.Service, r recorder.Recorder, m *metrics.Metrics) *Analyzer {
	if r == nil {
		r = recorder.NewNoopRecorder()
	}
	return &Analyzer{
		Collector: c,
		Recorder:  r,
		Metrics:   m,
		fund:      f,
		news:      n,
		log:       logger.Component("analyzer"),
		now:       time.Now,
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracing.StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Analyze loads ticker over period and builds its dashboard.
func (a *Analyzer) Analyze(ctx context.Context, ticker string, market model.Market, period string) (*Dashboard, error) {
	if market == "" {
		market = model.MarketInternational
	}
	ctx, span := startSpan(ctx, "analyzer.Analyze",
		attribute.String("ticker", ticker),
		attribute.String("market", string(market)),
		attribute.String("period", period),
	)
	defer span.End()

	start := time.Now()
	series, err := a.Collector.Load(ctx, ticker, market, period)
	a.Metrics.ObserveFetch(a.Collector.Fetcher.Name(), start, err)
	if err != nil {
		return nil, fail(span, err)
	}

	d, err := a.build(ctx, series)
	if err != nil {
		return nil, fail(span, err)
	}
	d.Period = period
	if d.Period == "" {
		d.Period = model.DefaultPeriod
	}

	a.weeklyRSI(ctx, d, period)

	if q, err := a.Collector.Quote(ctx, series.Symbol); err != nil {
		a.log.Warn().Err(err).Str("symbol", series.Symbol).Msg("overview lookup failed")
	} else {
		d.Overview.Quote = *q
		d.Overview.Price = series.Last().Close
	}

	a.recordPrices(series)
	a.recordReport(d.Report)
	return d, nil
}

// AnalyzeSeries builds a dashboard from an already loaded series.
func (a *Analyzer) AnalyzeSeries(ctx context.Context, series *model.PriceSeries) (*Dashboard, error) {
	ctx, span := startSpan(ctx, "analyzer.AnalyzeSeries", attribute.String("symbol", series.Symbol))
	defer span.End()

	d, err := a.build(ctx, series)
	if err != nil {
		return nil, fail(span, err)
	}
	a.recordPrices(series)
	a.recordReport(d.Report)
	return d, nil
}

// Upload cleans an uploaded CSV and analyzes it.
func (a *Analyzer) Upload(ctx context.Context, r io.Reader, symbol string, market model.Market) (*UploadResult, error) {
	if market == "" {
		market = model.MarketInternational
	}
	series, report, err := ingest.Process(r, symbol, market)
	if err != nil {
		return nil, err
	}
	d, err := a.AnalyzeSeries(ctx, series)
	if err != nil {
		return nil, err
	}
	return &UploadResult{
		Data:      series.Bars,
		Quality:   ingest.QualityReport(series.Bars),
		Clean:     report,
		Dashboard: d,
	}, nil
}

func (a *Analyzer) build(ctx context.Context, series *model.PriceSeries) (*Dashboard, error) {
	_, span := startSpan(ctx, "analyzer.indicators", attribute.Int("bars", len(series.Bars)))
	defer span.End()

	if len(series.Bars) == 0 {
		return nil, &collector.NoDataError{Ticker: series.Symbol, Indian: series.Market == model.MarketIndian}
	}

	ind := calculator.Compute(series)
	snap := calculator.Latest(series, ind)
	rows := calculator.Rows(series.Bars, ind)

	report := strategy.Evaluate(series.Symbol, &snap)
	report.ID = uuid.NewString()
	report.GeneratedAt = a.now().UTC()
	score := strategy.Score(&snap)

	last := series.Last()
	d := &Dashboard{
		Symbol: series.Symbol,
		Market: series.Market,
		Source: series.Source,
		Overview: Overview{
			Quote:     model.Quote{Symbol: series.Symbol, Name: series.Symbol, Price: last.Close},
			High52w:   snap.High52w,
			Low52w:    snap.Low52w,
			High30d:   snap.High30d,
			Low30d:    snap.Low30d,
			WeeklyRSI: snap.WeeklyRSI,
			Bars:      len(series.Bars),
			Start:     series.Bars[0].Time.Format("2006-01-02"),
			End:       last.Time.Format("2006-01-02"),
		},
		QuickSignals: strategy.QuickSignals(&snap),
		Score:        score,
		Report:       report,
		Latest:       rows[len(rows)-1],
		Rows:         rows,
		Series:       series,
		Indicators:   ind,
	}
	if change, pct, ok := format.PriceChange(snap.Close, snap.PrevClose); ok {
		d.Overview.Change, d.Overview.ChangePct = model.Opt(change), model.Opt(pct)
	}
	if n := len(rows); n > RecentRows {
		d.Recent = rows[n-RecentRows:]
	} else {
		d.Recent = rows
	}

	a.Metrics.ObserveAnalysis(string(report.Overall))
	a.log.Info().Str("report", strategy.Describe(report)).Str("bias", string(score.Overall)).Msg("analysis complete")
	return d, nil
}

// Fundamentals fetches and formats the company fundamentals for ticker.
func (a *Analyzer) Fundamentals(ctx context.Context, ticker string) (*model.Fundamentals, *fundamentals.Report, error) {
	if a.fund == nil {
		return nil, nil, ErrFundamentalsDisabled
	}
	symbol, err := format.ValidateTicker(ticker)
	if err != nil {
		return nil, nil, err
	}
	ctx, span := startSpan(ctx, "analyzer.Fundamentals", attribute.String("ticker", symbol))
	defer span.End()

	start := time.Now()
	f, err := a.fund.Fetch(ctx, symbol)
	a.Metrics.ObserveFetch("fundamentals", start, err)
	if err != nil {
		return nil, nil, fail(span, fmt.Errorf("fundamentals %s: %w", symbol, err))
	}

	if err := a.Recorder.RecordFundamentals(f); err != nil {
		a.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to record fundamentals")
	}
	return f, fundamentals.Analyze(f), nil
}

// News returns the articles and sentiment for ticker from source.
// An empty source uses the service default.
func (a *Analyzer) News(ctx context.Context, source, ticker string) (*model.NewsResult, error) {
	symbol, err := format.ValidateTicker(ticker)
	if err != nil {
		return nil, err
	}
	if a.news == nil {
		return nil, fmt.Errorf("%w: no news providers configured", news.ErrUnknownSource)
	}
	ctx, span := startSpan(ctx, "analyzer.News", attribute.String("ticker", symbol), attribute.String("source", source))
	defer span.End()

	start := time.Now()
	res, err := a.news.Fetch(ctx, source, symbol)
	if err != nil {
		a.Metrics.ObserveFetch("news", start, err)
		return nil, fail(span, err)
	}
	a.Metrics.ObserveCache(res.Cached)
	if !res.Cached {
		a.Metrics.ObserveFetch("news_"+res.Source, start, nil)
		if err := a.Recorder.RecordArticles(symbol, res.Source, res.Articles, res.Sentiment); err != nil {
			a.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to record articles")
		}
	}
	a.Metrics.ObserveArticles(res.Source, len(res.Articles))
	span.SetAttributes(attribute.Int("articles", res.Fetched), attribute.Bool("cached", res.Cached))
	return res, nil
}

// FundamentalsEnabled reports whether a fundamentals fetcher is configured.
func (a *Analyzer) FundamentalsEnabled() bool { return a.fund != nil }

// NewsSources lists the configured news sources.
func (a *Analyzer) NewsSources() []string {
	if a.news == nil {
		return nil
	}
	return a.news.Sources()
}

// DefaultNewsSource is the source used when a request names none.
func (a *Analyzer) DefaultNewsSource() string {
	if a.news == nil {
		return ""
	}
	return a.news.DefaultSource
}

// weeklyRSI prefers the provider's own weekly bars over daily bars
// resampled locally and keeps the resampled value when they are unusable.
func (a *Analyzer) weeklyRSI(ctx context.Context, d *Dashboard, period string) {
	weekly, err := a.Collector.WeeklyBars(ctx, d.Symbol, period)
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", d.Symbol).Msg("weekly bars unavailable, using resampled daily bars")
		return
	}
	if len(weekly) <= calculator.RSIPeriod {
		a.log.Debug().Str("symbol", d.Symbol).Int("weeks", len(weekly)).Msg("too few weekly bars for RSI")
		return
	}
	if rsi, err := calculator.CalculateRSI(weekly, calculator.RSIPeriod); err == nil {
		d.Overview.WeeklyRSI = rsi
	}
}

func (a *Analyzer) recordPrices(series *model.PriceSeries) {
	if err := a.Recorder.RecordPrices(series); err != nil {
		a.log.Warn().Err(err).Str("symbol", series.Symbol).Msg("failed to record prices")
	}
}

func (a *Analyzer) recordReport(r *model.TechnicalReport) {
	if err := a.Recorder.RecordReport(r.Symbol, r); err != nil {
		a.log.Warn().Err(err).Str("symbol", r.Symbol).Msg("failed to record report")
	}
}
