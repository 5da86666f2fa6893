package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/format"
	"StockLens/internal/ingest"
	"StockLens/internal/logger"
	"StockLens/internal/model"
)

// NoDataError is returned by Load when a ticker has no usable bars.
// It matches ErrNoData under errors.Is.
type NoDataError struct {
	Ticker string
	Indian bool
}

func (e *NoDataError) Error() string {
	if e.Indian {
		return fmt.Sprintf("No data found for Indian ticker %s. Try adding .NS (NSE) or .BO (BSE) suffix.", e.Ticker)
	}
	return fmt.Sprintf("No data found for ticker %s. The symbol may be delisted or invalid.", e.Ticker)
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// Collector loads clean price history for a ticker.
type Collector struct {
	Fetcher Fetcher
	Quoter  Quoter // optional
	log     zerolog.Logger
}

// NewCollector creates a new Collector. quoter may be nil.
func NewCollector(fetcher Fetcher, quoter Quoter) *Collector {
	return &Collector{Fetcher: fetcher, Quoter: quoter, log: logger.Component("collector")}
}

// Load fetches daily bars for ticker over period and drops unusable rows.
func (c *Collector) Load(ctx context.Context, ticker string, market model.Market, period string) (*model.PriceSeries, error) {
	if period == "" {
		period = model.DefaultPeriod
	}
	if !model.ValidPeriod(period) {
		return nil, fmt.Errorf("invalid period %q", period)
	}

	var (
		symbol string
		bars   []model.OHLCV
		err    error
	)
	if market == model.MarketIndian {
		symbol, bars, err = c.resolveIndian(ctx, ticker, period)
		if err != nil {
			return nil, err
		}
	} else {
		symbol, err = format.ValidateTicker(ticker)
		if err != nil {
			return nil, err
		}
		bars, err = c.Fetcher.FetchDailyBars(ctx, symbol, period)
		if errors.Is(err, ErrNoData) {
			return nil, &NoDataError{Ticker: symbol}
		}
		if err != nil {
			return nil, fmt.Errorf("fetch daily bars %s: %w", symbol, err)
		}
	}

	clean, report, err := ingest.Clean(bars, ingest.CleanOptions{})
	if err != nil {
		return nil, &NoDataError{Ticker: symbol, Indian: market == model.MarketIndian}
	}
	if dropped := report.MissingRemoved + report.InvalidRemoved; dropped > 0 {
		c.log.Warn().Str("symbol", symbol).Int("dropped", dropped).Msg("removed unusable bars")
	}

	c.log.Info().Str("symbol", symbol).Str("source", c.Fetcher.Name()).Int("bars", len(clean)).Msg("price history loaded")
	return &model.PriceSeries{
		Symbol:    symbol,
		Market:    market,
		Source:    c.Fetcher.Name(),
		Bars:      clean,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// WeeklyBars fetches weekly bars for an already resolved symbol.
func (c *Collector) WeeklyBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	if period == "" {
		period = model.DefaultPeriod
	}
	bars, err := c.Fetcher.FetchWeeklyBars(ctx, symbol, period)
	if errors.Is(err, ErrNoData) || (err == nil && len(bars) == 0) {
		return nil, &NoDataError{Ticker: symbol}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch weekly bars %s: %w", symbol, err)
	}
	return bars, nil
}

// Quote returns the company overview for symbol. Without a Quoter, or when it
// fails, only the current price is filled in.
func (c *Collector) Quote(ctx context.Context, symbol string) (*model.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if c.Quoter != nil {
		q, err := c.Quoter.FetchQuote(ctx, symbol)
		if err == nil {
			return q, nil
		}
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("quote lookup failed, using last price")
	}
	price, err := c.Fetcher.FetchCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch current price %s: %w", symbol, err)
	}
	return &model.Quote{Symbol: symbol, Name: symbol, Price: price}, nil
}
