package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/calculator"
	"StockLens/internal/httpclient"
	"StockLens/internal/logger"
	"StockLens/internal/model"
)

const twelveDataURL = "https://api.twelvedata.com"

// TwelveDataFetcher implements Fetcher using the TwelveData REST API.
type TwelveDataFetcher struct {
	BaseURL string
	APIKey  string
	Client  *httpclient.Client
	log     zerolog.Logger
}

// NewTwelveDataFetcher creates a new TwelveData fetcher.
func NewTwelveDataFetcher(client *httpclient.Client, apiKey string) *TwelveDataFetcher {
	return &TwelveDataFetcher{
		BaseURL: twelveDataURL,
		APIKey:  apiKey,
		Client:  client,
		log:     logger.Component("twelvedata_client"),
	}
}

func (f *TwelveDataFetcher) Name() string { return "twelvedata" }

type twelveValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

type twelveResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Values  []twelveValue `json:"values"`
}

func (f *TwelveDataFetcher) FetchDailyBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	return f.fetchSeries(ctx, symbol, "1day", periodTradingDays(period))
}

func (f *TwelveDataFetcher) FetchWeeklyBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	bars, err := f.fetchSeries(ctx, symbol, "1week", periodTradingDays(period)/5+1)
	if err != nil {
		// Some plans only expose daily bars; aggregate them instead.
		daily, dailyErr := f.FetchDailyBars(ctx, symbol, period)
		if dailyErr != nil {
			return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
		}
		f.log.Warn().Err(err).Str("symbol", symbol).Msg("weekly series unavailable, aggregating daily bars")
		return calculator.ResampleWeekly(daily), nil
	}
	return bars, nil
}

func (f *TwelveDataFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var result struct {
		Price   string `json:"price"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	q := url.Values{"symbol": {symbol}, "apikey": {f.APIKey}}
	if err := f.Client.GetJSON(ctx, f.BaseURL+"/price", q, &result); err != nil {
		return 0, fmt.Errorf("twelvedata price: %w", err)
	}
	if result.Status == "error" {
		return 0, fmt.Errorf("twelvedata price: %s", result.Message)
	}
	price, err := strconv.ParseFloat(result.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("twelvedata price %q: %w", result.Price, err)
	}
	return price, nil
}

func (f *TwelveDataFetcher) fetchSeries(ctx context.Context, symbol, interval string, count int) ([]model.OHLCV, error) {
	if count > 5000 {
		count = 5000
	}
	q := url.Values{
		"symbol":     {symbol},
		"interval":   {interval},
		"outputsize": {strconv.Itoa(count)},
		"apikey":     {f.APIKey},
	}

	var data twelveResponse
	if err := f.Client.GetJSON(ctx, f.BaseURL+"/time_series", q, &data); err != nil {
		return nil, fmt.Errorf("twelvedata time_series: %w", err)
	}
	if data.Status == "error" {
		f.log.Error().Str("symbol", symbol).Str("message", data.Message).Msg("Twelve Data API error")
		return nil, fmt.Errorf("twelvedata api error: %s", data.Message)
	}
	if len(data.Values) == 0 {
		return nil, fmt.Errorf("twelvedata %s: %w", symbol, ErrNoData)
	}

	bars := make([]model.OHLCV, 0, len(data.Values))
	for _, v := range data.Values {
		bar, err := v.toBar()
		if err != nil {
			f.log.Warn().Err(err).Str("datetime", v.Datetime).Msg("skipping malformed bar")
			continue
		}
		bars = append(bars, bar)
	}
	// TwelveData returns newest first.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	f.log.Debug().Int("count", len(bars)).Str("interval", interval).Msg("fetched candles")
	return bars, nil
}

func (v twelveValue) toBar() (model.OHLCV, error) {
	layout := "2006-01-02"
	if len(v.Datetime) > len(layout) {
		layout = "2006-01-02 15:04:05"
	}
	t, err := time.Parse(layout, v.Datetime)
	if err != nil {
		return model.OHLCV{}, err
	}
	var vals [5]float64
	for i, s := range []string{v.Open, v.High, v.Low, v.Close, v.Volume} {
		if s == "" && i == 4 {
			continue // indices have no volume
		}
		if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
			return model.OHLCV{}, err
		}
	}
	return model.OHLCV{Time: t, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4]}, nil
}
