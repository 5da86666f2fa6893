package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/httpclient"
	"StockLens/internal/logger"
	"StockLens/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client    *httpclient.Client
	BaseURL   string
	SymbolMap map[string]string // maps user-facing aliases to Yahoo tickers
	log       zerolog.Logger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(client *httpclient.Client) *YahooFetcher {
	return &YahooFetcher{
		Client:  client,
		BaseURL: yahooChartURL,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NIFTY":  "^NSEI",
			"SENSEX": "^BSESN",
		},
		log: logger.Component("yahoo"),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func at(vals []interface{}, i int) float64 {
	if i >= len(vals) {
		return 0
	}
	return toFloat(vals[i])
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, float64, error) {
	u := f.BaseURL + url.PathEscape(f.yahooSymbol(symbol))
	q := url.Values{"interval": {interval}, "range": {rng}}

	var chart yahooChart
	if err := f.Client.GetJSON(ctx, u, q, &chart); err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, 0, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
		}
		return nil, 0, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, 0, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
		}
		return nil, 0, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, 0, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		c := at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // holidays and halted sessions come back as nulls
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	f.log.Debug().Str("symbol", symbol).Str("range", rng).Int("bars", len(bars)).Msg("chart fetched")
	return bars, result.Meta.RegularMarketPrice, nil
}

func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	bars, _, err := f.fetchChart(ctx, symbol, "1d", period)
	return bars, err
}

func (f *YahooFetcher) FetchWeeklyBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	bars, _, err := f.fetchChart(ctx, symbol, "1wk", period)
	return bars, err
}

func (f *YahooFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	bars, price, err := f.fetchChart(ctx, symbol, "1d", "5d")
	if err != nil {
		return 0, err
	}
	if price > 0 {
		return price, nil
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	return bars[len(bars)-1].Close, nil
}
