package collector

import (
	"context"
	"errors"
	"strings"

	"StockLens/internal/model"
)

// IndianSuggestions lists popular NSE tickers by category.
var IndianSuggestions = map[string][]string{
	"Large Cap": {"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "INFY.NS", "HINDUNILVR.NS"},
	"Mid Cap":   {"BAJFINANCE.NS", "KOTAKBANK.NS", "MARUTI.NS", "TITAN.NS", "ASIANPAINT.NS"},
	"IT Stocks": {"TCS.NS", "INFY.NS", "WIPRO.NS", "HCLTECH.NS", "TECHM.NS"},
	"Banking":   {"HDFCBANK.NS", "ICICIBANK.NS", "KOTAKBANK.NS", "SBIN.NS", "AXISBANK.NS"},
	"Indices":   {"^NSEI", "^BSESN"},
}

// HasExchangeSuffix reports whether ticker already names NSE or BSE.
func HasExchangeSuffix(ticker string) bool {
	t := strings.ToUpper(ticker)
	return strings.HasSuffix(t, ".NS") || strings.HasSuffix(t, ".BO")
}

// resolveIndian returns the bars for the first of TICKER.NS and TICKER.BO
// that has data, along with the symbol that matched.
func (c *Collector) resolveIndian(ctx context.Context, ticker, period string) (string, []model.OHLCV, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	candidates := []string{ticker}
	if !HasExchangeSuffix(ticker) && !strings.HasPrefix(ticker, "^") {
		candidates = []string{ticker + ".NS", ticker + ".BO"}
	}

	for _, sym := range candidates {
		bars, err := c.Fetcher.FetchDailyBars(ctx, sym, period)
		if err == nil && len(bars) > 0 {
			return sym, bars, nil
		}
		if err != nil && !errors.Is(err, ErrNoData) {
			c.log.Debug().Err(err).Str("symbol", sym).Msg("indian candidate failed")
		}
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
	}
	return "", nil, &NoDataError{Ticker: ticker, Indian: true}
}
