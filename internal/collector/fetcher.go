package collector

import (
	"context"
	"errors"
	"time"

	"StockLens/internal/model"
)

// ErrNoData is returned when a source has no bars for a symbol.
var ErrNoData = errors.New("no data")

// Fetcher defines the interface for fetching market data.
// period is one of model.Periods.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error)
	FetchWeeklyBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error)
	FetchCurrentPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// Quoter is implemented by fetchers that can describe the company behind a symbol.
type Quoter interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// periodStart returns the first date covered by a period ending at now.
func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "1mo":
		return now.AddDate(0, -1, 0)
	case "3mo":
		return now.AddDate(0, -3, 0)
	case "6mo":
		return now.AddDate(0, -6, 0)
	case "2y":
		return now.AddDate(-2, 0, 0)
	case "5y":
		return now.AddDate(-5, 0, 0)
	case "max":
		return time.Unix(0, 0)
	default:
		return now.AddDate(-1, 0, 0)
	}
}

// periodTradingDays estimates the number of daily bars in a period.
func periodTradingDays(period string) int {
	switch period {
	case "1mo":
		return 22
	case "3mo":
		return 66
	case "6mo":
		return 128
	case "2y":
		return 504
	case "5y":
		return 1260
	case "max":
		return 5000
	default:
		return 252
	}
}
