package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"StockLens/internal/calculator"
	"StockLens/internal/logger"
	"StockLens/internal/model"
)

// FinanceGoFetcher implements Fetcher and Quoter on top of piquette/finance-go.
type FinanceGoFetcher struct {
	now func() time.Time
	log zerolog.Logger
}

// NewFinanceGoFetcher creates a finance-go backed fetcher.
func NewFinanceGoFetcher() *FinanceGoFetcher {
	return &FinanceGoFetcher{now: time.Now, log: logger.Component("financego")}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

func decimalToFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func (f *FinanceGoFetcher) FetchDailyBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	end := f.now()
	start := periodStart(period, end)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	bars := make([]model.OHLCV, 0, periodTradingDays(period))
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar := iter.Bar()
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:   decimalToFloat(bar.Open),
			High:   decimalToFloat(bar.High),
			Low:    decimalToFloat(bar.Low),
			Close:  decimalToFloat(bar.Close),
			Volume: float64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("financego chart %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("financego %s: %w", symbol, ErrNoData)
	}
	f.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("chart fetched")
	return bars, nil
}

// FetchWeeklyBars aggregates daily bars since the chart endpoint is only
// queried at daily granularity.
func (f *FinanceGoFetcher) FetchWeeklyBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	daily, err := f.FetchDailyBars(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	return calculator.ResampleWeekly(daily), nil
}

func (f *FinanceGoFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	q, err := f.FetchQuote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

func (f *FinanceGoFetcher) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("financego quote %s: %w", symbol, err)
	}
	if q == nil {
		return nil, fmt.Errorf("financego quote %s: %w", symbol, ErrNoData)
	}
	return &model.Quote{
		Symbol:   symbol,
		Name:     q.ShortName,
		Price:    q.RegularMarketPrice,
		Exchange: q.FullExchangeName,
		Currency: q.CurrencyID,
		State:    string(q.MarketState),
		Type:     string(q.QuoteType),
	}, nil
}
