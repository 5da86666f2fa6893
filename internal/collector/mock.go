package collector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// MockFetcher returns deterministic data for development and testing.
// When Bars is set only the listed symbols exist.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.OHLCV
	End   time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) bars(symbol string, count int) ([]model.OHLCV, error) {
	if m.Bars != nil {
		b, ok := m.Bars[strings.ToUpper(symbol)]
		if !ok || len(b) == 0 {
			return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
		}
		return b, nil
	}
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return GenerateBars(m.Price, count, end), nil
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol, period string) ([]model.OHLCV, error) {
	return m.bars(symbol, periodTradingDays(period))
}

func (m *MockFetcher) FetchWeeklyBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	daily, err := m.FetchDailyBars(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	return calculator.ResampleWeekly(daily), nil
}

func (m *MockFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	bars, err := m.bars(symbol, 5)
	if err != nil {
		return 0, err
	}
	return bars[len(bars)-1].Close, nil
}

// GenerateBars builds count weekday bars ending at end. Prices follow a slow
// drift plus a sine wave around basePrice so every indicator has movement.
func GenerateBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	if basePrice <= 0 {
		basePrice = 100
	}
	days := make([]time.Time, 0, count)
	for d := end; len(days) < count; d = d.AddDate(0, 0, -1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d)
	}

	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001 + 0.05*math.Sin(float64(i)/7))
		bars[i] = model.OHLCV{
			Time:   days[count-1-i],
			Open:   p * 0.999,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: 1_000_000 + 250_000*math.Cos(float64(i)/5),
		}
	}
	return bars
}
