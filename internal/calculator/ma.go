package calculator

import (
	"errors"
	"math"

	talib "github.com/markcheno/go-talib"

	"StockLens/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the rolling simple average, NaN until period values exist.
// Input must be free of NaN.
func SMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nanSeries(len(values))
	}
	out := talib.Sma(values, period)
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// EMASeries is an exponential average with multiplier 2/(period+1), seeded
// with the first finite value. Leading NaNs are skipped and output stays NaN
// until period observations have been seen.
func EMASeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)

	start := -1
	for i, v := range values {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 {
		return out
	}

	ema := values[start]
	for i := start; i < len(values); i++ {
		if i > start {
			ema = alpha*values[i] + (1-alpha)*ema
		}
		if i-start+1 >= period {
			out[i] = ema
		}
	}
	return out
}

// rollingMean averages each window and yields NaN when the window holds a NaN.
func rollingMean(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractVolumes(bars []model.OHLCV) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}
