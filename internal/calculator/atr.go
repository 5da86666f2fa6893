package calculator

import (
	"math"

	"StockLens/internal/model"
)

// TrueRange is max(H-L, |H-prevC|, |L-prevC|); the first bar uses H-L.
func TrueRange(bars []model.OHLCV) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		tr[i] = b.High - b.Low
		if i == 0 {
			continue
		}
		prev := bars[i-1].Close
		tr[i] = math.Max(tr[i], math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
	}
	return tr
}

// ATR seeds with the mean of the first period true ranges and then applies
// Wilder smoothing.
func ATR(bars []model.OHLCV, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 || len(bars) < period {
		return out
	}
	tr := TrueRange(bars)

	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	out[period-1] = atr
	for i := period; i < len(bars); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = atr
	}
	return out
}
