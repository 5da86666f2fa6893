package calculator

import (
	talib "github.com/markcheno/go-talib"

	"StockLens/internal/model"
)

// OBV is on-balance volume starting from the first bar's volume.
func OBV(bars []model.OHLCV) []float64 {
	if len(bars) == 0 {
		return nil
	}
	return talib.Obv(extractCloses(bars), extractVolumes(bars))
}

// VWAP is the cumulative typical-price VWAP from the first bar.
func VWAP(bars []model.OHLCV) []float64 {
	out := nanSeries(len(bars))
	var pv, vol float64
	for i, b := range bars {
		pv += b.Volume * (b.High + b.Low + b.Close) / 3
		vol += b.Volume
		if vol > 0 {
			out[i] = pv / vol
		}
	}
	return out
}

// ReportedVWAP returns the VWAP values carried on the bars themselves.
func ReportedVWAP(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.VWAP
	}
	return out
}
