package calculator

import (
	"errors"
	"math"
	"sort"

	"StockLens/internal/model"
)

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(dailyBars []model.OHLCV) (high, low float64, err error) {
	if len(dailyBars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	n := len(dailyBars)
	start := n - 252
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if dailyBars[i].High > high {
			high = dailyBars[i].High
		}
		if dailyBars[i].Low < low {
			low = dailyBars[i].Low
		}
	}
	return high, low, nil
}

// Calculate30DayRange scans the most recent 22 trading days and returns the high and low.
func Calculate30DayRange(dailyBars []model.OHLCV) (high, low float64, err error) {
	if len(dailyBars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	n := len(dailyBars)
	start := n - 22
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if dailyBars[i].High > high {
			high = dailyBars[i].High
		}
		if dailyBars[i].Low < low {
			low = dailyBars[i].Low
		}
	}
	return high, low, nil
}

// Calculate52WeekPosition returns where the current price sits within the 52-week range (0.0~1.0).
func Calculate52WeekPosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// SupportResistance scans the last lookback bars for highs and lows that are
// the extreme of their centred window. It returns up to three resistance
// levels (highest first) and three support levels (lowest first).
func SupportResistance(bars []model.OHLCV, lookback, window int) (support, resistance []float64) {
	if lookback > 0 && len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	half := window / 2
	seenHigh := map[float64]bool{}
	seenLow := map[float64]bool{}

	for i := half; i+half < len(bars); i++ {
		hh, ll := math.Inf(-1), math.Inf(1)
		for j := i - half; j <= i+half; j++ {
			hh = math.Max(hh, bars[j].High)
			ll = math.Min(ll, bars[j].Low)
		}
		if bars[i].High == hh && !seenHigh[hh] {
			seenHigh[hh] = true
			resistance = append(resistance, hh)
		}
		if bars[i].Low == ll && !seenLow[ll] {
			seenLow[ll] = true
			support = append(support, ll)
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(resistance)))
	sort.Float64s(support)
	if len(resistance) > 3 {
		resistance = resistance[:3]
	}
	if len(support) > 3 {
		support = support[:3]
	}
	return support, resistance
}
