package calculator

import "math"

// Bollinger returns upper, middle and lower bands around an SMA using the
// population standard deviation.
func Bollinger(closes []float64, period int, k float64) (upper, middle, lower []float64) {
	middle = SMASeries(closes, period)
	upper = nanSeries(len(closes))
	lower = nanSeries(len(closes))
	if period <= 0 {
		return upper, middle, lower
	}

	for i := period - 1; i < len(closes); i++ {
		if math.IsNaN(middle[i]) {
			continue
		}
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - middle[i]
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(period))
		upper[i] = middle[i] + k*sd
		lower[i] = middle[i] - k*sd
	}
	return upper, middle, lower
}
