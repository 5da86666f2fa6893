package calculator

import "StockLens/internal/model"

// Stochastic returns %K over kPeriod bars and %D as its dPeriod average.
// %K is NaN while the window is incomplete or its range is zero.
func Stochastic(bars []model.OHLCV, kPeriod, dPeriod int) (k, d []float64) {
	k = nanSeries(len(bars))
	if kPeriod <= 0 {
		return k, nanSeries(len(bars))
	}
	for i := kPeriod - 1; i < len(bars); i++ {
		hh, ll := bars[i].High, bars[i].Low
		for j := i - kPeriod + 1; j < i; j++ {
			if bars[j].High > hh {
				hh = bars[j].High
			}
			if bars[j].Low < ll {
				ll = bars[j].Low
			}
		}
		if hh == ll {
			continue
		}
		k[i] = 100 * (bars[i].Close - ll) / (hh - ll)
	}
	return k, rollingMean(k, dPeriod)
}
