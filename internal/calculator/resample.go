package calculator

import "StockLens/internal/model"

// ResampleWeekly aggregates daily bars into ISO-week bars. Trades are summed
// and the week is stamped with its first trading day.
func ResampleWeekly(daily []model.OHLCV) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.OHLCV
	week := daily[0]
	week.VWAP = 0
	wy, ww := week.Time.ISOWeek()

	for _, d := range daily[1:] {
		y, w := d.Time.ISOWeek()
		if y != wy || w != ww {
			weekly = append(weekly, week)
			week = d
			week.VWAP = 0
			wy, ww = y, w
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Close = d.Close
		week.Volume += d.Volume
		week.Trades += d.Trades
	}
	return append(weekly, week)
}
