package calculator

import (
	"math"

	"github.com/rs/zerolog/log"

	"StockLens/internal/model"
)

// Standard indicator parameters.
const (
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BBPeriod        = 20
	BBStdDev        = 2.0
	ATRPeriod       = 14
	StochK          = 14
	StochD          = 3
	VolumeSMAPeriod = 20
	SRLookback      = 50
	SRWindow        = 5
)

// Compute fills every indicator column for the series.
func Compute(series *model.PriceSeries) model.IndicatorSeries {
	bars := series.Bars
	closes := extractCloses(bars)

	var ind model.IndicatorSeries
	ind.SMA20 = SMASeries(closes, 20)
	ind.SMA50 = SMASeries(closes, 50)
	ind.SMA200 = SMASeries(closes, 200)
	ind.EMA12 = EMASeries(closes, 12)
	ind.EMA20 = EMASeries(closes, 20)
	ind.EMA26 = EMASeries(closes, 26)
	ind.RSI = RSISeries(closes, RSIPeriod)
	ind.MACD, ind.MACDSignal, ind.MACDHist = MACD(closes, MACDFast, MACDSlow, MACDSignal)
	ind.BBUpper, ind.BBMiddle, ind.BBLower = Bollinger(closes, BBPeriod, BBStdDev)
	ind.ATR = ATR(bars, ATRPeriod)
	ind.OBV = OBV(bars)
	if series.HasVWAP() {
		ind.VWAP = ReportedVWAP(bars)
	} else {
		ind.VWAP = VWAP(bars)
	}
	ind.VolumeSMA = SMASeries(extractVolumes(bars), VolumeSMAPeriod)
	ind.StochK, ind.StochD = Stochastic(bars, StochK, StochD)
	return ind
}

func last(col []float64) float64 {
	if len(col) == 0 {
		return math.NaN()
	}
	return col[len(col)-1]
}

// prev is the value one bar back, NaN when there is none.
func prev(col []float64) float64 {
	if len(col) < 2 {
		return math.NaN()
	}
	return col[len(col)-2]
}

// ago is the value k bars back, or the latest value when the series is shorter.
func ago(col []float64, k int) float64 {
	if len(col) > k {
		return col[len(col)-1-k]
	}
	return last(col)
}

// Latest builds the snapshot of the most recent bar. The series must not be empty.
func Latest(series *model.PriceSeries, ind model.IndicatorSeries) model.Snapshot {
	bars := series.Bars
	closes := extractCloses(bars)
	cur := bars[len(bars)-1]

	s := model.Snapshot{
		Time:           cur.Time,
		Close:          cur.Close,
		PrevClose:      prev(closes),
		Volume:         cur.Volume,
		SMA20:          last(ind.SMA20),
		SMA50:          last(ind.SMA50),
		SMA200:         last(ind.SMA200),
		PrevSMA50:      prev(ind.SMA50),
		PrevSMA200:     prev(ind.SMA200),
		EMA20:          last(ind.EMA20),
		RSI:            last(ind.RSI),
		RSI5Ago:        ago(ind.RSI, 5),
		MACD:           last(ind.MACD),
		MACDSignal:     last(ind.MACDSignal),
		MACDHist:       last(ind.MACDHist),
		PrevMACD:       prev(ind.MACD),
		PrevMACDSignal: prev(ind.MACDSignal),
		BBUpper:        last(ind.BBUpper),
		BBMiddle:       last(ind.BBMiddle),
		BBLower:        last(ind.BBLower),
		ATR:            last(ind.ATR),
		ATR10Ago:       ago(ind.ATR, 10),
		OBV:            last(ind.OBV),
		OBV10Ago:       ago(ind.OBV, 10),
		Close10Ago:     ago(closes, 10),
		VWAP:           last(ind.VWAP),
		VolumeSMA:      last(ind.VolumeSMA),
		StochK:         last(ind.StochK),
		StochD:         last(ind.StochD),
		Trades:         cur.Trades,
		TradesAvg:      math.NaN(),
	}

	if h, l, err := Calculate52WeekRange(bars); err != nil {
		log.Warn().Err(err).Msg("52-week range calculation failed")
		s.High52w, s.Low52w = cur.Close, cur.Close
	} else {
		s.High52w, s.Low52w = h, l
	}
	if series.Reported52wHigh > 0 && series.Reported52wLow > 0 {
		s.High52w, s.Low52w = series.Reported52wHigh, series.Reported52wLow
	}
	if pos, err := Calculate52WeekPosition(cur.Close, s.High52w, s.Low52w); err != nil {
		log.Warn().Err(err).Msg("52-week position calculation failed")
		s.Position52w = 0.5
	} else {
		s.Position52w = pos
	}

	if h, l, err := Calculate30DayRange(bars); err == nil {
		s.High30d, s.Low30d = h, l
	}

	if rsi, err := CalculateRSI(ResampleWeekly(bars), RSIPeriod); err != nil {
		log.Warn().Err(err).Msg("weekly RSI calculation failed, defaulting to 50")
		s.WeeklyRSI = 50
	} else {
		s.WeeklyRSI = rsi
	}

	if series.HasTrades() {
		trades := make([]float64, len(bars))
		for i, b := range bars {
			trades[i] = b.Trades
		}
		s.TradesAvg = last(rollingMean(trades, 20))
	}

	s.Support, s.Resistance = SupportResistance(bars, SRLookback, SRWindow)
	return s
}

// Rows joins bars and indicator columns into JSON-safe rows.
func Rows(bars []model.OHLCV, ind model.IndicatorSeries) []model.IndicatorRow {
	at := func(col []float64, i int) *float64 {
		if i >= len(col) {
			return nil
		}
		return model.Opt(col[i])
	}
	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i] = model.IndicatorRow{
			Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
			SMA20:      at(ind.SMA20, i),
			SMA50:      at(ind.SMA50, i),
			SMA200:     at(ind.SMA200, i),
			EMA12:      at(ind.EMA12, i),
			EMA20:      at(ind.EMA20, i),
			EMA26:      at(ind.EMA26, i),
			RSI:        at(ind.RSI, i),
			MACD:       at(ind.MACD, i),
			MACDSignal: at(ind.MACDSignal, i),
			MACDHist:   at(ind.MACDHist, i),
			BBUpper:    at(ind.BBUpper, i),
			BBMiddle:   at(ind.BBMiddle, i),
			BBLower:    at(ind.BBLower, i),
			ATR:        at(ind.ATR, i),
			OBV:        at(ind.OBV, i),
			VWAP:       at(ind.VWAP, i),
			VolumeSMA:  at(ind.VolumeSMA, i),
			StochK:     at(ind.StochK, i),
			StochD:     at(ind.StochD, i),
		}
	}
	return rows
}
