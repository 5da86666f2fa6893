package model

import (
	"math"
	"time"
)

// IndicatorSeries holds one column per indicator, aligned with the bars it
// was computed from. Values before an indicator's warm-up are NaN.
type IndicatorSeries struct {
	SMA20, SMA50, SMA200       []float64
	EMA12, EMA20, EMA26        []float64
	RSI                        []float64
	MACD, MACDSignal, MACDHist []float64
	BBUpper, BBMiddle, BBLower []float64
	ATR                        []float64
	OBV                        []float64
	VWAP                       []float64
	VolumeSMA                  []float64
	StochK, StochD             []float64
}

// Snapshot is the latest value of every indicator plus the lagged values
// needed for crossover and trend checks. Unavailable values are NaN.
type Snapshot struct {
	Time      time.Time
	Close     float64
	PrevClose float64
	Volume    float64

	SMA20, SMA50, SMA200  float64
	PrevSMA50, PrevSMA200 float64
	EMA20                 float64

	RSI     float64
	RSI5Ago float64

	MACD, MACDSignal, MACDHist float64
	PrevMACD, PrevMACDSignal   float64

	BBUpper, BBMiddle, BBLower float64

	ATR      float64
	ATR10Ago float64

	OBV        float64
	OBV10Ago   float64
	Close10Ago float64

	VWAP      float64
	VolumeSMA float64

	StochK, StochD float64

	High52w, Low52w float64
	High30d, Low30d float64
	Position52w     float64 // 0.0 ~ 1.0
	WeeklyRSI       float64

	// Trades and TradesAvg are zero when the source has no trade counts.
	Trades    float64
	TradesAvg float64

	Support    []float64
	Resistance []float64
}

// IndicatorRow is one bar with its indicator values in JSON-safe form.
type IndicatorRow struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`

	SMA20      *float64 `json:"sma_20"`
	SMA50      *float64 `json:"sma_50"`
	SMA200     *float64 `json:"sma_200"`
	EMA12      *float64 `json:"ema_12"`
	EMA20      *float64 `json:"ema_20"`
	EMA26      *float64 `json:"ema_26"`
	RSI        *float64 `json:"rsi"`
	MACD       *float64 `json:"macd"`
	MACDSignal *float64 `json:"macd_signal"`
	MACDHist   *float64 `json:"macd_histogram"`
	BBUpper    *float64 `json:"bb_upper"`
	BBMiddle   *float64 `json:"bb_middle"`
	BBLower    *float64 `json:"bb_lower"`
	ATR        *float64 `json:"atr"`
	OBV        *float64 `json:"obv"`
	VWAP       *float64 `json:"vwap"`
	VolumeSMA  *float64 `json:"volume_sma"`
	StochK     *float64 `json:"stoch_k"`
	StochD     *float64 `json:"stoch_d"`
}

// Opt converts NaN and Inf to nil.
func Opt(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
