package strategy

import (
	"fmt"
	"math"
	"strings"

	"StockLens/internal/model"
)

// Thresholds for the comprehensive evaluation.
const (
	RSIOverbought   = 70.0
	RSIOversold     = 30.0
	StochOverbought = 80.0
	StochOversold   = 20.0
	NearHighPct     = 80.0
	NearLowPct      = 20.0
	HighVolatility  = 3.0
	LowVolatility   = 1.0
	HighVolume      = 2.0
	LowVolume       = 0.5
	HighLiquidity   = 1.5
	LowLiquidity    = 0.7
)

// Recommendations keyed by overall action.
var Recommendations = map[model.Action][]string{
	model.ActionBuy: {
		"Multiple bullish indicators align",
		"Consider gradual position building",
		"Set stop loss below recent support levels",
		"Monitor volume for confirmation",
	},
	model.ActionSell: {
		"Multiple bearish indicators present",
		"Consider profit booking or short positions",
		"Set stop loss above recent resistance levels",
		"Watch for reversal signals",
	},
	model.ActionNeutral: {
		"Mixed signals suggest waiting for clearer direction",
		"Avoid new positions until trend confirms",
		"Monitor key support/resistance levels",
		"Wait for volume confirmation",
	},
}

// evaluation accumulates signals and summary points while the checks run.
type evaluation struct {
	report *model.TechnicalReport
}

func (e *evaluation) buy(reason string) {
	e.report.Signals = append(e.report.Signals, model.Signal{Action: model.ActionBuy, Reason: reason})
}

func (e *evaluation) sell(reason string) {
	e.report.Signals = append(e.report.Signals, model.Signal{Action: model.ActionSell, Reason: reason})
}

func (e *evaluation) point(p string) {
	e.report.SummaryPoints = append(e.report.SummaryPoints, p)
}

// Evaluate runs every comprehensive check against the snapshot and derives
// the overall action, risk factors and recommendation.
func Evaluate(symbol string, s *model.Snapshot) *model.TechnicalReport {
	e := &evaluation{report: &model.TechnicalReport{
		Symbol:     symbol,
		AsOf:       s.Time,
		Close:      s.Close,
		Support:    s.Support,
		Resistance: s.Resistance,
	}}

	e.movingAverages(s)
	e.momentum(s)
	e.bands(s)
	e.yearRange(s)
	e.volatility(s)
	e.volume(s)
	e.liquidity(s)

	r := e.report
	for _, sig := range r.Signals {
		switch sig.Action {
		case model.ActionBuy:
			r.BuyCount++
		case model.ActionSell:
			r.SellCount++
		}
	}
	switch {
	case r.BuyCount > r.SellCount:
		r.Overall = model.ActionBuy
	case r.SellCount > r.BuyCount:
		r.Overall = model.ActionSell
	default:
		r.Overall = model.ActionNeutral
	}

	if s.RSI > RSIOverbought {
		r.RiskFactors = append(r.RiskFactors, "High RSI indicates overbought conditions")
	}
	if s.ATR/s.Close > HighVolatility/100 {
		r.RiskFactors = append(r.RiskFactors, "High volatility increases trading risk")
	}
	if r.SellCount > 0 {
		r.RiskFactors = append(r.RiskFactors, "Multiple sell signals detected")
	}
	r.Recommendation = strings.Join(Recommendations[r.Overall], "; ")
	return r
}

func (e *evaluation) movingAverages(s *model.Snapshot) {
	prevAbove := s.PrevSMA50 > s.PrevSMA200
	curAbove := s.SMA50 > s.SMA200
	switch {
	case !prevAbove && curAbove:
		e.buy("Golden Cross detected")
		e.point("Golden Cross bullish signal")
	case prevAbove && !curAbove:
		e.sell("Death Cross detected")
		e.point("Death Cross bearish signal")
	}

	switch {
	case s.Close > s.SMA20 && s.SMA20 > s.SMA50 && s.SMA50 > s.SMA200:
		e.report.MAAlignment = "Perfect bullish alignment"
		e.point("Perfect bullish MA alignment")
	case s.Close < s.SMA20 && s.SMA20 < s.SMA50 && s.SMA50 < s.SMA200:
		e.report.MAAlignment = "Perfect bearish alignment"
		e.point("Perfect bearish MA alignment")
	default:
		e.report.MAAlignment = "Mixed MA signals"
	}
}

func (e *evaluation) momentum(s *model.Snapshot) {
	switch {
	case s.RSI > RSIOverbought:
		e.sell("RSI Overbought")
		e.point("RSI indicates overbought condition")
	case s.RSI < RSIOversold:
		e.buy("RSI Oversold")
		e.point("RSI indicates oversold condition")
	default:
		e.point("RSI in neutral zone")
	}
	e.report.RSITrend = trend(s.RSI, s.RSI5Ago)

	switch {
	case s.PrevMACD <= s.PrevMACDSignal && s.MACD > s.MACDSignal:
		e.buy("MACD Bullish Crossover")
		e.point("MACD shows bullish crossover")
	case s.PrevMACD >= s.PrevMACDSignal && s.MACD < s.MACDSignal:
		e.sell("MACD Bearish Crossover")
		e.point("MACD shows bearish crossover")
	}

	switch {
	case s.StochK > StochOverbought && s.StochD > StochOverbought:
		e.sell("Stochastic Overbought")
	case s.StochK < StochOversold && s.StochD < StochOversold:
		e.buy("Stochastic Oversold")
	}
}

func (e *evaluation) bands(s *model.Snapshot) {
	e.report.BBPosition = model.Opt((s.Close - s.BBLower) / (s.BBUpper - s.BBLower) * 100)
	switch {
	case s.Close > s.BBUpper:
		e.point("Price above Bollinger upper band")
	case s.Close < s.BBLower:
		e.buy("Price below Bollinger lower band")
		e.point("Price below Bollinger lower band")
	}
}

func (e *evaluation) yearRange(s *model.Snapshot) {
	pos := (s.Close - s.Low52w) / (s.High52w - s.Low52w) * 100
	e.report.RangePosition = model.Opt(pos)
	switch {
	case pos > NearHighPct:
		e.point("Near 52-week high, potential breakout")
	case pos < NearLowPct:
		e.point("Near 52-week low, at support levels")
	}
}

func (e *evaluation) volatility(s *model.Snapshot) {
	atrPct := s.ATR / s.Close * 100
	e.report.ATRPercent = model.Opt(atrPct)
	e.report.ATRTrend = trend(s.ATR, s.ATR10Ago)
	switch {
	case atrPct > HighVolatility:
		e.point("High volatility environment")
	case atrPct < LowVolatility:
		e.point("Low volatility consolidation")
	}
}

func (e *evaluation) volume(s *model.Snapshot) {
	ratio := s.Volume / s.VolumeSMA
	e.report.VolumeRatio = model.Opt(ratio)
	switch {
	case ratio > HighVolume:
		e.point("High trading volume indicates strong interest")
	case ratio < LowVolume:
		e.point("Low volume suggests weak participation")
	}

	if !math.IsNaN(s.VWAP) && s.VWAP != 0 {
		e.report.VWAPDistance = model.Opt((s.Close - s.VWAP) / s.VWAP * 100)
		if s.Close > s.VWAP {
			e.point("Price trading above VWAP")
		} else {
			e.point("Price trading below VWAP")
		}
	}

	e.report.OBVTrend = trend(s.OBV, s.OBV10Ago)
	e.report.PriceTrend = trend(s.Close, s.Close10Ago)
	switch {
	case e.report.PriceTrend == "Rising" && e.report.OBVTrend == "Rising":
		e.point("OBV confirms bullish price momentum")
	case e.report.PriceTrend == "Falling" && e.report.OBVTrend == "Falling":
		e.point("OBV confirms bearish price momentum")
	case e.report.PriceTrend == "Rising":
		e.sell("OBV bearish divergence")
		e.point("OBV shows bearish divergence")
	default:
		e.buy("OBV bullish divergence")
		e.point("OBV shows bullish divergence")
	}
}

// liquidity only applies to sources that report a trade count per bar.
func (e *evaluation) liquidity(s *model.Snapshot) {
	if s.Trades <= 0 {
		return
	}
	ratio := 1.0
	if s.TradesAvg > 0 {
		ratio = s.Trades / s.TradesAvg
	}
	e.report.LiquidityRatio = model.Opt(ratio)
	switch {
	case ratio > HighLiquidity:
		e.point("High liquidity with increased trading activity")
	case ratio < LowLiquidity:
		e.point("Lower liquidity with reduced trading activity")
	}
}

func trend(cur, past float64) string {
	if cur > past {
		return "Rising"
	}
	return "Falling"
}

// Describe renders a one-line summary of the report for logs and notifications.
func Describe(r *model.TechnicalReport) string {
	return fmt.Sprintf("%s %s @ %.2f (buy %d / sell %d)", r.Symbol, r.Overall, r.Close, r.BuyCount, r.SellCount)
}
