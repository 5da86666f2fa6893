package strategy

import (
	"fmt"
	"math"

	"StockLens/internal/model"
)

// QuickSignals reads the trend, band, momentum, MACD and volume state of the
// latest bar.
func QuickSignals(s *model.Snapshot) []model.QuickSignal {
	out := make([]model.QuickSignal, 0, 6)

	switch {
	case s.Close > s.SMA20 && s.SMA20 > s.SMA50:
		out = append(out, model.QuickSignal{Name: "Trend", State: "Bullish", Detail: "Price above both SMA 20 & 50"})
	case s.Close < s.SMA20 && s.SMA20 < s.SMA50:
		out = append(out, model.QuickSignal{Name: "Trend", State: "Bearish", Detail: "Price below both SMA 20 & 50"})
	default:
		out = append(out, model.QuickSignal{Name: "Trend", State: "Mixed", Detail: "Consolidating"})
	}

	switch {
	case s.Close > s.BBUpper:
		out = append(out, model.QuickSignal{Name: "Bollinger", State: "Overbought", Detail: "Price above upper Bollinger Band - Potentially overbought"})
	case s.Close < s.BBLower:
		out = append(out, model.QuickSignal{Name: "Bollinger", State: "Oversold", Detail: "Price below lower Bollinger Band - Potentially oversold"})
	default:
		out = append(out, model.QuickSignal{Name: "Bollinger", State: "Normal", Detail: "Price within Bollinger Bands - Normal range"})
	}

	out = append(out, zoneSignal("RSI", s.RSI, 70, 30))
	out = append(out, zoneSignal("Stochastic", s.StochK, 80, 20))

	if s.MACD > s.MACDSignal {
		out = append(out, model.QuickSignal{Name: "MACD", State: "Bullish", Detail: "MACD above signal line - Bullish"})
	} else {
		out = append(out, model.QuickSignal{Name: "MACD", State: "Bearish", Detail: "MACD below signal line - Bearish"})
	}

	ratio := s.Volume / s.VolumeSMA
	detail := fmt.Sprintf("%.1fx average", ratio)
	switch {
	case ratio > 1.5:
		out = append(out, model.QuickSignal{Name: "Volume", State: "High", Detail: detail})
	case ratio < 0.5:
		out = append(out, model.QuickSignal{Name: "Volume", State: "Low", Detail: detail})
	default:
		out = append(out, model.QuickSignal{Name: "Volume", State: "Normal", Detail: detail})
	}
	return out
}

func zoneSignal(name string, v, high, low float64) model.QuickSignal {
	detail := fmt.Sprintf("%.1f", v)
	switch {
	case v > high:
		return model.QuickSignal{Name: name, State: "Overbought", Detail: detail}
	case v < low:
		return model.QuickSignal{Name: name, State: "Oversold", Detail: detail}
	default:
		return model.QuickSignal{Name: name, State: "Neutral", Detail: detail}
	}
}

// scorePriceVsMA counts a close above the average as bullish, anything else as bearish.
func scorePriceVsMA(name string, close, ma float64) model.FactorScore {
	if close > ma {
		return model.FactorScore{Name: name, Bullish: true, Commentary: "price above average"}
	}
	return model.FactorScore{Name: name, Bearish: true, Commentary: "price at or below average"}
}

// scoreOscillator is bullish below low, bearish above high and neutral between.
func scoreOscillator(name string, v, high, low float64) model.FactorScore {
	switch {
	case v < low:
		return model.FactorScore{Name: name, Bullish: true, Commentary: fmt.Sprintf("oversold at %.1f", v)}
	case v > high:
		return model.FactorScore{Name: name, Bearish: true, Commentary: fmt.Sprintf("overbought at %.1f", v)}
	default:
		return model.FactorScore{Name: name, Commentary: fmt.Sprintf("neutral at %.1f", v)}
	}
}

func scoreMACD(s *model.Snapshot) model.FactorScore {
	if s.MACD > s.MACDSignal {
		return model.FactorScore{Name: "MACD", Bullish: true, Commentary: "above signal line"}
	}
	return model.FactorScore{Name: "MACD", Bearish: true, Commentary: "below signal line"}
}

// Score tallies the five summary checks into a bullish/bearish verdict.
func Score(s *model.Snapshot) model.Score {
	factors := []model.FactorScore{
		scorePriceVsMA("Price vs SMA 20", s.Close, s.SMA20),
		scorePriceVsMA("Price vs SMA 50", s.Close, s.SMA50),
		scoreOscillator("RSI", s.RSI, 70, 30),
		scoreMACD(s),
		scoreOscillator("Stochastic %K", s.StochK, 80, 20),
	}

	score := model.Score{Factors: factors, Total: len(factors)}
	for _, f := range factors {
		if f.Bullish {
			score.Bullish++
		}
		if f.Bearish {
			score.Bearish++
		}
	}
	switch {
	case score.Bullish > score.Bearish:
		score.Overall = model.BiasBullish
	case score.Bearish > score.Bullish:
		score.Overall = model.BiasBearish
	default:
		score.Overall = model.BiasNeutral
	}

	score.KeyMetrics = []model.Metric{
		dollarMetric("Current Price", s.Close),
		dollarMetric("SMA 20", s.SMA20),
		dollarMetric("SMA 50", s.SMA50),
		plainMetric("RSI", s.RSI, 1),
		plainMetric("MACD", s.MACD, 3),
		plainMetric("Stochastic %K", s.StochK, 1),
	}
	return score
}

func dollarMetric(label string, v float64) model.Metric {
	if math.IsNaN(v) {
		return model.Metric{Label: label, Value: "N/A"}
	}
	return model.Metric{Label: label, Value: fmt.Sprintf("$%.2f", v), Raw: model.Opt(v)}
}

func plainMetric(label string, v float64, decimals int) model.Metric {
	if math.IsNaN(v) {
		return model.Metric{Label: label, Value: "N/A"}
	}
	return model.Metric{Label: label, Value: fmt.Sprintf("%.*f", decimals, v), Raw: model.Opt(v)}
}
