package model

import "time"

// Action is the direction of a trading signal.
type Action string

const (
	ActionBuy     Action = "BUY"
	ActionSell    Action = "SELL"
	ActionNeutral Action = "NEUTRAL"
)

// Bias is the verdict of the five-check summary score.
type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasNeutral Bias = "NEUTRAL"
)

// Signal is a single BUY or SELL trigger with its explanation.
type Signal struct {
	Action Action `json:"action"`
	Reason string `json:"reason"`
}

// QuickSignal is one line of the latest-bar signal panel.
type QuickSignal struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Detail string `json:"detail"`
}

// FactorScore is one of the five summary checks.
type FactorScore struct {
	Name       string `json:"name"`
	Bullish    bool   `json:"bullish"`
	Bearish    bool   `json:"bearish"`
	Commentary string `json:"commentary"`
}

// Metric is a labelled, pre-formatted value.
type Metric struct {
	Label string   `json:"label"`
	Value string   `json:"value"`
	Raw   *float64 `json:"raw,omitempty"`
}

// Score is the bullish/bearish tally over the five summary checks.
type Score struct {
	Factors    []FactorScore `json:"factors"`
	Bullish    int           `json:"bullish"`
	Bearish    int           `json:"bearish"`
	Total      int           `json:"total"`
	Overall    Bias          `json:"overall"`
	KeyMetrics []Metric      `json:"key_metrics"`
}

// TechnicalReport is the comprehensive evaluation of the latest bar.
type TechnicalReport struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	GeneratedAt    time.Time `json:"generated_at"`
	AsOf           time.Time `json:"as_of"`
	Close          float64   `json:"close"`
	Signals        []Signal  `json:"signals"`
	SummaryPoints  []string  `json:"summary_points"`
	BuyCount       int       `json:"buy_count"`
	SellCount      int       `json:"sell_count"`
	Overall        Action    `json:"overall"`
	RiskFactors    []string  `json:"risk_factors"`
	Recommendation string    `json:"recommendation"`
	MAAlignment    string    `json:"ma_alignment"`
	RangePosition  *float64  `json:"range_position_pct"`
	BBPosition     *float64  `json:"bb_position_pct"`
	ATRPercent     *float64  `json:"atr_pct"`
	VolumeRatio    *float64  `json:"volume_ratio"`
	VWAPDistance   *float64  `json:"vwap_distance_pct"`
	RSITrend       string    `json:"rsi_trend_5d"`
	ATRTrend       string    `json:"atr_trend_10d"`
	OBVTrend       string    `json:"obv_trend_10d"`
	PriceTrend     string    `json:"price_trend_10d"`
	LiquidityRatio *float64  `json:"liquidity_ratio,omitempty"`
	Support        []float64 `json:"support"`
	Resistance     []float64 `json:"resistance"`
}
