package model

import "time"

// Market selects ticker conventions and CSV layout.
type Market string

const (
	MarketInternational Market = "international"
	MarketIndian        Market = "indian"
)

// Periods accepted by the data loaders, in Yahoo range notation.
var Periods = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y", "max"}

// DefaultPeriod is used when no period is requested.
const DefaultPeriod = "1y"

// ValidPeriod reports whether p is one of Periods.
func ValidPeriod(p string) bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}

// OHLCV represents a single candlestick bar.
// Trades and VWAP are optional and zero when the source does not report them.
type OHLCV struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Trades float64   `json:"trades,omitempty"`
	VWAP   float64   `json:"vwap,omitempty"`
}

// PriceSeries holds raw price data for analysis.
type PriceSeries struct {
	Symbol    string    `json:"symbol"`
	Market    Market    `json:"market"`
	Source    string    `json:"source"`
	Bars      []OHLCV   `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`

	// Reported52wHigh and Reported52wLow come from exchange exports that carry
	// their own 52-week columns; zero means absent.
	Reported52wHigh float64 `json:"reported_52w_high,omitempty"`
	Reported52wLow  float64 `json:"reported_52w_low,omitempty"`
}

// Last returns the most recent bar. The series must not be empty.
func (s *PriceSeries) Last() OHLCV {
	return s.Bars[len(s.Bars)-1]
}

// HasTrades reports whether any bar carries a trade count.
func (s *PriceSeries) HasTrades() bool {
	for _, b := range s.Bars {
		if b.Trades > 0 {
			return true
		}
	}
	return false
}

// HasVWAP reports whether every bar carries a reported VWAP.
func (s *PriceSeries) HasVWAP() bool {
	if len(s.Bars) == 0 {
		return false
	}
	for _, b := range s.Bars {
		if b.VWAP <= 0 {
			return false
		}
	}
	return true
}

// Quote is the overview block shown above an analysis.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Exchange  string  `json:"exchange,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	State     string  `json:"market_state,omitempty"`
	Type      string  `json:"quote_type,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
	PERatio   float64 `json:"pe_ratio,omitempty"`
}
