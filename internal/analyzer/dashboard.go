package analyzer

import (
	"StockLens/internal/ingest"
	"StockLens/internal/model"
)

// RecentRows is the number of trailing rows shown in the dashboard table.
const RecentRows = 5

// Overview is the headline block of a dashboard.
type Overview struct {
	model.Quote
	Change    *float64 `json:"change"`
	ChangePct *float64 `json:"change_pct"`
	High52w   float64  `json:"high_52w"`
	Low52w    float64  `json:"low_52w"`
	High30d   float64  `json:"high_30d"`
	Low30d    float64  `json:"low_30d"`
	WeeklyRSI float64  `json:"weekly_rsi"`
	Bars      int      `json:"bars"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
}

// Dashboard is everything shown for one analyzed ticker.
type Dashboard struct {
	Symbol       string                 `json:"symbol"`
	Market       model.Market           `json:"market"`
	Period       string                 `json:"period,omitempty"`
	Source       string                 `json:"source"`
	Overview     Overview               `json:"overview"`
	Recent       []model.IndicatorRow   `json:"recent"`
	QuickSignals []model.QuickSignal    `json:"quick_signals"`
	Score        model.Score            `json:"score"`
	Report       *model.TechnicalReport `json:"report"`
	Latest       model.IndicatorRow     `json:"latest"`
	Rows         []model.IndicatorRow   `json:"rows,omitempty"`

	// Series and Indicators back the CSV export and are not serialised.
	Series     *model.PriceSeries    `json:"-"`
	Indicators model.IndicatorSeries `json:"-"`
}

// UploadResult is the response to an uploaded CSV.
type UploadResult struct {
	Data      []model.OHLCV      `json:"data"`
	Quality   ingest.Quality     `json:"quality"`
	Clean     ingest.CleanReport `json:"clean_report"`
	Dashboard *Dashboard         `json:"dashboard"`
}
