package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StockLens/internal/model"
)

// ReportSummary is the stored headline of a technical report.
type ReportSummary struct {
	ID          string       `json:"id"`
	Symbol      string       `json:"symbol"`
	GeneratedAt time.Time    `json:"generated_at"`
	AsOf        time.Time    `json:"as_of"`
	Close       float64      `json:"close"`
	Overall     model.Action `json:"overall"`
	BuyCount    int          `json:"buy_count"`
	SellCount   int          `json:"sell_count"`
}

// Recorder persists analysis history.
type Recorder interface {
	RecordPrices(series *model.PriceSeries) error
	RecordReport(symbol string, report *model.TechnicalReport) error
	RecordFundamentals(f *model.Fundamentals) error
	RecordArticles(symbol, source string, articles []model.Article, s model.SentimentReport) error
	LoadPrices(symbol string, since time.Time) ([]model.OHLCV, error)
	RecentReports(symbol string, limit int) ([]ReportSummary, error)
	Close() error
}

// Open returns the recorder for driver: "sqlite", "postgres" or "none".
func Open(driver, sqlitePath, postgresDSN string) (Recorder, error) {
	switch driver {
	case "sqlite":
		if dir := filepath.Dir(sqlitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		return NewSQLiteRecorder(sqlitePath)
	case "postgres":
		return NewPostgresRecorder(postgresDSN)
	case "none", "":
		return NewNoopRecorder(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
