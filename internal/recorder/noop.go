package recorder

import (
	"time"

	"StockLens/internal/model"
)

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPrices(_ *model.PriceSeries) error                 { return nil }
func (n *NoopRecorder) RecordReport(_ string, _ *model.TechnicalReport) error   { return nil }
func (n *NoopRecorder) RecordFundamentals(_ *model.Fundamentals) error          { return nil }
func (n *NoopRecorder) LoadPrices(_ string, _ time.Time) ([]model.OHLCV, error) { return nil, nil }
func (n *NoopRecorder) RecentReports(_ string, _ int) ([]ReportSummary, error)  { return nil, nil }
func (n *NoopRecorder) Close() error                                            { return nil }

func (n *NoopRecorder) RecordArticles(_, _ string, _ []model.Article, _ model.SentimentReport) error {
	return nil
}
