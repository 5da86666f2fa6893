package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"
	"time"

	"StockLens/internal/model"
)

func TestWriteTechnicalCSV(t *testing.T) {
	bars := []model.OHLCV{
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 10.5, High: 12, Low: 10, Close: 11.25, Volume: 200},
	}
	nan := math.NaN()
	ind := model.IndicatorSeries{
		SMA20: []float64{nan, 10.875},
		RSI:   []float64{nan, 62.5},
		OBV:   []float64{100, 300},
	}

	var buf bytes.Buffer
	if err := WriteTechnicalCSV(&buf, bars, ind); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if len(records[0]) != len(technicalHeader) || records[0][6] != "SMA_20" {
		t.Errorf("header: %v", records[0])
	}
	first, second := records[1], records[2]
	if first[0] != "2024-01-02" || first[4] != "10.5" {
		t.Errorf("first row: %v", first)
	}
	if first[6] != "" || first[12] != "" {
		t.Errorf("NaN should be empty: sma=%q rsi=%q", first[6], first[12])
	}
	if second[6] != "10.875" || second[12] != "62.5" || second[20] != "300" {
		t.Errorf("second row: %v", second)
	}
	if second[7] != "" {
		t.Errorf("missing column should be empty, got %q", second[7])
	}
}

func TestFilenames(t *testing.T) {
	if got := TechnicalFilename(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)); got != "technical_analysis_20240309.csv" {
		t.Errorf("technical filename = %s", got)
	}
	if got := FundamentalsFilename("AAPL"); got != "fundamental_analysis_AAPL.csv" {
		t.Errorf("fundamentals filename = %s", got)
	}
	if got := FundamentalsFilename(""); got != "fundamental_analysis_stock.csv" {
		t.Errorf("default filename = %s", got)
	}
}

func TestWriteFundamentalsCSV(t *testing.T) {
	mc := 2.5e12
	emp := int64(161000)
	f := &model.Fundamentals{
		Symbol:            "AAPL",
		Sector:            "Technology",
		MarketCap:         &mc,
		Employees:         &emp,
		RecommendationKey: "buy",
	}

	var buf bytes.Buffer
	if err := WriteFundamentalsCSV(&buf, f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	got := make(map[string]string, len(records))
	for _, r := range records[1:] {
		got[r[0]] = r[1]
	}
	want := map[string]string{
		"symbol":              "AAPL",
		"sector":              "Technology",
		"market_cap":          "2500000000000",
		"full_time_employees": "161000",
		"recommendation_key":  "buy",
		"trailing_pe":         "",
		"fetched_at":          "",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["income_statement"]; ok {
		t.Error("statements should not be flattened into metric rows")
	}
	if records[0][0] != "Metric" || records[0][1] != "Value" {
		t.Errorf("header: %v", records[0])
	}
}
