package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"StockLens/internal/model"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestSQLite_PricesUpsert(t *testing.T) {
	r := openTemp(t)

	series := &model.PriceSeries{
		Symbol: "AAPL",
		Source: "yahoo",
		Bars: []model.OHLCV{
			{Time: day(4), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
			{Time: day(5), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 200},
		},
	}
	if err := r.RecordPrices(series); err != nil {
		t.Fatalf("RecordPrices: %v", err)
	}

	// Same date again replaces the row.
	series.Bars = []model.OHLCV{{Time: day(5), Open: 1.5, High: 3, Low: 1, Close: 2.8, Volume: 250}}
	if err := r.RecordPrices(series); err != nil {
		t.Fatalf("RecordPrices (update): %v", err)
	}

	bars, err := r.LoadPrices("AAPL", day(1))
	if err != nil {
		t.Fatalf("LoadPrices: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if !bars[0].Time.Equal(day(4)) || bars[1].Close != 2.8 || bars[1].Volume != 250 {
		t.Errorf("unexpected bars: %+v", bars)
	}

	bars, err = r.LoadPrices("AAPL", day(5))
	if err != nil {
		t.Fatalf("LoadPrices: %v", err)
	}
	if len(bars) != 1 {
		t.Errorf("since filter: got %d bars, want 1", len(bars))
	}

	if bars, _ := r.LoadPrices("MSFT", day(1)); len(bars) != 0 {
		t.Errorf("other symbol should be empty, got %d", len(bars))
	}
}

func TestSQLite_RecentReports(t *testing.T) {
	r := openTemp(t)

	for i, action := range []model.Action{model.ActionBuy, model.ActionNeutral, model.ActionSell} {
		rep := &model.TechnicalReport{
			ID:          string(rune('a' + i)),
			Symbol:      "TSLA",
			GeneratedAt: day(10 + i),
			AsOf:        day(9 + i),
			Close:       200 + float64(i),
			Overall:     action,
			BuyCount:    i,
			SellCount:   2 - i,
		}
		if err := r.RecordReport("TSLA", rep); err != nil {
			t.Fatalf("RecordReport: %v", err)
		}
	}

	got, err := r.RecentReports("TSLA", 2)
	if err != nil {
		t.Fatalf("RecentReports: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d reports, want 2", len(got))
	}
	if got[0].ID != "c" || got[0].Overall != model.ActionSell || got[0].Close != 202 {
		t.Errorf("newest report = %+v", got[0])
	}
	if got[1].ID != "b" || !got[1].AsOf.Equal(day(10)) {
		t.Errorf("second report = %+v", got[1])
	}
}

func TestSQLite_FundamentalsAndArticles(t *testing.T) {
	r := openTemp(t)

	f := &model.Fundamentals{Symbol: "AAPL", FetchedAt: day(1), LongName: "Apple Inc."}
	if err := r.RecordFundamentals(f); err != nil {
		t.Fatalf("RecordFundamentals: %v", err)
	}
	f.FetchedAt = day(2)
	if err := r.RecordFundamentals(f); err != nil {
		t.Fatalf("RecordFundamentals (update): %v", err)
	}

	score := 0.4
	articles := []model.Article{
		{Title: "Apple beats estimates", URL: "https://example.com/a", PublishedAt: day(3), ProviderScore: &score},
		{Title: "No link here", PublishedAt: day(3)},
	}
	sent := model.SentimentReport{Articles: []model.ArticleSentiment{
		{Title: "Apple beats estimates", Label: model.SentimentPositive},
		{Title: "No link here", Label: model.SentimentNeutral},
	}}
	if err := r.RecordArticles("AAPL", "marketaux", articles, sent); err != nil {
		t.Fatalf("RecordArticles: %v", err)
	}
	if err := r.RecordArticles("AAPL", "marketaux", articles, sent); err != nil {
		t.Fatalf("RecordArticles twice: %v", err)
	}

	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE symbol = 'AAPL'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("articles = %d, want 2", n)
	}
	var label string
	if err := r.db.QueryRow(`SELECT label FROM articles WHERE url = 'https://example.com/a'`).Scan(&label); err != nil {
		t.Fatal(err)
	}
	if label != "Positive" {
		t.Errorf("label = %q", label)
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM fundamentals`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("fundamentals rows = %d, want 1", n)
	}
}

func TestDollarPlaceholders(t *testing.T) {
	got := dollarPlaceholders("SELECT * FROM t WHERE a = ? AND b > ? LIMIT ?")
	want := "SELECT * FROM t WHERE a = $1 AND b > $2 LIMIT $3"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestOpen(t *testing.T) {
	r, err := Open("none", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*NoopRecorder); !ok {
		t.Errorf("none driver gave %T", r)
	}

	path := filepath.Join(t.TempDir(), "nested", "db.sqlite")
	r, err = Open("sqlite", path, "")
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	r.Close()

	if _, err := Open("mysql", "", ""); err == nil {
		t.Error("expected error for unknown driver")
	}
}
