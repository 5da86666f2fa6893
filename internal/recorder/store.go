package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/model"
)

// sqlStore holds the queries shared by the SQLite and Postgres recorders.
// Queries are written with ? placeholders and passed through rebind.
type sqlStore struct {
	db     *sql.DB
	mu     sync.Mutex
	rebind func(string) string
	log    zerolog.Logger
}

func questionMarks(q string) string { return q }

// dollarPlaceholders rewrites ? placeholders as $1, $2, ...
func dollarPlaceholders(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) exec(stmts []string) error {
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			head := q
			if len(head) > 40 {
				head = head[:40]
			}
			return fmt.Errorf("exec %q: %w", head, err)
		}
	}
	return nil
}

func (s *sqlStore) RecordPrices(series *model.PriceSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.rebind(`INSERT INTO prices
		(symbol, date, open, high, low, close, volume, trades, vwap, source)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume,
			trades = excluded.trades, vwap = excluded.vwap, source = excluded.source`))
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range series.Bars {
		if _, err := stmt.Exec(series.Symbol, b.Time.Unix(), b.Open, b.High, b.Low, b.Close,
			b.Volume, b.Trades, b.VWAP, series.Source); err != nil {
			return fmt.Errorf("insert %s %s: %w", series.Symbol, b.Time.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) RecordReport(symbol string, report *model.TechnicalReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(s.rebind(`INSERT INTO reports
		(id, symbol, generated_at, as_of, close, overall, buy_count, sell_count, payload)
		VALUES (?,?,?,?,?,?,?,?,?)`),
		report.ID, symbol, report.GeneratedAt.Unix(), report.AsOf.Unix(), report.Close,
		string(report.Overall), report.BuyCount, report.SellCount, string(payload),
	)
	return err
}

func (s *sqlStore) RecordFundamentals(f *model.Fundamentals) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal fundamentals: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(s.rebind(`INSERT INTO fundamentals (symbol, fetched_at, payload)
		VALUES (?,?,?)
		ON CONFLICT (symbol) DO UPDATE SET fetched_at = excluded.fetched_at, payload = excluded.payload`),
		f.Symbol, f.FetchedAt.Unix(), string(payload),
	)
	return err
}

func (s *sqlStore) RecordArticles(symbol, source string, articles []model.Article, sent model.SentimentReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.rebind(`INSERT INTO articles
		(symbol, source, url, title, publisher, published_at, label, provider_score)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT (symbol, source, url) DO UPDATE SET
			title = excluded.title, label = excluded.label, provider_score = excluded.provider_score`))
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	labels := make(map[string]model.Sentiment, len(sent.Articles))
	for _, a := range sent.Articles {
		labels[a.Title] = a.Label
	}
	for _, a := range articles {
		key := a.URL
		if key == "" {
			key = a.Title
		}
		var score sql.NullFloat64
		if a.ProviderScore != nil {
			score = sql.NullFloat64{Float64: *a.ProviderScore, Valid: true}
		}
		if _, err := stmt.Exec(symbol, source, key, a.Title, a.Source, a.PublishedAt.Unix(),
			string(labels[a.Title]), score); err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) LoadPrices(symbol string, since time.Time) ([]model.OHLCV, error) {
	rows, err := s.db.Query(s.rebind(`SELECT date, open, high, low, close, volume, trades, vwap
		FROM prices WHERE symbol = ? AND date >= ? ORDER BY date`), symbol, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []model.OHLCV
	for rows.Next() {
		var (
			ts int64
			b  model.OHLCV
		)
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Trades, &b.VWAP); err != nil {
			return nil, err
		}
		b.Time = time.Unix(ts, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *sqlStore) RecentReports(symbol string, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(s.rebind(`SELECT id, symbol, generated_at, as_of, close, overall, buy_count, sell_count
		FROM reports WHERE symbol = ? ORDER BY generated_at DESC LIMIT ?`), symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var (
			r         ReportSummary
			gen, asOf int64
			overall   string
		)
		if err := rows.Scan(&r.ID, &r.Symbol, &gen, &asOf, &r.Close, &overall, &r.BuyCount, &r.SellCount); err != nil {
			return nil, err
		}
		r.GeneratedAt = time.Unix(gen, 0).UTC()
		r.AsOf = time.Unix(asOf, 0).UTC()
		r.Overall = model.Action(overall)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error {
	s.log.Info().Msg("closing recorder")
	return s.db.Close()
}
