package recorder

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"StockLens/internal/logger"
)

// PostgresRecorder persists history to PostgreSQL.
type PostgresRecorder struct {
	sqlStore
}

// NewPostgresRecorder connects with dsn and creates the tables if needed.
func NewPostgresRecorder(dsn string) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{sqlStore{db: db, rebind: dollarPlaceholders, log: logger.Component("postgres")}}
	if err := r.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	r.log.Info().Msg("postgres recorder connected")
	return r, nil
}

func (r *PostgresRecorder) createTables() error {
	return r.exec([]string{
		`CREATE TABLE IF NOT EXISTS prices (
			symbol TEXT   NOT NULL,
			date   BIGINT NOT NULL,
			open   DOUBLE PRECISION,
			high   DOUBLE PRECISION,
			low    DOUBLE PRECISION,
			close  DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			trades DOUBLE PRECISION,
			vwap   DOUBLE PRECISION,
			source TEXT,
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id           TEXT PRIMARY KEY,
			symbol       TEXT   NOT NULL,
			generated_at BIGINT NOT NULL,
			as_of        BIGINT,
			close        DOUBLE PRECISION,
			overall      TEXT,
			buy_count    INTEGER,
			sell_count   INTEGER,
			payload      JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_symbol ON reports(symbol, generated_at)`,
		`CREATE TABLE IF NOT EXISTS fundamentals (
			symbol     TEXT PRIMARY KEY,
			fetched_at BIGINT NOT NULL,
			payload    JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			symbol         TEXT NOT NULL,
			source         TEXT NOT NULL,
			url            TEXT NOT NULL,
			title          TEXT,
			publisher      TEXT,
			published_at   BIGINT,
			label          TEXT,
			provider_score DOUBLE PRECISION,
			PRIMARY KEY (symbol, source, url)
		)`,
	})
}
