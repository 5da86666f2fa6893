package recorder

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"StockLens/internal/logger"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	sqlStore
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{sqlStore{db: db, rebind: questionMarks, log: logger.Component("sqlite")}}
	if err := r.exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS prices (
		symbol TEXT    NOT NULL,
		date   INTEGER NOT NULL,
		open   REAL,
		high   REAL,
		low    REAL,
		close  REAL,
		volume REAL,
		trades REAL,
		vwap   REAL,
		source TEXT,
		PRIMARY KEY (symbol, date)
	)`,

	`CREATE TABLE IF NOT EXISTS reports (
		id           TEXT PRIMARY KEY,
		symbol       TEXT    NOT NULL,
		generated_at INTEGER NOT NULL,
		as_of        INTEGER,
		close        REAL,
		overall      TEXT,
		buy_count    INTEGER,
		sell_count   INTEGER,
		payload      TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_symbol ON reports(symbol, generated_at)`,

	`CREATE TABLE IF NOT EXISTS fundamentals (
		symbol     TEXT PRIMARY KEY,
		fetched_at INTEGER NOT NULL,
		payload    TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS articles (
		symbol         TEXT NOT NULL,
		source         TEXT NOT NULL,
		url            TEXT NOT NULL,
		title          TEXT,
		publisher      TEXT,
		published_at   INTEGER,
		label          TEXT,
		provider_score REAL,
		PRIMARY KEY (symbol, source, url)
	)`,
}
