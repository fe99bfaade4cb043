// Package sqlite provides the durable candle store: one series per
// (symbol, interval) key, serving as the second cache tier in front of
// the upstream gateway.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/eMatthiola/CryptoSage/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a single-writer SQLite candle store.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens the database at path, enabling WAL mode and creating the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", path)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol    TEXT    NOT NULL,
			interval  TEXT    NOT NULL,
			open_time INTEGER NOT NULL,
			open      REAL    NOT NULL,
			high      REAL    NOT NULL,
			low       REAL    NOT NULL,
			close     REAL    NOT NULL,
			volume    REAL    NOT NULL,
			PRIMARY KEY (symbol, interval, open_time)
		);
	`)
	return err
}

// SaveSeries upserts all candles of a series in one transaction.
func (s *Store) SaveSeries(ctx context.Context, series model.Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (symbol, interval, open_time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range series.Candles {
		if _, err := stmt.Exec(series.Symbol, series.Interval, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert: %w", err)
		}
	}

	return tx.Commit()
}

// LoadSeries reads the full stored series for (symbol, interval), ordered
// ascending by open time. Returns an empty series when nothing is stored.
func (s *Store) LoadSeries(ctx context.Context, symbol, interval string) (model.Series, error) {
	series := model.Series{Symbol: symbol, Interval: interval}

	rows, err := s.db.QueryContext(ctx, `
		SELECT open_time, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND interval = ?
		ORDER BY open_time ASC
	`, symbol, interval)
	if err != nil {
		return series, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Candle
		if err := rows.Scan(&c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return series, fmt.Errorf("sqlite scan candle: %w", err)
		}
		series.Candles = append(series.Candles, c)
	}
	return series, rows.Err()
}

// LatestOpenTime returns the newest stored open time for (symbol, interval),
// or 0 when nothing is stored.
func (s *Store) LatestOpenTime(ctx context.Context, symbol, interval string) (int64, error) {
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(open_time) FROM candles WHERE symbol = ? AND interval = ?`,
		symbol, interval,
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
