package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"MarketScanner/internal/model"
)

// SQLiteStore persists fetched daily bars to a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
	Now func() time.Time
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string, log zerolog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log, Now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite bar cache opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bar_fetches (
			ticker        TEXT    NOT NULL,
			lookback_days INTEGER NOT NULL,
			fetched_at    INTEGER NOT NULL,
			PRIMARY KEY (ticker, lookback_days)
		)`,
		`CREATE TABLE IF NOT EXISTS daily_bars (
			ticker        TEXT    NOT NULL,
			lookback_days INTEGER NOT NULL,
			day           INTEGER NOT NULL,
			open          REAL,
			high          REAL,
			low           REAL,
			close         REAL,
			volume        REAL,
			PRIMARY KEY (ticker, lookback_days, day)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// LoadBars returns the cached bars of the most recent fetch for ticker and
// window together with the time of that fetch.
func (s *SQLiteStore) LoadBars(ctx context.Context, ticker string, lookbackDays int) ([]model.OHLCV, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM bar_fetches WHERE ticker = ? AND lookback_days = ?`,
		ticker, lookbackDays,
	).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrCacheMiss
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query fetch: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT day, open, high, low, close, volume FROM daily_bars
		 WHERE ticker = ? AND lookback_days = ? ORDER BY day`,
		ticker, lookbackDays,
	)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.OHLCV
	for rows.Next() {
		var day int64
		var b model.OHLCV
		if err := rows.Scan(&day, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = time.Unix(day, 0).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	if len(bars) == 0 {
		return nil, time.Time{}, ErrCacheMiss
	}
	return bars, time.Unix(fetchedAt, 0), nil
}

// SaveBars replaces the cached bars for ticker and window.
func (s *SQLiteStore) SaveBars(ctx context.Context, ticker string, lookbackDays int, bars []model.OHLCV) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM daily_bars WHERE ticker = ? AND lookback_days = ?`, ticker, lookbackDays); err != nil {
		return fmt.Errorf("clear bars: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO daily_bars
		(ticker, lookback_days, day, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, ticker, lookbackDays, b.Time.Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("insert bar: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO bar_fetches (ticker, lookback_days, fetched_at) VALUES (?,?,?)`,
		ticker, lookbackDays, s.Now().Unix()); err != nil {
		return fmt.Errorf("record fetch: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing sqlite bar cache")
	return s.db.Close()
}
