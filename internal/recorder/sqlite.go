package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
	_ "modernc.org/sqlite"

	"KabuScout/internal/model"
)

// SQLiteRecorder persists scan history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the web UI read history while a scheduled scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

// Open returns a SQLite recorder, or a NoopRecorder when dbPath is empty
// or the database cannot be opened.
func Open(dbPath string) Recorder {
	if dbPath == "" {
		return NewNoopRecorder()
	}
	r, err := NewSQLiteRecorder(dbPath)
	if err != nil {
		log.Warn().Err(err).Str("path", dbPath).Msg("scan history disabled")
		return NewNoopRecorder()
	}
	return r
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			mode        TEXT NOT NULL,
			duration_ms INTEGER,
			requested   INTEGER,
			analysed    INTEGER,
			buys        INTEGER,
			sells       INTEGER,
			skipped     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_ts ON scans(timestamp)`,

		`CREATE TABLE IF NOT EXISTS scan_results (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id        TEXT NOT NULL REFERENCES scans(id),
			symbol         TEXT NOT NULL,
			name           TEXT,
			sector         TEXT,
			price          REAL,
			rsi            REAL,
			macd_hist      REAL,
			support        REAL,
			resistance     REAL,
			ha_trend       INTEGER,
			pattern        TEXT,
			score          REAL,
			judgement      TEXT,
			blocked        INTEGER,
			next_earnings  INTEGER,
			factors        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_scan ON scan_results(scan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_symbol ON scan_results(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", strings.TrimSpace(s)[:32], err)
		}
	}
	return nil
}

// RecordScan writes the scan row and one row per analysed ticker in a
// single transaction.
func (r *SQLiteRecorder) RecordScan(report *model.ScanReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO scans
		(id, timestamp, mode, duration_ms, requested, analysed, buys, sells, skipped)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		report.ID, report.StartedAt.Unix(), string(report.Mode), report.Duration.Milliseconds(),
		report.Requested, len(report.Results), len(report.Buys), len(report.Sells), len(report.Skipped),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO scan_results
		(scan_id, symbol, name, sector, price, rsi, macd_hist, support, resistance,
		 ha_trend, pattern, score, judgement, blocked, next_earnings, factors)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare results: %w", err)
	}
	defer stmt.Close()

	for _, a := range report.Results {
		factors, err := json.Marshal(a.Factors)
		if err != nil {
			return fmt.Errorf("encode factors for %s: %w", a.Ticker.Symbol, err)
		}
		var pattern string
		if a.Pattern != nil {
			pattern = a.Pattern.Name
		}
		var earnings int64
		if !a.NextEarnings.IsZero() {
			earnings = a.NextEarnings.Unix()
		}
		ind := a.Indicators
		if _, err := stmt.Exec(
			report.ID, a.Ticker.Symbol, a.Ticker.Name, a.Ticker.Sector,
			ind.CurrentPrice, ind.RSI, ind.MACDHist, ind.Support, ind.Resistance,
			ind.HATrend, pattern, a.Score, string(a.Judgement), a.Blocked, earnings, string(factors),
		); err != nil {
			return fmt.Errorf("insert result %s: %w", a.Ticker.Symbol, err)
		}
	}
	return tx.Commit()
}

// RecentScans returns the newest scans first, with the top-scoring ticker of each.
func (r *SQLiteRecorder) RecentScans(limit int) ([]ScanSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT s.id, s.timestamp, s.mode, s.duration_ms, s.requested,
			s.analysed, s.buys, s.sells,
			COALESCE((SELECT symbol FROM scan_results WHERE scan_id = s.id ORDER BY score DESC, id LIMIT 1), ''),
			COALESCE((SELECT MAX(score) FROM scan_results WHERE scan_id = s.id), 0)
		FROM scans s ORDER BY s.timestamp DESC, s.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var out []ScanSummary
	for rows.Next() {
		var (
			s      ScanSummary
			ts, ms int64
			mode   string
		)
		if err := rows.Scan(&s.ID, &ts, &mode, &ms, &s.Requested, &s.Analysed,
			&s.Buys, &s.Sells, &s.TopSymbol, &s.TopScore); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		s.Mode = model.Mode(mode)
		s.StartedAt = time.Unix(ts, 0)
		s.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
