package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"finsight/internal/pipeline"
)

// RunRecord is one analyzed symbol from one run.
type RunRecord struct {
	ID             int64   `json:"id"`
	Symbol         string  `json:"symbol"`
	RunDate        string  `json:"run_date"`
	Period         string  `json:"period"`
	TrendSignal    string  `json:"trend_signal"`
	Valuation      string  `json:"valuation"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
	ReportPath     string  `json:"report_path"`
	ResultJSON     string  `json:"-"`
	CreatedAt      string  `json:"created_at"`
}

// Store records analysis runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run database at dbPath.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_loc=Local")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol TEXT NOT NULL,
    run_date TEXT NOT NULL,
    period TEXT NOT NULL,
    trend_signal TEXT,
    valuation TEXT,
    recommendation TEXT,
    confidence REAL,
    report_path TEXT,
    result_json TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol, created_at DESC);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveRun records one row per analyzed symbol of a finished pipeline state.
func (s *Store) SaveRun(state *pipeline.State, reportPath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO runs
        (symbol, run_date, period, trend_signal, valuation, recommendation, confidence, report_path, result_json)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	runDate := state.RunDate.Format(time.RFC3339)
	for _, symbol := range state.Analyzed() {
		var trendSignal string
		if r := state.Technical[symbol]; r != nil {
			trendSignal = string(r.TrendSignal)
		}
		valuation := state.Fundamental[symbol].Valuation
		rec := state.Recommendation[symbol]

		result := map[string]interface{}{
			"technical":      state.Technical[symbol],
			"fundamental":    state.Fundamental[symbol],
			"sentiment":      state.Sentiment[symbol],
			"recommendation": rec,
		}
		resultJSON, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal result for %s: %w", symbol, err)
		}

		if _, err := stmt.Exec(symbol, runDate, state.Period, trendSignal, valuation,
			rec.Action, rec.Confidence, reportPath, string(resultJSON)); err != nil {
			return fmt.Errorf("insert run for %s: %w", symbol, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent records, newest first. A non-empty symbol
// filters to that symbol.
func (s *Store) ListRuns(symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, symbol, run_date, period, trend_signal, valuation,
        recommendation, confidence, report_path, created_at
        FROM runs`
	args := []interface{}{}
	if symbol != "" {
		query += " WHERE symbol = ?"
		args = append(args, strings.ToUpper(symbol))
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Symbol, &r.RunDate, &r.Period, &r.TrendSignal,
			&r.Valuation, &r.Recommendation, &r.Confidence, &r.ReportPath, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetRun fetches one record by id, including its result JSON.
func (s *Store) GetRun(id int64) (*RunRecord, error) {
	row := s.db.QueryRow(`SELECT id, symbol, run_date, period, trend_signal, valuation,
        recommendation, confidence, report_path, result_json, created_at
        FROM runs WHERE id = ?`, id)

	var r RunRecord
	err := row.Scan(&r.ID, &r.Symbol, &r.RunDate, &r.Period, &r.TrendSignal,
		&r.Valuation, &r.Recommendation, &r.Confidence, &r.ReportPath, &r.ResultJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &r, nil
}
