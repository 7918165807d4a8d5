// Package history keeps an audit log of scrape runs in sqlite.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Log records one row per orchestrator run.
type Log struct {
	db *sql.DB
}

// Run is one recorded scrape pass.
type Run struct {
	ID         int64          `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Status     string         `json:"status"`
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
}

// Open opens or creates the history database at dbPath.
func Open(dbPath string) (*Log, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scrape_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			total INTEGER NOT NULL,
			categories TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create scrape_runs table: %w", err)
	}

	return &Log{db: db}, nil
}

// Record appends one run. Category counts are stored as a JSON object.
func (l *Log) Record(run Run) error {
	cats, err := json.Marshal(run.Categories)
	if err != nil {
		return fmt.Errorf("encode category counts: %w", err)
	}

	_, err = l.db.Exec(
		`INSERT INTO scrape_runs (started_at, finished_at, status, total, categories)
		 VALUES (?, ?, ?, ?, ?)`,
		run.StartedAt, run.FinishedAt, run.Status, run.Total, string(cats),
	)
	if err != nil {
		return fmt.Errorf("insert scrape run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (l *Log) Recent(limit int) ([]Run, error) {
	rows, err := l.db.Query(
		`SELECT id, started_at, finished_at, status, total, categories
		 FROM scrape_runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query scrape runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var cats string
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Total, &cats); err != nil {
			return nil, fmt.Errorf("scan scrape run: %w", err)
		}
		if err := json.Unmarshal([]byte(cats), &run.Categories); err != nil {
			run.Categories = nil
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}
