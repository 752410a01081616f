// Package history keeps a sqlite ledger of dispatch runs and the outcome of
// every item they sent.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run statuses.
const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusAllFailed   = "all_failed"
	StatusInterrupted = "interrupted"
	StatusError       = "error"
)

// Item outcomes.
const (
	OutcomePending   = "pending"
	OutcomeSent      = "sent"
	OutcomeSimulated = "simulated"
	OutcomeFailed    = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	csv_path    TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	dry_run     INTEGER NOT NULL DEFAULT 0,
	total       INTEGER NOT NULL DEFAULT 0,
	sent        INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx      INTEGER NOT NULL,
	prompt   TEXT NOT NULL,
	outcome  TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	error    TEXT,
	PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// timeLayout is fixed-width so stored UTC timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one row of the runs table.
type Run struct {
	ID         string    `json:"id"`
	CSVPath    string    `json:"csv_path"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"` // zero while the run is in progress
	DryRun     bool      `json:"dry_run"`
	Total      int       `json:"total"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Status     string    `json:"status"`
}

// Item is the recorded outcome of one work item within a run.
type Item struct {
	Index    int    `json:"index"`
	Prompt   string `json:"prompt"`
	Outcome  string `json:"outcome"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// DB is an open history database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// StartRun inserts a run row.
func (d *DB) StartRun(ctx context.Context, r Run) error {
	if r.Status == "" {
		r.Status = StatusRunning
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO runs (id, csv_path, started_at, dry_run, total, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.CSVPath, r.StartedAt.UTC().Format(timeLayout), r.DryRun, r.Total, r.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.ID, err)
	}
	return nil
}

// FinishRun stores the final counts and status of a run.
func (d *DB) FinishRun(ctx context.Context, id string, at time.Time, total, sent, failed int, status string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, total = ?, sent = ?, failed = ?, status = ? WHERE id = ?`,
		at.UTC().Format(timeLayout), total, sent, failed, status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// RecordItem inserts or replaces the outcome of one item.
func (d *DB) RecordItem(ctx context.Context, runID string, it Item) error {
	var errText sql.NullString
	if it.Error != "" {
		errText = sql.NullString{String: it.Error, Valid: true}
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO items (run_id, idx, prompt, outcome, attempts, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, it.Index, it.Prompt, it.Outcome, it.Attempts, errText,
	)
	if err != nil {
		return fmt.Errorf("failed to record item %d of run %s: %w", it.Index, runID, err)
	}
	return nil
}

// ListRuns returns the n most recent runs, newest first. n <= 0 returns all.
func (d *DB) ListRuns(ctx context.Context, n int) ([]Run, error) {
	query := `SELECT id, csv_path, started_at, finished_at, dry_run, total, sent, failed, status
		FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []interface{}
	if n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.CSVPath, &started, &finished, &r.DryRun,
			&r.Total, &r.Sent, &r.Failed, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s: bad started_at %q: %w", r.ID, started, err)
		}
		if finished.Valid {
			if r.FinishedAt, err = time.Parse(timeLayout, finished.String); err != nil {
				return nil, fmt.Errorf("run %s: bad finished_at %q: %w", r.ID, finished.String, err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Items returns the recorded items of a run in send order.
func (d *DB) Items(ctx context.Context, runID string) ([]Item, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT idx, prompt, outcome, attempts, error FROM items WHERE run_id = ? ORDER BY idx`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it      Item
			errText sql.NullString
		)
		if err := rows.Scan(&it.Index, &it.Prompt, &it.Outcome, &it.Attempts, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Error = errText.String
		items = append(items, it)
	}
	return items, rows.Err()
}
