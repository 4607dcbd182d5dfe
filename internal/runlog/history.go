package runlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mrfetch/internal/fetcher"
)

// Run is one recorded pipeline run.
type Run struct {
	ID        int64
	Manifest  string
	Started   time.Time
	Finished  time.Time
	Total     int
	Succeeded int
	Failed    int
	Bytes     int64
}

// History is a SQLite-backed archive of past runs and their per-item
// outcomes.
type History struct {
	db *sql.DB
}

// OpenHistory opens (creating if necessary) the history database at path.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history db: %w", err)
	}

	// WAL and a busy timeout keep concurrent readers out of trouble.
	if _, err := db.Exec(`
		PRAGMA busy_timeout = 5000;
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure history db: %w", err)
	}

	h := &History{db: db}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		manifest TEXT NOT NULL,
		started DATETIME NOT NULL,
		finished DATETIME NOT NULL,
		total INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		bytes INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		success INTEGER NOT NULL,
		filename TEXT,
		size INTEGER NOT NULL,
		error TEXT,
		UNIQUE(run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_run_items_run_id ON run_items(run_id);
	`
	if _, err := h.db.Exec(query); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

// RecordRun stores a completed run and its ordered results, returning
// the run ID.
func (h *History) RecordRun(run Run, results []fetcher.Result) (int64, error) {
	tx, err := h.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (manifest, started, finished, total, succeeded, failed, bytes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Manifest, run.Started, run.Finished, run.Total, run.Succeeded, run.Failed, run.Bytes,
	)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO run_items (run_id, position, name, url, success, filename, size, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("record run items: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.Exec(runID, i, r.Name, r.URL, r.Success, r.Key, r.Size, r.Error); err != nil {
			return 0, fmt.Errorf("record run item %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return runID, nil
}

// Runs returns the most recent runs, newest first, up to limit.
func (h *History) Runs(limit int) ([]Run, error) {
	rows, err := h.db.Query(
		`SELECT id, manifest, started, finished, total, succeeded, failed, bytes FROM runs ORDER BY started DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Manifest, &r.Started, &r.Finished, &r.Total, &r.Succeeded, &r.Failed, &r.Bytes); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Items returns the ordered results recorded for a run.
func (h *History) Items(runID int64) ([]fetcher.Result, error) {
	rows, err := h.db.Query(
		`SELECT name, url, success, filename, size, error FROM run_items WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}
	defer rows.Close()

	var results []fetcher.Result
	for rows.Next() {
		var r fetcher.Result
		var filename, errMsg sql.NullString
		if err := rows.Scan(&r.Name, &r.URL, &r.Success, &filename, &r.Size, &errMsg); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		r.Key = filename.String
		r.Error = errMsg.String
		results = append(results, r)
	}
	return results, rows.Err()
}
