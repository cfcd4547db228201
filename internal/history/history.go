// SPDX-License-Identifier: MPL-2.0

// Package history keeps a sqlite log of past sweeps and their size records,
// so bitcode growth can be followed across pass revisions.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, registered as "sqlite"

	"github.com/boundcheck/benchsweep/internal/sweep"
)

// ErrInvalidLimit is returned by Recent for a non-positive limit.
var ErrInvalidLimit = errors.New("limit must be positive")

var schema = []string{`
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	preset      TEXT NOT NULL,
	output_dir  TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	steps       INTEGER NOT NULL,
	failures    INTEGER NOT NULL,
	aborted     INTEGER NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS size_records (
	run_id           INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position         INTEGER NOT NULL,
	name             TEXT NOT NULL,
	original_size    INTEGER NOT NULL,
	transformed_size INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
)`}

type (
	// Run summarizes one recorded sweep.
	Run struct {
		ID               int64
		Preset           string
		OutputDir        string
		StartedAt        time.Time
		FinishedAt       time.Time
		Steps            int
		Failures         int
		Aborted          bool
		Benchmarks       int
		OriginalTotal    int64
		TransformedTotal int64
	}

	// Store is the sqlite-backed run history.
	Store struct {
		db *sql.DB
	}
)

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished sweep and returns its run id.
func (s *Store) Record(ctx context.Context, report *sweep.Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (preset, output_dir, started_at, finished_at, steps, failures, aborted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.Preset, report.OutputDir,
		formatTime(report.StartedAt), formatTime(report.FinishedAt),
		len(report.Steps), len(report.Failures()), report.Aborted)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, rec := range report.Sizes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO size_records (run_id, position, name, original_size, transformed_size)
			 VALUES (?, ?, ?, ?, ?)`,
			id, i, rec.Name, rec.OriginalSize, rec.TransformedSize); err != nil {
			return 0, fmt.Errorf("failed to insert size record %s: %w", rec.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Recent returns up to limit runs, newest first, with size totals.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.preset, r.output_dir, r.started_at, r.finished_at,
		       r.steps, r.failures, r.aborted,
		       COUNT(z.name), COALESCE(SUM(z.original_size), 0), COALESCE(SUM(z.transformed_size), 0)
		FROM runs r
		LEFT JOIN size_records z ON z.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r               Run
			started, finish string
		)
		if err := rows.Scan(&r.ID, &r.Preset, &r.OutputDir, &started, &finish,
			&r.Steps, &r.Failures, &r.Aborted,
			&r.Benchmarks, &r.OriginalTotal, &r.TransformedTotal); err != nil {
			return nil, err
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if r.FinishedAt, err = parseTime(finish); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Sizes returns the size records of one run in sweep order.
func (s *Store) Sizes(ctx context.Context, runID int64) ([]sweep.SizeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, original_size, transformed_size FROM size_records WHERE run_id = ? ORDER BY position`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sweep.SizeRecord
	for rows.Next() {
		var rec sweep.SizeRecord
		if err := rows.Scan(&rec.Name, &rec.OriginalSize, &rec.TransformedSize); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Ratio is the transformed/original total as a percentage.
func (r Run) Ratio() (float64, bool) {
	return sweep.SizeRatio(r.OriginalTotal, r.TransformedTotal)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}
