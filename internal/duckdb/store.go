// Package duckdb persists known hotspots and regions extracted from curated
// events. Known events are stored in DuckDB (queryable, append-only per run).
// The transcript model is cached as gob files (fast, pure Go).
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding known events.
type Store struct {
	db   *sql.DB
	path string
}

// Run describes one extraction run.
type Run struct {
	ID         string
	EventsFile string
	CreatedAt  time.Time
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			events_file VARCHAR,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS known_hotspots (
			run_id VARCHAR,
			chrom VARCHAR,
			pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			gene VARCHAR,
			transcript_id VARCHAR,
			event VARCHAR,
			source VARCHAR,
			PRIMARY KEY (chrom, pos, ref, alt, transcript_id, event, source)
		)`,
		`CREATE TABLE IF NOT EXISTS known_regions (
			run_id VARCHAR,
			kind VARCHAR,
			chrom VARCHAR,
			start_pos BIGINT,
			end_pos BIGINT,
			gene VARCHAR,
			transcript_id VARCHAR,
			event VARCHAR,
			source VARCHAR,
			PRIMARY KEY (chrom, start_pos, end_pos, transcript_id, event, source)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun registers a new extraction run and returns a writer for its results.
func (s *Store) BeginRun(eventsFile string) (*RunWriter, error) {
	id := uuid.NewString()
	if _, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?)`, id, eventsFile, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &RunWriter{store: s, runID: id}, nil
}

// Runs returns all recorded runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT run_id, events_file, created_at FROM runs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.EventsFile, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Clear removes all runs and known events.
func (s *Store) Clear() error {
	for _, table := range []string{"known_hotspots", "known_regions", "runs"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
