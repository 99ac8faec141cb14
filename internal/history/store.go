// Package history persists verification-run records so watch mode and the
// history command can show what ran, against which schema, and how it ended.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/structgen/internal/observability"
)

// Run is one recorded pipeline run.
type Run struct {
	ID         int64
	RunID      string
	Schema     string
	Package    string
	Outcome    string // success|failed|canceled
	Workspace  string
	Error      string
	DurationMS int64
	StartedAt  time.Time
}

// approxSize estimates the stored row size for storage metrics.
func (r Run) approxSize() int64 {
	return int64(len(r.RunID) + len(r.Schema) + len(r.Package) +
		len(r.Outcome) + len(r.Workspace) + len(r.Error) + 24)
}

// Store is a SQLite-backed run history. Use ":memory:" for an in-memory
// database, or a file path for persistent storage.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	keep int
}

// NewStore opens (creating if needed) the history database. keep bounds the
// retained rows; zero or negative keeps everything.
func NewStore(dbPath string, keep int) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db, keep: keep}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		schema_location TEXT NOT NULL,
		target_package TEXT NOT NULL,
		outcome TEXT NOT NULL,
		workspace TEXT,
		error TEXT,
		duration_ms INTEGER NOT NULL,
		started_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_schema ON runs(schema_location);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts a run and prunes rows past the retention bound.
func (s *Store) Record(ctx context.Context, run Run) error {
	ctx, span := observability.GetGlobalTracer().StartStorageSpan(ctx, "insert", "run")
	err := s.record(ctx, run)
	observability.EndSpan(span, err)
	if err == nil {
		observability.GetMetricsCollector().RecordStorageOperation("insert", run.approxSize())
	}
	return err
}

func (s *Store) record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, schema_location, target_package, outcome, workspace, error, duration_ms, started_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		run.RunID, run.Schema, run.Package, run.Outcome, run.Workspace, run.Error, run.DurationMS, startedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if s.keep > 0 {
		_, err = s.db.ExecContext(ctx,
			"DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)",
			s.keep,
		)
		if err != nil {
			return fmt.Errorf("prune runs: %w", err)
		}
	}

	return nil
}

// Recent returns the newest runs, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	ctx, span := observability.GetGlobalTracer().StartStorageSpan(ctx, "query", "run")
	runs, err := s.recent(ctx, limit)
	observability.EndSpan(span, err)
	if err == nil {
		observability.GetMetricsCollector().RecordStorageOperation("query", 0)
	}
	return runs, err
}

func (s *Store) recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, schema_location, target_package, outcome, workspace, error, duration_ms, started_at FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// BySchema returns the newest runs for one schema location, most recent first.
func (s *Store) BySchema(ctx context.Context, schema string, limit int) ([]Run, error) {
	ctx, span := observability.GetGlobalTracer().StartStorageSpan(ctx, "query", "run")
	runs, err := s.bySchema(ctx, schema, limit)
	observability.EndSpan(span, err)
	if err == nil {
		observability.GetMetricsCollector().RecordStorageOperation("query", 0)
	}
	return runs, err
}

func (s *Store) bySchema(ctx context.Context, schema string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, schema_location, target_package, outcome, workspace, error, duration_ms, started_at FROM runs WHERE schema_location = ? ORDER BY id DESC LIMIT ?",
		schema, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var startedAtUnix int64

		err := rows.Scan(&r.ID, &r.RunID, &r.Schema, &r.Package, &r.Outcome, &r.Workspace, &r.Error, &r.DurationMS, &startedAtUnix)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(startedAtUnix, 0)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return runs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
