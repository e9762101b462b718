// Package audit keeps pubops' own record of what was dispatched and how
// validation runs went. This is pubops state, entirely separate from the
// publisher database the downstream tools operate on.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed audit log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS dispatches (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword     TEXT NOT NULL,
		command     TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		exit_code   INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_dispatches_time ON dispatches(created_at);

	CREATE TABLE IF NOT EXISTS validations (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		checks      INTEGER NOT NULL,
		passed      INTEGER NOT NULL,
		failed      INTEGER NOT NULL,
		timed_out   INTEGER NOT NULL,
		errored     INTEGER NOT NULL,
		duration_ms INTEGER DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_validations_time ON validations(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Dispatch is one recorded dispatcher invocation.
type Dispatch struct {
	ID        int64
	Keyword   string
	Command   string
	Outcome   string // "ok", "exit", "timeout", "error"
	ExitCode  int
	Duration  time.Duration
	CreatedAt time.Time
}

// ValidationRun is the aggregate record of one harness run.
type ValidationRun struct {
	ID        int64
	Checks    int
	Passed    int
	Failed    int
	TimedOut  int
	Errored   int
	Duration  time.Duration
	CreatedAt time.Time
}

func (s *Store) RecordDispatch(ctx context.Context, d Dispatch) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatches (keyword, command, outcome, exit_code, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.Keyword, d.Command, d.Outcome, d.ExitCode, d.Duration.Milliseconds(), d.CreatedAt,
	)
	return err
}

func (s *Store) RecordValidation(ctx context.Context, v ValidationRun) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO validations (checks, passed, failed, timed_out, errored, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.Checks, v.Passed, v.Failed, v.TimedOut, v.Errored, v.Duration.Milliseconds(), v.CreatedAt,
	)
	return err
}

// RecentDispatches returns up to limit dispatch records, newest first.
func (s *Store) RecentDispatches(ctx context.Context, limit int) ([]Dispatch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, keyword, command, outcome, exit_code, duration_ms, created_at
		 FROM dispatches ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Dispatch
	for rows.Next() {
		var d Dispatch
		var ms int64
		if err := rows.Scan(&d.ID, &d.Keyword, &d.Command, &d.Outcome, &d.ExitCode, &ms, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecentValidations returns up to limit validation records, newest first.
func (s *Store) RecentValidations(ctx context.Context, limit int) ([]ValidationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, checks, passed, failed, timed_out, errored, duration_ms, created_at
		 FROM validations ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ValidationRun
	for rows.Next() {
		var v ValidationRun
		var ms int64
		if err := rows.Scan(&v.ID, &v.Checks, &v.Passed, &v.Failed, &v.TimedOut, &v.Errored, &ms, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
