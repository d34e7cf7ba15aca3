// Package history keeps a SQLite table of past runs next to the log files.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/runlog/internal/report"
	"git.home.luguber.info/inful/runlog/internal/vcs"
)

// SQLiteStore records finished runs. It implements report.Reporter.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the history database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		command TEXT NOT NULL,
		project TEXT NOT NULL,
		log_file TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		lines INTEGER NOT NULL,
		commit_hash TEXT,
		branch TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Name implements report.Reporter.
func (s *SQLiteStore) Name() string { return "history" }

// Report implements report.Reporter.
func (s *SQLiteStore) Report(ctx context.Context, rec report.Record) error {
	return s.Append(ctx, rec)
}

// Append inserts rec.
func (s *SQLiteStore) Append(ctx context.Context, rec report.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	commandJSON, err := json.Marshal(rec.Command)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, command, project, log_file, exit_code, lines, commit_hash, branch)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UnixNano(), rec.FinishedAt.UnixNano(), string(commandJSON),
		rec.Project, rec.LogFile, rec.ExitCode, rec.Lines, rec.Revision.Commit, rec.Revision.Branch,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]report.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, command, project, log_file, exit_code, lines, commit_hash, branch
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []report.Record
	for rows.Next() {
		var (
			rec            report.Record
			started, ended int64
			commandJSON    string
			commit, branch sql.NullString
		)
		if err := rows.Scan(&rec.ID, &started, &ended, &commandJSON, &rec.Project, &rec.LogFile,
			&rec.ExitCode, &rec.Lines, &commit, &branch); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(commandJSON), &rec.Command); err != nil {
			return nil, fmt.Errorf("unmarshal command: %w", err)
		}
		rec.StartedAt = time.Unix(0, started)
		rec.FinishedAt = time.Unix(0, ended)
		rec.Revision = vcs.Revision{Commit: commit.String, Branch: branch.String}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
