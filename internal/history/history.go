// Package history persists build reports to SQLite so past builds can be
// inspected from the CLI.
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

	"git.home.luguber.info/inful/docpub/internal/stages"
)

// Entry is one recorded build.
type Entry struct {
	BuildID     string        `json:"build_id"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`
	Outcome     string        `json:"outcome"`
	Pages       int           `json:"pages"`
	BrokenLinks int           `json:"broken_links"`
	Error       string        `json:"error,omitempty"`
}

// Store records build history in a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (or creates) the history database.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if dbPath == ":memory:" {
		// An in-memory database exists per connection; keep a single one.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL,
		broken_links TEXT,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record persists the report of a finished build.
func (s *Store) Record(ctx context.Context, report *stages.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var brokenJSON []byte
	if len(report.BrokenLinks) > 0 {
		var err error
		brokenJSON, err = json.Marshal(report.BrokenLinks)
		if err != nil {
			return fmt.Errorf("marshal broken links: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, started, duration_ms, outcome, pages, broken_links, error) VALUES (?, ?, ?, ?, ?, ?, ?)",
		report.BuildID,
		report.Started.Unix(),
		report.Duration().Milliseconds(),
		report.Outcome,
		report.Pages,
		brokenJSON,
		report.Err,
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// Recent returns the most recent builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT build_id, started, duration_ms, outcome, pages, broken_links, error FROM builds ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			startedUnix int64
			durationMS  int64
			brokenJSON  []byte
		)
		if err := rows.Scan(&e.BuildID, &startedUnix, &durationMS, &e.Outcome, &e.Pages, &brokenJSON, &e.Error); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		e.Started = time.Unix(startedUnix, 0)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if len(brokenJSON) > 0 {
			var links []json.RawMessage
			if err := json.Unmarshal(brokenJSON, &links); err != nil {
				return nil, fmt.Errorf("unmarshal broken links: %w", err)
			}
			e.BrokenLinks = len(links)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
