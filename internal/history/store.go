package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

// Outcomes stored for a build.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// BuildRecord is one row of the builds table.
type BuildRecord struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Outcome  string
	Revision string
	Error    string
	Pages    int
}

// PageRecord is the fingerprint of one page in one build.
type PageRecord struct {
	Path        string
	Slug        string
	Fingerprint string
}

// Store is the SQLite ledger.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the ledger. Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot open build history").
			Fatal().WithContext("file", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "cannot initialize build history schema").
			Fatal().WithContext("file", dbPath).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		revision TEXT,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS pages (
		build_id TEXT NOT NULL REFERENCES builds(id),
		path TEXT NOT NULL,
		slug TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		PRIMARY KEY (build_id, path)
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a finished build and its pages in one transaction.
func (s *Store) Record(ctx context.Context, rec BuildRecord, pages []PageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO builds (id, started, finished, outcome, revision, error) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Started.UnixMilli(), rec.Finished.UnixMilli(), rec.Outcome, rec.Revision, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	for _, p := range pages {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO pages (build_id, path, slug, fingerprint) VALUES (?, ?, ?, ?)",
			rec.ID, p.Path, p.Slug, p.Fingerprint,
		)
		if err != nil {
			return fmt.Errorf("insert page %s: %w", p.Path, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.started, b.finished, b.outcome, COALESCE(b.revision, ''), COALESCE(b.error, ''),
		       (SELECT COUNT(*) FROM pages p WHERE p.build_id = b.id)
		FROM builds b ORDER BY b.started DESC, b.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var started, finished int64
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.Outcome, &rec.Revision, &rec.Error, &rec.Pages); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.Started = time.UnixMilli(started)
		rec.Finished = time.UnixMilli(finished)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return out, nil
}

// Pages returns the page fingerprints recorded for a build, keyed by path.
func (s *Store) Pages(ctx context.Context, buildID string) (map[string]PageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, slug, fingerprint FROM pages WHERE build_id = ? ORDER BY path", buildID)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := map[string]PageRecord{}
	for rows.Next() {
		var p PageRecord
		if err := rows.Scan(&p.Path, &p.Slug, &p.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out[p.Path] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
