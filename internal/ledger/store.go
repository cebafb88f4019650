// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a local SQLite record of conversion outcomes.
//
// The pipeline itself holds no state; callers record each outcome after a
// run returns. Partial successes in the ledger are the documents a
// housekeeping process may want to inspect or clean up remotely.
// Implements: docs/ARCHITECTURE § Outcome Ledger.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cad-bridge/pkg/types"
)

const defaultLimit = 50

// Entry is one recorded outcome.
type Entry struct {
	ID          int64             `json:"id" yaml:"id"`
	RecordedAt  time.Time         `json:"recorded_at" yaml:"recorded_at"`
	Kind        types.OutcomeKind `json:"kind" yaml:"kind"`
	DocID       string            `json:"doc_id,omitempty" yaml:"doc_id,omitempty"`
	DocName     string            `json:"doc_name,omitempty" yaml:"doc_name,omitempty"`
	URL         string            `json:"url,omitempty" yaml:"url,omitempty"`
	FailedStage types.Stage       `json:"failed_stage,omitempty" yaml:"failed_stage,omitempty"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Filter narrows List results.
type Filter struct {
	// Kind keeps only entries of this kind when set.
	Kind types.OutcomeKind
	// Limit caps the number of entries (default 50, negative for no cap).
	Limit int
}

// Store manages the ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating the parent
// directory and schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at TEXT NOT NULL,
			kind TEXT NOT NULL,
			doc_id TEXT,
			doc_name TEXT,
			url TEXT,
			failed_stage TEXT,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_kind ON outcomes(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_doc_id ON outcomes(doc_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores out with timestamp at and returns the new entry id.
func (s *Store) Record(ctx context.Context, at time.Time, out types.ConversionOutcome) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (recorded_at, kind, doc_id, doc_name, url, failed_stage, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano), string(out.Kind),
		out.DocID, out.DocName, out.URL, string(out.FailedStage), out.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("recording outcome: %w", err)
	}
	return res.LastInsertId()
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}

	q := `SELECT id, recorded_at, kind, doc_id, doc_name, url, failed_stage, error FROM outcomes`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"

	limit := f.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                                        Entry
			recordedAt, kind                         string
			docID, docName, url, failedStage, errMsg sql.NullString
		)
		if err := rows.Scan(&e.ID, &recordedAt, &kind, &docID, &docName, &url, &failedStage, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			e.RecordedAt = t
		}
		e.Kind = types.OutcomeKind(kind)
		e.DocID = docID.String
		e.DocName = docName.String
		e.URL = url.String
		e.FailedStage = types.Stage(failedStage.String)
		e.Error = errMsg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
