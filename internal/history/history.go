// Package history persists per-surface audit progress, so a restarted daemon
// does not re-audit assistant messages it already processed, and keeps a
// record of corrections that went out.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a sqlite-backed history database.
type Store struct {
	db *sql.DB
}

// Correction is one persisted correction record.
type Correction struct {
	ID       int64
	Identity string
	Kind     string // "adhoc" or "switch"
	Message  string
	At       time.Time
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS processed_messages (
		surface     TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		at          DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (surface, fingerprint)
	);
	CREATE TABLE IF NOT EXISTS corrections (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		identity TEXT NOT NULL,
		kind     TEXT NOT NULL,
		message  TEXT NOT NULL,
		at       DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("history: create tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MarkProcessed records that a message fingerprint was audited on a surface.
// Marking twice is harmless.
func (s *Store) MarkProcessed(surface, fingerprint string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO processed_messages (surface, fingerprint) VALUES (?, ?)`,
		surface, fingerprint)
	if err != nil {
		return fmt.Errorf("history: mark processed: %w", err)
	}
	return nil
}

// IsProcessed reports whether a fingerprint was already audited on a surface.
func (s *Store) IsProcessed(surface, fingerprint string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(1) FROM processed_messages WHERE surface = ? AND fingerprint = ?`,
		surface, fingerprint).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("history: query processed: %w", err)
	}
	return n > 0, nil
}

// RecordCorrection stores a correction that was actually sent.
func (s *Store) RecordCorrection(identity, kind, message string) error {
	_, err := s.db.Exec(
		`INSERT INTO corrections (identity, kind, message) VALUES (?, ?, ?)`,
		identity, kind, message)
	if err != nil {
		return fmt.Errorf("history: record correction: %w", err)
	}
	return nil
}

// Corrections returns the most recent corrections, newest first.
func (s *Store) Corrections(limit int) ([]Correction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, identity, kind, message, at FROM corrections ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query corrections: %w", err)
	}
	defer rows.Close()

	var out []Correction
	for rows.Next() {
		var c Correction
		if err := rows.Scan(&c.ID, &c.Identity, &c.Kind, &c.Message, &c.At); err != nil {
			return nil, fmt.Errorf("history: scan correction: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
