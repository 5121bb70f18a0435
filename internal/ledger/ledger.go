// Package ledger persists the set of comment ids that already received a
// reply, so a comment is never answered twice across polling cycles or
// restarts. The set is bounded: when it grows past the retention cap the
// oldest entries are evicted in insertion order.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DefaultRetention caps the ledger when no explicit retention is configured.
const DefaultRetention = 500

// Ledger is a bounded, append-only set of processed comment ids backed by a
// local SQLite database.
type Ledger struct {
	db        *sql.DB
	retention int
}

// Open opens (creating if needed) the ledger database at path. A retention
// of zero or less falls back to DefaultRetention.
func Open(path string, retention int) (*Ledger, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger db: %w", err)
	}

	// Single logical writer; serialize access at the driver level.
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS processed_comments (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	comment_id   TEXT NOT NULL UNIQUE,
	processed_at TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	return &Ledger{db: db, retention: retention}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// IsProcessed reports whether the comment id was already handled. A storage
// error is logged and treated as "not processed": the worst case is a
// re-attempt, never a silently dropped comment.
func (l *Ledger) IsProcessed(id string) bool {
	var one int
	err := l.db.QueryRow(
		`SELECT 1 FROM processed_comments WHERE comment_id = ?`, id).Scan(&one)
	switch err {
	case nil:
		return true
	case sql.ErrNoRows:
		return false
	default:
		log.Error().Err(err).Str("comment_id", id).Msg("ledger lookup failed")
		return false
	}
}

// MarkProcessed records the comment id and evicts the oldest entries beyond
// the retention cap in the same transaction.
func (l *Ledger) MarkProcessed(id string) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT OR IGNORE INTO processed_comments (comment_id, processed_at) VALUES (?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record comment %s: %w", id, err)
	}

	_, err = tx.Exec(
		`DELETE FROM processed_comments WHERE seq NOT IN (
			SELECT seq FROM processed_comments ORDER BY seq DESC LIMIT ?
		)`, l.retention)
	if err != nil {
		return fmt.Errorf("failed to prune ledger: %w", err)
	}

	return tx.Commit()
}

// Size returns the number of ids currently retained.
func (l *Ledger) Size() (int, error) {
	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM processed_comments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return n, nil
}
