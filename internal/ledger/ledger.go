// Package ledger persists migration failures in a local SQLite file so
// later runs can inspect and retry them.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/folders"
)

const schema = `
CREATE TABLE IF NOT EXISTS folder_failures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	parent_id INTEGER NOT NULL,
	hierarchy TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	retry_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	UNIQUE (name, kind, parent_id)
);
CREATE TABLE IF NOT EXISTS content_failures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	hierarchy TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS asset_failures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	page_url TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
`

// Ledger is a SQLite-backed failure store. Safe for concurrent use; the
// underlying pool serializes writers.
type Ledger struct {
	db *sql.DB
}

// Open opens (and if needed creates) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordFolderFailure upserts one folder creation failure. Repeats of
// the same (name, kind, parent) refresh the error instead of piling up.
func (l *Ledger) RecordFolderFailure(name, kind string, parentID int64, hierarchy, reason string) error {
	_, err := l.db.Exec(`
		INSERT INTO folder_failures (name, kind, parent_id, hierarchy, error, retry_count, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT (name, kind, parent_id) DO UPDATE SET error = excluded.error`,
		name, kind, parentID, hierarchy, reason, time.Now().UTC())
	return err
}

// ListFolderFailures returns failures retried fewer than maxRetries
// times, oldest first.
func (l *Ledger) ListFolderFailures(maxRetries int) ([]folders.FolderFailure, error) {
	rows, err := l.db.Query(`
		SELECT id, name, kind, parent_id, hierarchy, error, retry_count
		FROM folder_failures WHERE retry_count < ? ORDER BY created_at`, maxRetries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []folders.FolderFailure
	for rows.Next() {
		var f folders.FolderFailure
		if err := rows.Scan(&f.ID, &f.Name, &f.Kind, &f.ParentID, &f.Hierarchy, &f.Reason, &f.RetryCount); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// MarkFolderRetry bumps the retry counter of one failure.
func (l *Ledger) MarkFolderRetry(id int64) error {
	_, err := l.db.Exec(`UPDATE folder_failures SET retry_count = retry_count + 1 WHERE id = ?`, id)
	return err
}

// DeleteFolderFailure removes one resolved failure.
func (l *Ledger) DeleteFolderFailure(id int64) error {
	_, err := l.db.Exec(`DELETE FROM folder_failures WHERE id = ?`, id)
	return err
}

// RecordContentFailure stores one page that could not be migrated.
func (l *Ledger) RecordContentFailure(pageURL, title, hierarchy, reason string) error {
	_, err := l.db.Exec(`
		INSERT INTO content_failures (url, title, hierarchy, reason, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		pageURL, title, hierarchy, reason, time.Now().UTC())
	return err
}

// RecordAssetFailure stores one asset that could not be migrated.
func (l *Ledger) RecordAssetFailure(assetURL, pageURL, reason string) error {
	_, err := l.db.Exec(`
		INSERT INTO asset_failures (url, page_url, reason, created_at)
		VALUES (?, ?, ?, ?)`,
		assetURL, pageURL, reason, time.Now().UTC())
	return err
}
