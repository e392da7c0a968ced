package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"media-library/internal/logging"
)

// AddTag ensures a tag row exists without associating it to any file,
// pre-seeding the tag vocabulary. Identity is case-sensitive.
func (s *Store) AddTag(ctx context.Context, name string) (*Tag, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_tag", start, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		err = errors.New("tag name cannot be empty")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := s.ensureTag(ctx, s.db, name)
	return tag, err
}

// execer covers both *sql.DB and *sql.Tx.
type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ensureTag looks up a tag by exact name, creating it if absent.
func (s *Store) ensureTag(ctx context.Context, db execer, name string) (*Tag, error) {
	var tag Tag
	var addedOn int64

	err := db.QueryRowContext(ctx,
		"SELECT id, name, added_on FROM tags WHERE name = ?", name,
	).Scan(&tag.ID, &tag.Name, &addedOn)
	if err == nil {
		tag.AddedOn = time.Unix(addedOn, 0)
		return &tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapErr(err)
	}

	result, err := db.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", wrapErr(err))
	}

	tag.ID, _ = result.LastInsertId()
	tag.Name = name
	tag.AddedOn = time.Now()
	return &tag, nil
}

// ToggleTag creates the tag row if absent, then inserts the association if
// absent or removes it if present. A strict toggle, not an idempotent
// "ensure present": toggling twice returns the file to its prior state while
// the tag row itself persists. An unknown file id is a no-op: the file may
// have been removed between listing and toggling.
func (s *Store) ToggleTag(ctx context.Context, fileID int64, name string) (tagged bool, err error) {
	start := time.Now()
	defer func() { recordQuery("toggle_tag", start, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return false, errors.New("tag name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTxFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	var exists int64
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM files WHERE id = ?", fileID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return false, nil
	}
	if err != nil {
		return false, wrapErr(err)
	}

	tag, err := s.ensureTag(ctx, tx, name)
	if err != nil {
		return false, err
	}

	var assocID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM file_tags WHERE file_id = ? AND tag_id = ?",
		fileID, tag.ID,
	).Scan(&assocID)

	switch {
	case err == nil:
		if _, err = tx.ExecContext(ctx,
			"DELETE FROM file_tags WHERE id = ?", assocID); err != nil {
			return false, wrapErr(err)
		}
		tagged = false
	case errors.Is(err, sql.ErrNoRows):
		if _, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO file_tags (file_id, tag_id) VALUES (?, ?)",
			fileID, tag.ID); err != nil {
			return false, wrapErr(err)
		}
		tagged = true
	default:
		return false, wrapErr(err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrTxFailed, err)
	}
	committed = true
	return tagged, nil
}

// ListTags returns the full tag vocabulary, ordered case-insensitively with
// an exact-name tie-break, independent of usage counts.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_tags", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM tags ORDER BY name COLLATE NOCASE, name")
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Error("error closing rows: %v", closeErr)
		}
	}()

	var names []string
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// FileTags returns the tag names attached to one file.
func (s *Store) FileTags(ctx context.Context, fileID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return s.fileTags(ctx, fileID)
}
