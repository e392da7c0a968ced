package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"media-library/internal/logging"
)

// existingEntry annotates a catalog row with its default-collection
// membership state during reconciliation.
type existingEntry struct {
	id        int64
	hasMember bool
	seen      bool
}

// Reconcile converges the catalog to match one scan snapshot inside a
// single transaction. New files are inserted with a fresh membership at the
// next order index; re-seen files have their disk-derived attributes
// updated and the missing flag cleared; files absent from the snapshot are
// flagged missing, never deleted. Running twice with no filesystem change
// yields Added=0, Removed=0.
func (s *Store) Reconcile(files []DiskFile) (ScanResult, error) {
	start := time.Now()
	var result ScanResult
	var err error
	defer func() { recordQuery("reconcile", start, err) }()

	b, err := s.BeginBatch()
	if err != nil {
		return result, err
	}

	// Any failure below aborts the whole transaction: the catalog is left
	// exactly as it was before the scan.
	result, err = s.reconcileTx(b.Tx, files)
	if endErr := s.EndBatch(b, err); endErr != nil {
		return ScanResult{}, wrapErr(endErr)
	}

	logging.Info("Reconciled %d scanned files: %d added, %d removed, %d updated",
		len(files), result.Added, result.Removed, result.Updated)
	return result, nil
}

func (s *Store) reconcileTx(tx *sql.Tx, files []DiskFile) (ScanResult, error) {
	ctx := context.Background()
	var result ScanResult

	// Load every known row annotated with whether it already belongs to the
	// default collection. A file row without a membership is a defensive
	// case that gets backfilled below.
	rows, err := tx.QueryContext(ctx, `
		SELECT f.id, f.path, cm.id IS NOT NULL
		FROM files f
		LEFT JOIN collection_members cm
			ON cm.file_id = f.id AND cm.collection_id = ?
	`, s.libraryID)
	if err != nil {
		return result, fmt.Errorf("failed to load catalog rows: %w", err)
	}

	existing := make(map[string]*existingEntry)
	for rows.Next() {
		var entry existingEntry
		var path string
		if err := rows.Scan(&entry.id, &path, &entry.hasMember); err != nil {
			rows.Close()
			return result, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		existing[path] = &entry
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return result, err
	}
	rows.Close()

	// Next free order index for new memberships; gaps are tolerated.
	var nextIndex int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(order_index) + 1, 0)
		FROM collection_members WHERE collection_id = ?
	`, s.libraryID).Scan(&nextIndex)
	if err != nil {
		return result, fmt.Errorf("failed to determine next order index: %w", err)
	}

	for i := range files {
		df := &files[i]
		entry, ok := existing[df.Path]
		if !ok {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO files (path, name, ext, size, mtime, created_ms, duration_ms, rating, is_missing)
				VALUES (?, ?, ?, ?, ?, ?, 0, 0, 0)
			`, df.Path, df.Name, df.Ext, df.Size, df.ModTime.Unix(), df.CreatedMS)
			if err != nil {
				return result, fmt.Errorf("failed to insert %s: %w", df.Path, err)
			}
			fileID, err := res.LastInsertId()
			if err != nil {
				return result, err
			}
			if err := insertMember(tx, fileID, s.libraryID, nextIndex); err != nil {
				return result, err
			}
			nextIndex++
			result.Added++
			continue
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE files
			SET name = ?, ext = ?, size = ?, mtime = ?, created_ms = ?, is_missing = 0
			WHERE id = ?
		`, df.Name, df.Ext, df.Size, df.ModTime.Unix(), df.CreatedMS, entry.id)
		if err != nil {
			return result, fmt.Errorf("failed to update %s: %w", df.Path, err)
		}
		if !entry.hasMember {
			if err := insertMember(tx, entry.id, s.libraryID, nextIndex); err != nil {
				return result, err
			}
			nextIndex++
		}
		entry.seen = true
		result.Updated++
	}

	// Flag everything the scan did not see. Rows already missing stay
	// missing; the removed count reflects how many known rows went unseen
	// this pass.
	for path, entry := range existing {
		if entry.seen {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE files SET is_missing = 1 WHERE id = ?", entry.id,
		); err != nil {
			return result, fmt.Errorf("failed to flag %s missing: %w", path, err)
		}
		result.Removed++
	}

	return result, nil
}

// insertMember adds a collection membership; conflict-safe on
// (file_id, collection_id) so re-runs never duplicate memberships.
func insertMember(tx *sql.Tx, fileID, collectionID, orderIndex int64) error {
	_, err := tx.ExecContext(context.Background(), `
		INSERT OR IGNORE INTO collection_members (file_id, collection_id, order_index)
		VALUES (?, ?, ?)
	`, fileID, collectionID, orderIndex)
	if err != nil {
		return fmt.Errorf("failed to insert membership for file %d: %w", fileID, err)
	}
	return nil
}
