package catalog

import (
	"context"
	"fmt"
	"time"
)

// SetRating overwrites a file's rating. Unknown ids affect zero rows and
// are not an error; callers are expected to clamp to 0-5.
func (s *Store) SetRating(ctx context.Context, fileID int64, rating int) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_rating", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx,
		"UPDATE files SET rating = ? WHERE id = ?", rating, fileID)
	return wrapErr(err)
}

// SetDuration overwrites a file's duration, called once metadata becomes
// known during playback.
func (s *Store) SetDuration(ctx context.Context, fileID, durationMS int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_duration", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx,
		"UPDATE files SET duration_ms = ? WHERE id = ?", durationMS, fileID)
	return wrapErr(err)
}

// RecordPlay stamps last-played with the current time and increments the
// play counter by exactly one.
func (s *Store) RecordPlay(ctx context.Context, fileID int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_play", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		UPDATE files
		SET last_played = strftime('%s', 'now'), play_count = play_count + 1
		WHERE id = ?
	`, fileID)
	return wrapErr(err)
}

// SaveOrder rewrites the default collection's order indices to be dense and
// equal to each file's position in the given list. Runs as one transaction
// so a concurrent query never observes a partially renumbered order.
func (s *Store) SaveOrder(orderedFileIDs []int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_order", start, err) }()

	b, err := s.BeginBatch()
	if err != nil {
		return err
	}

	ctx := context.Background()
	for position, fileID := range orderedFileIDs {
		if _, execErr := b.Tx.ExecContext(ctx, `
			UPDATE collection_members SET order_index = ?
			WHERE file_id = ? AND collection_id = ?
		`, position, fileID, s.libraryID); execErr != nil {
			err = fmt.Errorf("failed to reorder file %d: %w", fileID, execErr)
			break
		}
	}

	return wrapErr(s.EndBatch(b, err))
}
