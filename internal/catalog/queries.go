package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"media-library/internal/logging"
)

// SortMode selects the playlist ordering.
type SortMode string

const (
	// SortPlaylist orders by the manual collection order.
	SortPlaylist SortMode = "playlist"
	// SortName orders by case-insensitive file name.
	SortName SortMode = "name"
	// SortCreated orders by creation time, newest first.
	SortCreated SortMode = "created"
	// SortRandom orders by a seeded, reproducible pseudo-random key.
	SortRandom SortMode = "random"
)

// randomModulus is the prime modulus of the seeded shuffle. The ordering key
// is (id * seed) mod randomModulus, so one seed yields one stable order
// across successive page requests.
const randomModulus = 2147483647

// QueryOptions parameterizes one playlist page request.
type QueryOptions struct {
	Sort      SortMode
	MinRating int      // 0 = no rating filter
	Tags      []string // AND semantics: a file must carry every listed tag
	Limit     int      // 0 = return the full filtered result
	Offset    int
	Seed      int64 // only meaningful when Sort == SortRandom
}

// Page is one playlist page plus the total count over the same predicate.
type Page struct {
	Items []MediaFile `json:"items"`
	Total int         `json:"total"`
}

// Query composes the filter, sort and pagination parameters into a catalog
// query. Missing files are always excluded, and Total is computed over the
// identical predicate before pagination, so it matches the filter regardless
// of the requested window.
func (s *Store) Query(opts QueryOptions) (*Page, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("playlist_query", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	where, args := s.buildPredicate(opts)

	var total int
	countQuery := "SELECT COUNT(*) FROM files f " + where
	if err = s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count query failed: %w", err)
	}

	orderBy, orderArgs := orderClause(opts)

	selectQuery := `
		SELECT f.id, f.path, f.name, f.ext, f.duration_ms, f.size, f.mtime,
		       f.created_ms, f.rating, f.meta, f.added_on, f.last_played,
		       f.play_count, f.is_missing
		FROM files f
		LEFT JOIN collection_members cm
			ON cm.file_id = f.id AND cm.collection_id = ?
	` + where + orderBy

	selectArgs := append([]interface{}{s.libraryID}, args...)
	selectArgs = append(selectArgs, orderArgs...)

	switch {
	case opts.Limit > 0:
		selectQuery += " LIMIT ? OFFSET ?"
		selectArgs = append(selectArgs, opts.Limit, opts.Offset)
	case opts.Offset > 0:
		selectQuery += " LIMIT -1 OFFSET ?"
		selectArgs = append(selectArgs, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, selectQuery, selectArgs...)
	if err != nil {
		return nil, fmt.Errorf("select query failed: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Error("error closing rows: %v", closeErr)
		}
	}()

	items := []MediaFile{}
	for rows.Next() {
		file, scanErr := scanMediaFile(rows)
		if scanErr != nil {
			err = scanErr
			return nil, fmt.Errorf("scan failed: %w", scanErr)
		}
		if file.Tags, err = s.fileTags(ctx, file.ID); err != nil {
			return nil, fmt.Errorf("tag load failed for file %d: %w", file.ID, err)
		}
		items = append(items, file)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &Page{Items: items, Total: total}, nil
}

// buildPredicate assembles the shared WHERE clause for both the count and
// the page select. All user-supplied values are bound parameters.
func (s *Store) buildPredicate(opts QueryOptions) (string, []interface{}) {
	conditions := []string{"f.is_missing = 0"}
	var args []interface{}

	rating := clampRating(opts.MinRating)
	if rating > 0 {
		conditions = append(conditions, "f.rating >= ?")
		args = append(args, rating)
	}

	// AND-tag filter: require the count of distinct requested tag names
	// present among a file's tags to equal the number of requested tags.
	// This keeps the composition bounded regardless of tag-set size.
	tags := cleanTags(opts.Tags)
	if len(tags) > 0 {
		placeholders := strings.Repeat("?,", len(tags)-1) + "?"
		conditions = append(conditions, fmt.Sprintf(`f.id IN (
			SELECT ft.file_id
			FROM file_tags ft
			INNER JOIN tags t ON t.id = ft.tag_id
			WHERE t.name IN (%s)
			GROUP BY ft.file_id
			HAVING COUNT(DISTINCT t.name) = ?
		)`, placeholders))
		for _, tag := range tags {
			args = append(args, tag)
		}
		args = append(args, len(tags))
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// orderClause returns the ORDER BY fragment for the requested sort mode.
// Every mode carries an id tie-break so pagination stays stable.
func orderClause(opts QueryOptions) (string, []interface{}) {
	switch opts.Sort {
	case SortName:
		return " ORDER BY f.name COLLATE NOCASE ASC, f.id ASC", nil
	case SortCreated:
		return " ORDER BY f.created_ms DESC, f.id DESC", nil
	case SortRandom:
		return fmt.Sprintf(" ORDER BY (f.id * ?) %% %d ASC, f.id ASC", randomModulus),
			[]interface{}{opts.Seed}
	default: // SortPlaylist
		return " ORDER BY cm.order_index ASC, f.id ASC", nil
	}
}

// GetFileByID retrieves a single catalog entry, tags included.
func (s *Store) GetFileByID(ctx context.Context, id int64) (*MediaFile, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_file", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT f.id, f.path, f.name, f.ext, f.duration_ms, f.size, f.mtime,
		       f.created_ms, f.rating, f.meta, f.added_on, f.last_played,
		       f.play_count, f.is_missing
		FROM files f WHERE f.id = ?
	`, id)

	file, err := scanMediaFile(row)
	if err != nil {
		return nil, err
	}
	if file.Tags, err = s.fileTags(ctx, file.ID); err != nil {
		return nil, fmt.Errorf("tag load failed for file %d: %w", file.ID, err)
	}
	return &file, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMediaFile(row rowScanner) (MediaFile, error) {
	var file MediaFile
	var mtime, addedOn int64
	var meta sql.NullString
	var lastPlayed sql.NullInt64

	err := row.Scan(
		&file.ID, &file.Path, &file.Name, &file.Ext, &file.DurationMS,
		&file.Size, &mtime, &file.CreatedMS, &file.Rating, &meta,
		&addedOn, &lastPlayed, &file.PlayCount, &file.Missing,
	)
	if err != nil {
		return file, err
	}

	file.ModTime = time.Unix(mtime, 0)
	file.AddedOn = time.Unix(addedOn, 0)
	if meta.Valid {
		file.Meta = meta.String
	}
	if lastPlayed.Valid {
		t := time.Unix(lastPlayed.Int64, 0)
		file.LastPlayed = &t
	}
	return file, nil
}

// fileTags returns the tag names attached to a file, display-ordered.
// Caller must hold at least a read lock.
func (s *Store) fileTags(ctx context.Context, fileID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name
		FROM tags t
		INNER JOIN file_tags ft ON t.id = ft.tag_id
		WHERE ft.file_id = ?
		ORDER BY t.name COLLATE NOCASE, t.name
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Error("error closing rows: %v", closeErr)
		}
	}()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			tags = append(tags, name)
		}
	}
	return tags, rows.Err()
}

func clampRating(rating int) int {
	if rating < 0 {
		return 0
	}
	if rating > 5 {
		return 5
	}
	return rating
}

// cleanTags drops blank tag names; identity stays case-sensitive.
func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}
