package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetSetting returns the value stored under name. The second return value
// reports whether the key exists at all; a stored NULL reads as "".
func (s *Store) GetSetting(ctx context.Context, name string) (string, bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_setting", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value sql.NullString
	err = s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE name = ?", name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value.String, true, nil
}

// SetSetting stores value under name with insert-or-update semantics,
// last writer wins.
func (s *Store) SetSetting(ctx context.Context, name, value string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_setting", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, value)
	return wrapErr(err)
}
