package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"media-library/internal/logging"
	"media-library/internal/metrics"
)

// CatalogFileName is the fixed hidden filename of the catalog, directly
// beneath the library root.
const CatalogFileName = ".library.db"

// LibraryCollection is the name of the default collection bootstrapped on
// open. It holds the canonical manual playlist ordering.
const LibraryCollection = "Library"

// Default timeout for single catalog operations.
const defaultTimeout = 5 * time.Second

// Failure kinds surfaced to callers. Check with errors.Is.
var (
	// ErrNotOpen is returned when an operation requires an open catalog.
	ErrNotOpen = errors.New("catalog not open")
	// ErrTxFailed is returned when a transaction could not be committed.
	ErrTxFailed = errors.New("catalog transaction failed")
	// ErrConstraint is returned when a write violates a schema constraint.
	ErrConstraint = errors.New("catalog constraint violation")
)

// Store manages the catalog for one library root.
type Store struct {
	db        *sql.DB
	root      string
	dbPath    string
	libraryID int64
	mu        sync.RWMutex
}

// Open locates or creates the catalog file beneath root, ensures the schema
// exists and that exactly one "Library" collection row is present, and
// returns a handle bound to that root. Opening the same root repeatedly
// across process lifetimes is safe and never duplicates the default
// collection. Failure to open is fatal for the caller; there is no
// fallback root.
func Open(ctx context.Context, root string) (*Store, error) {
	dbPath := filepath.Join(root, CatalogFileName)
	logging.Info("Catalog path: %s", dbPath)

	// busy_timeout helps prevent "database is locked" errors; foreign_keys
	// enables the cascade rules the schema relies on.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		root:   root,
		dbPath: dbPath,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logging.Info("Catalog opened for root %s", root)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	-- Main files table: one row per file ever seen under the root
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		ext TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL DEFAULT 0,
		mtime INTEGER NOT NULL DEFAULT 0,
		created_ms INTEGER NOT NULL DEFAULT 0,
		rating INTEGER NOT NULL DEFAULT 0,
		meta TEXT,
		added_on INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		last_played INTEGER,
		play_count INTEGER NOT NULL DEFAULT 0,
		is_missing INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_files_missing ON files(is_missing);
	CREATE INDEX IF NOT EXISTS idx_files_rating ON files(rating);
	CREATE INDEX IF NOT EXISTS idx_files_name ON files(name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_files_created ON files(created_ms);

	-- Named collections; exactly one "Library" row is bootstrapped on open
	CREATE TABLE IF NOT EXISTS collections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'manual',
		filter_json TEXT,
		created_on INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_on INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	-- Ordered membership; order_index carries the manual playlist order
	CREATE TABLE IF NOT EXISTS collection_members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL,
		collection_id INTEGER NOT NULL,
		order_index INTEGER NOT NULL DEFAULT 0,
		added_on INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE,
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE,
		UNIQUE(file_id, collection_id)
	);

	CREATE INDEX IF NOT EXISTS idx_members_order ON collection_members(collection_id, order_index);

	-- Tags: identity is case-sensitive
	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		added_on INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	-- File-tag relationship table
	CREATE TABLE IF NOT EXISTS file_tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		added_on INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE,
		UNIQUE(file_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_file_tags_file ON file_tags(file_id);
	CREATE INDEX IF NOT EXISTS idx_file_tags_tag ON file_tags(tag_id);

	-- Settings: flat key/value store with upsert semantics
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		value TEXT
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	return s.ensureLibraryCollection(ctx)
}

// ensureLibraryCollection bootstraps the default collection exactly once.
func (s *Store) ensureLibraryCollection(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, type)
		SELECT ?, 'manual'
		WHERE NOT EXISTS (SELECT 1 FROM collections WHERE name = ?)
	`, LibraryCollection, LibraryCollection)
	if err != nil {
		return fmt.Errorf("failed to bootstrap default collection: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM collections WHERE name = ?", LibraryCollection,
	).Scan(&s.libraryID)
	if err != nil {
		return fmt.Errorf("failed to load default collection: %w", err)
	}

	return nil
}

// Root returns the library root this catalog is bound to.
func (s *Store) Root() string {
	return s.root
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Batch is one multi-statement transaction. The start time travels with the
// batch so concurrent transactions never misattribute their durations.
type Batch struct {
	Tx    *sql.Tx
	start time.Time
}

// BeginBatch starts a transaction for multi-row mutations. The caller is
// responsible for calling EndBatch when done.
func (s *Store) BeginBatch() (*Batch, error) {
	s.mu.Lock()
	start := time.Now()

	// Background context: transaction lifetime is managed by EndBatch,
	// a timeout context here would cancel the transaction on return.
	tx, err := s.db.BeginTx(context.Background(), nil)
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTxFailed, err)
	}

	return &Batch{Tx: tx, start: start}, nil
}

// EndBatch commits the batch when err is nil, or rolls it back and returns
// the original error otherwise.
func (s *Store) EndBatch(b *Batch, err error) error {
	duration := time.Since(b.start).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := b.Tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	if commitErr := b.Tx.Commit(); commitErr != nil {
		return fmt.Errorf("%w: %v", ErrTxFailed, commitErr)
	}
	return nil
}

// wrapErr maps sqlite-level errors onto the package's failure kinds.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}

// recordQuery records catalog query metrics.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
