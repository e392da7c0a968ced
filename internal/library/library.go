package library

import (
	"context"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"media-library/internal/catalog"
	"media-library/internal/logging"
	"media-library/internal/metrics"
	"media-library/internal/scanner"
	"media-library/internal/thumbs"
)

// Library binds one open catalog root to the scanner, the query layer and
// the thumbnail worker. Exactly one root is open at a time; Open swaps to a
// new root atomically from the caller's perspective. All state lives on the
// instance, never in package globals, so tests can run several independent
// libraries in one process.
type Library struct {
	mu                sync.RWMutex
	store             *catalog.Store
	gen               *thumbs.Generator
	thumbnailsEnabled bool

	scanMu       sync.Mutex
	lastScan     catalog.ScanResult
	lastScanTime time.Time

	ready chan thumbs.Ready
}

// New creates a Library with no root open. Queries against it return empty
// pages until Open succeeds.
func New(thumbnailsEnabled bool) *Library {
	return &Library{
		thumbnailsEnabled: thumbnailsEnabled,
		ready:             make(chan thumbs.Ready, 64),
	}
}

// Open opens (or creates) the catalog beneath root and makes it the current
// one. The previous root, if any, is closed only after the new one opened
// successfully, so a failed swap leaves the library usable.
func (l *Library) Open(ctx context.Context, root string) error {
	store, err := catalog.Open(ctx, root)
	if err != nil {
		return err
	}

	gen := thumbs.New(filepath.Join(root, scanner.CacheDirName), l.thumbnailsEnabled)
	go l.forwardReady(gen)

	l.mu.Lock()
	oldStore, oldGen := l.store, l.gen
	l.store, l.gen = store, gen
	l.mu.Unlock()

	if oldGen != nil {
		oldGen.Close()
	}
	if oldStore != nil {
		if err := oldStore.Close(); err != nil {
			logging.Warn("Failed to close previous catalog: %v", err)
		}
		logging.Info("Switched library root: %s -> %s", oldStore.Root(), root)
	}
	return nil
}

// Close releases the open catalog and stops the thumbnail workers.
func (l *Library) Close() {
	l.mu.Lock()
	store, gen := l.store, l.gen
	l.store, l.gen = nil, nil
	l.mu.Unlock()

	if gen != nil {
		gen.Close()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logging.Warn("Failed to close catalog: %v", err)
		}
	}
}

// Root returns the currently open root, or "" when none is open.
func (l *Library) Root() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.store == nil {
		return ""
	}
	return l.store.Root()
}

// IsOpen reports whether a catalog root is currently open.
func (l *Library) IsOpen() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store != nil
}

func (l *Library) current() (*catalog.Store, *thumbs.Generator) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store, l.gen
}

// Scan walks the current root and reconciles the catalog against the
// snapshot in one transaction. Concurrent Scan calls are serialized.
func (l *Library) Scan() (catalog.ScanResult, error) {
	store, _ := l.current()
	if store == nil {
		return catalog.ScanResult{}, catalog.ErrNotOpen
	}

	l.scanMu.Lock()
	defer l.scanMu.Unlock()

	start := time.Now()
	metrics.ScanRunsTotal.Inc()

	files, err := scanner.Scan(store.Root())
	if err != nil {
		metrics.ScanErrors.Inc()
		return catalog.ScanResult{}, err
	}
	metrics.ScanFilesSeen.Add(float64(len(files)))

	result, err := store.Reconcile(files)
	if err != nil {
		metrics.ScanErrors.Inc()
		return catalog.ScanResult{}, err
	}

	duration := time.Since(start)
	metrics.ScanLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.ScanLastRunDuration.Set(duration.Seconds())

	l.lastScan = result
	l.lastScanTime = time.Now()

	logging.Info("Scan of %s complete in %v: %+v", store.Root(), duration, result)
	return result, nil
}

// LastScan returns the most recent scan result and when it finished.
func (l *Library) LastScan() (catalog.ScanResult, time.Time) {
	l.scanMu.Lock()
	defer l.scanMu.Unlock()
	return l.lastScan, l.lastScanTime
}

// Query runs a playlist query against the open catalog and enriches each
// item with its absolute path, playback URL and thumbnail status. With no
// root open it returns an empty page with total 0 rather than an error,
// matching first-run expectations.
func (l *Library) Query(opts catalog.QueryOptions) (*catalog.Page, error) {
	store, gen := l.current()
	if store == nil {
		return &catalog.Page{Items: []catalog.MediaFile{}, Total: 0}, nil
	}

	page, err := store.Query(opts)
	if err != nil {
		return nil, err
	}

	root := store.Root()
	for i := range page.Items {
		item := &page.Items[i]
		item.AbsolutePath = filepath.Join(root, filepath.FromSlash(item.Path))
		// Escape each segment so names with '#', '?' or spaces stay
		// addressable.
		item.URL = (&url.URL{Path: "/media/" + item.Path}).EscapedPath()

		if gen == nil || !gen.IsEnabled() {
			continue
		}
		if gen.Exists(item.Path) {
			item.ThumbnailURL = "/thumbs/" + gen.CacheKey(item.Path)
		} else {
			// Fire-and-forget; the field stays absent until a later
			// request observes the artifact on disk.
			gen.Enqueue(item.AbsolutePath, item.Path)
		}
	}

	return page, nil
}

// ThumbnailReady returns the stream of artifact notifications from the
// current and any previous thumbnail workers.
func (l *Library) ThumbnailReady() <-chan thumbs.Ready {
	return l.ready
}

// forwardReady fans one generator's notifications into the library-wide
// channel; exits when that generator is closed.
func (l *Library) forwardReady(gen *thumbs.Generator) {
	for r := range gen.Ready() {
		select {
		case l.ready <- r:
		default:
		}
	}
}

// SetRating overwrites a file's rating.
func (l *Library) SetRating(ctx context.Context, fileID int64, rating int) error {
	store, _ := l.current()
	if store == nil {
		return catalog.ErrNotOpen
	}
	return store.SetRating(ctx, fileID, rating)
}

// SetDuration overwrites a file's known playback duration.
func (l *Library) SetDuration(ctx context.Context, fileID, durationMS int64) error {
	store, _ := l.current()
	if store == nil {
		return catalog.ErrNotOpen
	}
	return store.SetDuration(ctx, fileID, durationMS)
}

// RecordPlay bumps a file's play statistics.
func (l *Library) RecordPlay(ctx context.Context, fileID int64) error {
	store, _ := l.current()
	if store == nil {
		return catalog.ErrNotOpen
	}
	return store.RecordPlay(ctx, fileID)
}

// ToggleTag flips a tag on a file, creating the tag on first use.
func (l *Library) ToggleTag(ctx context.Context, fileID int64, name string) (bool, error) {
	store, _ := l.current()
	if store == nil {
		return false, catalog.ErrNotOpen
	}
	return store.ToggleTag(ctx, fileID, name)
}

// AddTag pre-seeds the tag vocabulary.
func (l *Library) AddTag(ctx context.Context, name string) error {
	store, _ := l.current()
	if store == nil {
		return catalog.ErrNotOpen
	}
	_, err := store.AddTag(ctx, name)
	return err
}

// ListTags returns the tag vocabulary for selection menus.
func (l *Library) ListTags(ctx context.Context) ([]string, error) {
	store, _ := l.current()
	if store == nil {
		return []string{}, nil
	}
	tags, err := store.ListTags(ctx)
	if tags == nil {
		tags = []string{}
	}
	return tags, err
}

// SaveOrder rewrites the manual playlist order.
func (l *Library) SaveOrder(orderedFileIDs []int64) error {
	store, _ := l.current()
	if store == nil {
		return catalog.ErrNotOpen
	}
	return store.SaveOrder(orderedFileIDs)
}

// GetSetting reads one settings key.
func (l *Library) GetSetting(ctx context.Context, name string) (string, bool, error) {
	store, _ := l.current()
	if store == nil {
		return "", false, catalog.ErrNotOpen
	}
	return store.GetSetting(ctx, name)
}

// SetSetting upserts one settings key.
func (l *Library) SetSetting(ctx context.Context, name, value string) error {
	store, _ := l.current()
	if store == nil {
		return catalog.ErrNotOpen
	}
	return store.SetSetting(ctx, name, value)
}

// ThumbnailDir returns the cache directory serving /thumbs/, or "".
func (l *Library) ThumbnailDir() string {
	root := l.Root()
	if root == "" {
		return ""
	}
	return filepath.Join(root, scanner.CacheDirName)
}
