package catalog

import "time"

// MediaFile is one catalog entry per on-disk file ever seen under the root.
// Rows are never deleted by a scan, only flagged missing, so ratings, tags
// and play history survive temporary removals.
type MediaFile struct {
	ID         int64      `json:"id"`
	Path       string     `json:"path"` // root-relative, slash-separated
	Name       string     `json:"name"`
	Ext        string     `json:"ext"`
	DurationMS int64      `json:"durationMs"`
	Size       int64      `json:"size"`
	ModTime    time.Time  `json:"modTime"`
	CreatedMS  int64      `json:"createdMs"`
	Rating     int        `json:"rating"`
	Meta       string     `json:"meta,omitempty"`
	AddedOn    time.Time  `json:"addedOn"`
	LastPlayed *time.Time `json:"lastPlayed,omitempty"`
	PlayCount  int64      `json:"playCount"`
	Missing    bool       `json:"missing,omitempty"`
	Tags       []string   `json:"tags,omitempty"`

	// Enrichment fields populated by the library layer, not persisted.
	AbsolutePath string `json:"absolutePath,omitempty"`
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// DiskFile is one file discovered by a filesystem scan. Path is the stable
// identity key for reconciliation: root-relative with forward slashes.
type DiskFile struct {
	Path      string
	Name      string
	Ext       string // lowercase, with leading dot
	Size      int64
	ModTime   time.Time
	CreatedMS int64
}

// ScanResult reports what one reconciliation pass changed.
type ScanResult struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Updated int `json:"updated"`
}

// Tag is a named label, unique by case-sensitive name.
type Tag struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	AddedOn time.Time `json:"addedOn"`
}
