package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"media-library/internal/catalog"
	"media-library/internal/logging"
	"media-library/internal/mediatypes"
	"media-library/internal/startup"
)

// PlaylistResponse is one page of playlist items plus the filter-wide total.
type PlaylistResponse struct {
	Items  []catalog.MediaFile `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Seed   int64               `json:"seed,omitempty"`
}

// GetPlaylist serves a filtered, sorted, paginated playlist page.
//
// Query parameters: sort (playlist|name|created|random), minRating (0-5),
// tags (comma separated, AND semantics), limit, offset, seed (random sort).
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := catalog.QueryOptions{
		Sort:   parseSortMode(q.Get("sort")),
		Limit:  h.config.DefaultPageSize,
		Offset: 0,
		Seed:   1,
	}

	if v := q.Get("minRating"); v != "" {
		if rating, err := strconv.Atoi(v); err == nil {
			opts.MinRating = clamp(rating, 0, 5)
		}
	}
	if v := q.Get("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				opts.Tags = append(opts.Tags, tag)
			}
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit >= 0 {
			opts.Limit = limit
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset >= 0 {
			opts.Offset = offset
		}
	}
	if v := q.Get("seed"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			opts.Seed = seed
		}
	}

	page, err := h.lib.Query(opts)
	if err != nil {
		logging.Error("Playlist query failed: %v", err)
		writeJSONError(w, "playlist query failed", http.StatusInternalServerError)
		return
	}

	resp := PlaylistResponse{
		Items:  page.Items,
		Total:  page.Total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	if opts.Sort == catalog.SortRandom {
		resp.Seed = opts.Seed
	}
	writeJSON(w, resp)
}

func parseSortMode(value string) catalog.SortMode {
	switch catalog.SortMode(value) {
	case catalog.SortName, catalog.SortCreated, catalog.SortRandom:
		return catalog.SortMode(value)
	default:
		return catalog.SortPlaylist
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TriggerScan runs a scan-and-reconcile pass and reports its counts.
func (h *Handlers) TriggerScan(w http.ResponseWriter, r *http.Request) {
	result, err := h.lib.Scan()
	if err != nil {
		if errors.Is(err, catalog.ErrNotOpen) {
			writeJSONError(w, "no library root open", http.StatusConflict)
			return
		}
		logging.Error("Scan failed: %v", err)
		writeJSONError(w, "scan failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// GetRoot reports the currently open library root.
func (h *Handlers) GetRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"root": h.lib.Root(),
		"open": h.lib.IsOpen(),
	})
}

// SetRoot opens a new library root and triggers an initial scan.
func (h *Handlers) SetRoot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Root string `json:"root"`
	}
	if err := decodeJSONBody(r, &body); err != nil || strings.TrimSpace(body.Root) == "" {
		writeJSONError(w, "root is required", http.StatusBadRequest)
		return
	}

	root, err := filepath.Abs(body.Root)
	if err != nil {
		writeJSONError(w, "invalid root path", http.StatusBadRequest)
		return
	}
	if err := startup.ValidateRoot(root); err != nil {
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := h.lib.Open(r.Context(), root); err != nil {
		logging.Error("Failed to open root %s: %v", root, err)
		writeJSONError(w, "failed to open library root", http.StatusUnprocessableEntity)
		return
	}

	result, err := h.lib.Scan()
	if err != nil {
		logging.Error("Initial scan of %s failed: %v", root, err)
		writeJSONError(w, "root opened but initial scan failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// ServeMedia serves a media file's bytes; this is the playback URL target.
func (h *Handlers) ServeMedia(w http.ResponseWriter, r *http.Request) {
	root := h.lib.Root()
	if root == "" {
		writeJSONError(w, "no library root open", http.StatusNotFound)
		return
	}

	relPath := strings.TrimPrefix(r.URL.Path, "/media/")
	fullPath, ok := resolveUnderRoot(root, relPath)
	if !ok {
		writeJSONError(w, "invalid path", http.StatusBadRequest)
		return
	}

	ext := strings.ToLower(filepath.Ext(fullPath))
	if !mediatypes.IsMediaFile(ext) {
		writeJSONError(w, "not a media file", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(ext))
	http.ServeFile(w, r, fullPath)
}

// ServeThumbnail serves a generated artifact straight from the cache dir.
func (h *Handlers) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	cacheDir := h.lib.ThumbnailDir()
	if cacheDir == "" {
		writeJSONError(w, "no library root open", http.StatusNotFound)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/thumbs/")
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		writeJSONError(w, "invalid thumbnail name", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, filepath.Join(cacheDir, name))
}

// resolveUnderRoot joins a relative request path onto root and rejects
// anything that escapes it.
func resolveUnderRoot(root, relPath string) (string, bool) {
	if relPath == "" || strings.Contains(relPath, "..") {
		return "", false
	}
	fullPath := filepath.Join(root, filepath.FromSlash(relPath))
	if fullPath != root && !strings.HasPrefix(fullPath, root+string(filepath.Separator)) {
		return "", false
	}
	return fullPath, true
}
