package scanner

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"media-library/internal/catalog"
	"media-library/internal/logging"
	"media-library/internal/mediatypes"
)

// CacheDirName is the reserved subdirectory under the root that holds
// generated thumbnail artifacts. The scanner never descends into it, so
// generated images are never cataloged as media.
const CacheDirName = ".thumbnails"

// Scan walks the directory tree under root and returns every recognized
// media file as a snapshot of "what exists on disk right now". Relative
// paths use forward slashes regardless of platform; they are the stable
// identity keys the reconciler diffs against the catalog.
//
// Dot-prefixed entries (the thumbnail cache, the catalog file itself,
// editor droppings) are skipped. Unreadable entries are logged and skipped
// without aborting the walk. Directory symlinks are not followed, which
// also guards against symlink cycles.
func Scan(root string) ([]catalog.DiskFile, error) {
	start := time.Now()
	var files []catalog.DiskFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		if !mediatypes.IsMediaFile(ext) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Error stating %s: %v", path, err)
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			logging.Warn("Error resolving relative path for %s: %v", path, err)
			return nil
		}

		files = append(files, catalog.DiskFile{
			Path:      filepath.ToSlash(relPath),
			Name:      name,
			Ext:       ext,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			CreatedMS: creationTimeMS(info),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Debug("Scanned %s: %d media files in %v", root, len(files), time.Since(start))
	return files, nil
}
