//go:build !linux && !darwin

package scanner

import "io/fs"

// creationTimeMS falls back to the modification time on platforms without
// an accessible birth time.
func creationTimeMS(info fs.FileInfo) int64 {
	return info.ModTime().UnixMilli()
}
