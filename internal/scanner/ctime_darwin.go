//go:build darwin

package scanner

import (
	"io/fs"
	"syscall"
)

// creationTimeMS extracts the file birth time in milliseconds.
func creationTimeMS(info fs.FileInfo) int64 {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return int64(stat.Birthtimespec.Sec)*1000 + int64(stat.Birthtimespec.Nsec)/1e6
	}
	return info.ModTime().UnixMilli()
}
