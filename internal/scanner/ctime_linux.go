//go:build linux

package scanner

import (
	"io/fs"
	"syscall"
)

// creationTimeMS extracts a creation timestamp in milliseconds. Linux
// filesystems don't surface btime through os.Stat, so the status-change
// time is the closest stand-in.
func creationTimeMS(info fs.FileInfo) int64 {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return int64(stat.Ctim.Sec)*1000 + int64(stat.Ctim.Nsec)/1e6
	}
	return info.ModTime().UnixMilli()
}
