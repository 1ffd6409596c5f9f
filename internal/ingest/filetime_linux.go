//go:build linux

package ingest

import (
	"os"
	"syscall"
	"time"
)

// fileTimes returns the inode change time and access time. Linux exposes no
// birth time through stat, ctime is the closest available value.
func fileTimes(info os.FileInfo) (created, accessed time.Time) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime(), info.ModTime()
	}

	return time.Unix(stat.Ctim.Unix()), time.Unix(stat.Atim.Unix())
}
