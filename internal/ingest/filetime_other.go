//go:build !linux

package ingest

import (
	"os"
	"time"
)

func fileTimes(info os.FileInfo) (created, accessed time.Time) {
	return info.ModTime(), info.ModTime()
}
