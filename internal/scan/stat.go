package scan

import (
	"os"
	"time"
)

type fileStat struct {
	size  int64
	mtime time.Time
}

// statFile surfaces disappearance, permission, and stat failures to the
// caller so they can be logged as per-file scan errors.
func statFile(path string) (fileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStat{}, err
	}
	return fileStat{size: info.Size(), mtime: info.ModTime()}, nil
}
