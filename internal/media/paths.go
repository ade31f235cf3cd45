package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	bucketPhotos     = "Photos"
	bucketVideos     = "Videos"
	bucketRAW        = "RAW"
	bucketOtherByExt = "OtherByExt"
	bucketDuplicates = "Duplicates"
)

// PrimaryRelPath derives the destination path, relative to the destination
// root, for a primary file: <bucket>/<year>/<date>/<filename> for dated
// classes, OtherByExt/<EXT>/<filename> for everything else.
func PrimaryRelPath(class Class, date, filename string) string {
	year := date
	if len(year) >= 4 {
		year = date[:4]
	}
	switch class {
	case ClassPhoto:
		return filepath.Join(bucketPhotos, year, date, filename)
	case ClassVideo:
		return filepath.Join(bucketVideos, year, date, filename)
	case ClassRAW:
		return filepath.Join(bucketRAW, year, date, filename)
	default:
		return filepath.Join(bucketOtherByExt, extTag(filename), filename)
	}
}

// DuplicateRelPath derives the quarantine path for a duplicate. Duplicates
// are grouped per run rather than by date so they stay easy to audit.
func DuplicateRelPath(runID, filename string) string {
	return filepath.Join(bucketDuplicates, runID, filename)
}

// SuffixedName appends the collision suffix " (n)" before the extension.
// n == 0 returns the name unchanged.
func SuffixedName(filename string, n int) string {
	if n <= 0 {
		return filename
	}
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s (%d)%s", base, n, ext)
}

func extTag(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "NOEXT"
	}
	return strings.ToUpper(ext)
}
