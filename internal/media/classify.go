package media

import (
	"path/filepath"
	"strings"
)

// Class identifies the coarse media category of a scanned file. Values are
// persisted in the run database, so they must remain stable.
type Class string

const (
	ClassPhoto Class = "PHOTO"
	ClassVideo Class = "VIDEO"
	ClassRAW   Class = "RAW"
	ClassOther Class = "OTHER"
)

var photoExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".heic": {}, ".heif": {},
	".bmp": {}, ".tif": {}, ".tiff": {}, ".gif": {}, ".webp": {},
}

var rawExts = map[string]struct{}{
	".cr2": {}, ".cr3": {}, ".nef": {}, ".nrw": {}, ".arw": {}, ".raf": {},
	".rw2": {}, ".orf": {}, ".pef": {}, ".rwl": {}, ".x3f": {}, ".dng": {},
}

var videoExts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".m4v": {}, ".avi": {}, ".wmv": {}, ".webm": {},
	".mkv": {}, ".3gp": {}, ".mts": {}, ".m2ts": {}, ".mpg": {}, ".mpeg": {},
	".vob": {}, ".ts": {}, ".flv": {},
}

// excludedExts lists extensions never ingested regardless of class filters:
// sidecars, databases, archives, executables.
var excludedExts = map[string]struct{}{
	".xmp": {}, ".aae": {}, ".db": {}, ".sqlite": {}, ".xml": {}, ".json": {},
	".exe": {}, ".msi": {}, ".zip": {}, ".rar": {}, ".7z": {},
}

// Ext returns the lowercased extension of path including the leading dot, or
// an empty string when the name has none.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Classify maps a file extension (with leading dot) to its media class.
// RAW is checked before VIDEO and PHOTO so overlapping vendor extensions
// resolve to RAW. Unknown extensions classify as OTHER.
func Classify(ext string) Class {
	e := strings.ToLower(ext)
	if _, ok := rawExts[e]; ok {
		return ClassRAW
	}
	if _, ok := videoExts[e]; ok {
		return ClassVideo
	}
	if _, ok := photoExts[e]; ok {
		return ClassPhoto
	}
	return ClassOther
}

// Excluded reports whether the extension is in the fixed exclusion set.
func Excluded(ext string) bool {
	_, ok := excludedExts[strings.ToLower(ext)]
	return ok
}

// ParseClass validates a persisted class value.
func ParseClass(value string) (Class, bool) {
	switch Class(strings.ToUpper(strings.TrimSpace(value))) {
	case ClassPhoto:
		return ClassPhoto, true
	case ClassVideo:
		return ClassVideo, true
	case ClassRAW:
		return ClassRAW, true
	case ClassOther:
		return ClassOther, true
	default:
		return "", false
	}
}

// String returns the persisted representation.
func (c Class) String() string { return string(c) }
