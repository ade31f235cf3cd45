package metadata

import (
	"context"
	"time"
)

// DateProvider extracts a capture datetime from a media file. Extraction
// failures are swallowed by implementations and reported as "no capture
// date" (false), never as a fatal error; the returned error exists only for
// diagnostics.
type DateProvider interface {
	Extract(ctx context.Context, path string) (time.Time, bool, error)
}

// exifLayouts are the datetime layouts EXIF tags carry, in parse order.
var exifLayouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04:05.999999",
}

func parseEXIFDateTime(value string) (time.Time, bool) {
	for _, layout := range exifLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
