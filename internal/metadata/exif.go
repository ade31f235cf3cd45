package metadata

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// EXIFProvider extracts capture dates from image EXIF metadata. It serves
// both PHOTO and RAW files; goexif reads the embedded TIFF structure most
// RAW containers share.
type EXIFProvider struct{}

// NewEXIFProvider returns the image capture-date provider.
func NewEXIFProvider() *EXIFProvider {
	return &EXIFProvider{}
}

// dateTags is the tag priority: the actual capture moment first, then
// digitization time, then the generic EXIF modification stamp.
var dateTags = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

// Extract returns the capture datetime recorded in the file's EXIF block.
// Missing EXIF data, unreadable files, and unparseable tag values all report
// no capture date rather than failing.
func (p *EXIFProvider) Extract(ctx context.Context, path string) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}

	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// Normal for images without an EXIF block.
		return time.Time{}, false, err
	}

	for _, name := range dateTags {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if t, ok := parseEXIFDateTime(value); ok {
			return t, true, nil
		}
	}
	return time.Time{}, false, nil
}
