package media

import "time"

// DateSource records which source supplied a file's chosen date. Values are
// persisted in the run database.
type DateSource string

const (
	// DateSourceEXIF marks a capture date extracted from image metadata.
	DateSourceEXIF DateSource = "TAKEN_EXIF"
	// DateSourceVideoMeta marks a creation date extracted from a video
	// container.
	DateSourceVideoMeta DateSource = "CREATED_META"
	// DateSourceMTime marks the filesystem-modified-time fallback.
	DateSourceMTime DateSource = "MTIME"
)

// DateLayout is the chosen-date representation used in destination paths and
// the run database.
const DateLayout = "2006-01-02"

// CaptureSource returns the provenance tag for a capture date of the given
// class: EXIF for photos and RAW, container metadata for video. OTHER files
// never carry a capture date, so their tag is the mtime fallback.
func CaptureSource(class Class) DateSource {
	switch class {
	case ClassPhoto, ClassRAW:
		return DateSourceEXIF
	case ClassVideo:
		return DateSourceVideoMeta
	default:
		return DateSourceMTime
	}
}

// ChooseDate resolves the date used for destination organization. The
// capture time wins when present; otherwise the file's modified time is used
// and the provenance records the fallback.
func ChooseDate(capture time.Time, haveCapture bool, mtime time.Time, source DateSource) (string, DateSource) {
	if haveCapture && !capture.IsZero() {
		return capture.Format(DateLayout), source
	}
	return mtime.Format(DateLayout), DateSourceMTime
}
