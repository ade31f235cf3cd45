package media_test

import (
	"path/filepath"
	"testing"
	"time"

	"mediasort/internal/media"
)

func TestChooseDatePrefersCapture(t *testing.T) {
	capture := time.Date(2019, 6, 14, 10, 30, 0, 0, time.Local)
	mtime := time.Date(2024, 1, 2, 8, 0, 0, 0, time.Local)

	date, source := media.ChooseDate(capture, true, mtime, media.DateSourceEXIF)
	if date != "2019-06-14" {
		t.Fatalf("unexpected date: %q", date)
	}
	if source != media.DateSourceEXIF {
		t.Fatalf("unexpected source: %q", source)
	}
}

func TestChooseDateFallsBackToMTime(t *testing.T) {
	mtime := time.Date(2024, 1, 2, 8, 0, 0, 0, time.Local)

	date, source := media.ChooseDate(time.Time{}, false, mtime, media.DateSourceVideoMeta)
	if date != "2024-01-02" {
		t.Fatalf("unexpected date: %q", date)
	}
	if source != media.DateSourceMTime {
		t.Fatalf("unexpected source: %q", source)
	}

	// A zero capture time falls back even when flagged present.
	if _, source := media.ChooseDate(time.Time{}, true, mtime, media.DateSourceEXIF); source != media.DateSourceMTime {
		t.Fatalf("expected mtime fallback for zero capture, got %q", source)
	}
}

func TestCaptureSource(t *testing.T) {
	cases := []struct {
		class media.Class
		want  media.DateSource
	}{
		{media.ClassPhoto, media.DateSourceEXIF},
		{media.ClassRAW, media.DateSourceEXIF},
		{media.ClassVideo, media.DateSourceVideoMeta},
		{media.ClassOther, media.DateSourceMTime},
	}
	for _, tc := range cases {
		if got := media.CaptureSource(tc.class); got != tc.want {
			t.Fatalf("CaptureSource(%s) = %s, want %s", tc.class, got, tc.want)
		}
	}
}

func TestPrimaryRelPath(t *testing.T) {
	cases := []struct {
		class    media.Class
		date     string
		filename string
		want     string
	}{
		{media.ClassPhoto, "2019-06-14", "IMG_0001.jpg", filepath.Join("Photos", "2019", "2019-06-14", "IMG_0001.jpg")},
		{media.ClassVideo, "2021-12-31", "clip.mp4", filepath.Join("Videos", "2021", "2021-12-31", "clip.mp4")},
		{media.ClassRAW, "2020-02-29", "shot.cr2", filepath.Join("RAW", "2020", "2020-02-29", "shot.cr2")},
		{media.ClassOther, "2020-02-29", "manual.pdf", filepath.Join("OtherByExt", "PDF", "manual.pdf")},
		{media.ClassOther, "2020-02-29", "README", filepath.Join("OtherByExt", "NOEXT", "README")},
	}
	for _, tc := range cases {
		if got := media.PrimaryRelPath(tc.class, tc.date, tc.filename); got != tc.want {
			t.Fatalf("PrimaryRelPath(%s, %s, %s) = %q, want %q", tc.class, tc.date, tc.filename, got, tc.want)
		}
	}
}

func TestDuplicateRelPath(t *testing.T) {
	got := media.DuplicateRelPath("run-1", "IMG_0001.jpg")
	want := filepath.Join("Duplicates", "run-1", "IMG_0001.jpg")
	if got != want {
		t.Fatalf("DuplicateRelPath = %q, want %q", got, want)
	}
}

func TestSuffixedName(t *testing.T) {
	cases := []struct {
		filename string
		n        int
		want     string
	}{
		{"IMG_0001.jpg", 0, "IMG_0001.jpg"},
		{"IMG_0001.jpg", 1, "IMG_0001 (1).jpg"},
		{"IMG_0001.jpg", 12, "IMG_0001 (12).jpg"},
		{"README", 2, "README (2)"},
		{"archive.tar.gz", 1, "archive.tar (1).gz"},
	}
	for _, tc := range cases {
		if got := media.SuffixedName(tc.filename, tc.n); got != tc.want {
			t.Fatalf("SuffixedName(%q, %d) = %q, want %q", tc.filename, tc.n, got, tc.want)
		}
	}
}
