package media_test

import (
	"testing"

	"mediasort/internal/media"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		ext  string
		want media.Class
	}{
		{".jpg", media.ClassPhoto},
		{".JPG", media.ClassPhoto},
		{".heic", media.ClassPhoto},
		{".mp4", media.ClassVideo},
		{".MOV", media.ClassVideo},
		{".mkv", media.ClassVideo},
		{".cr2", media.ClassRAW},
		{".dng", media.ClassRAW},
		{".pdf", media.ClassOther},
		{"", media.ClassOther},
		{".unknown", media.ClassOther},
	}
	for _, tc := range cases {
		if got := media.Classify(tc.ext); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.ext, got, tc.want)
		}
	}
}

func TestExcluded(t *testing.T) {
	for _, ext := range []string{".xmp", ".aae", ".db", ".sqlite", ".zip", ".XMP"} {
		if !media.Excluded(ext) {
			t.Fatalf("expected %q to be excluded", ext)
		}
	}
	for _, ext := range []string{".jpg", ".mp4", ".txt", ""} {
		if media.Excluded(ext) {
			t.Fatalf("did not expect %q to be excluded", ext)
		}
	}
}

func TestExt(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/a/b/IMG_0001.JPG", ".jpg"},
		{"clip.MOV", ".mov"},
		{"noext", ""},
		{"archive.tar.gz", ".gz"},
	}
	for _, tc := range cases {
		if got := media.Ext(tc.path); got != tc.want {
			t.Fatalf("Ext(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestParseClass(t *testing.T) {
	if class, ok := media.ParseClass("photo"); !ok || class != media.ClassPhoto {
		t.Fatalf("ParseClass(photo) = %v %v", class, ok)
	}
	if _, ok := media.ParseClass("document"); ok {
		t.Fatal("expected parse failure for unknown class")
	}
}
