package metadata

import (
	"context"
	"testing"
	"time"
)

func TestParseEXIFDateTime(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"2019:06:14 10:30:00", true},
		{"2019:06:14 10:30:00.123456", true},
		{"2019-06-14 10:30:00", false},
		{"not a date", false},
		{"", false},
	}
	for _, tc := range cases {
		parsed, ok := parseEXIFDateTime(tc.value)
		if ok != tc.ok {
			t.Fatalf("parseEXIFDateTime(%q): ok=%v, want %v", tc.value, ok, tc.ok)
		}
		if ok && (parsed.Year() != 2019 || parsed.Month() != time.June) {
			t.Fatalf("parseEXIFDateTime(%q) = %s", tc.value, parsed)
		}
	}
}

func TestEXIFExtractSwallowsNonImages(t *testing.T) {
	provider := NewEXIFProvider()
	if _, ok, _ := provider.Extract(context.Background(), "/does/not/exist.jpg"); ok {
		t.Fatal("expected no capture date for a missing file")
	}
}

func TestFFprobeExtractMissingBinary(t *testing.T) {
	provider := NewFFprobeProvider("definitely-not-ffprobe-binary")
	_, ok, err := provider.Extract(context.Background(), "/does/not/matter.mp4")
	if ok {
		t.Fatal("expected no capture date from a missing binary")
	}
	if err == nil {
		t.Fatal("expected a diagnostic error")
	}
}

func TestCreationTimeLayouts(t *testing.T) {
	for _, value := range []string{
		"2021-05-01T10:30:00.000000Z",
		"2021-05-01T10:30:00Z",
		"2021-05-01T10:30:00",
		"2021-05-01 10:30:00",
	} {
		var matched bool
		for _, layout := range creationTimeLayouts {
			if _, err := time.Parse(layout, value); err == nil {
				matched = true
				break
			}
		}
		if !matched {
			t.Fatalf("no layout parses %q", value)
		}
	}
}
