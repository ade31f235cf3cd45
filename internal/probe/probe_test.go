package probe_test

import (
	"path/filepath"
	"testing"

	"mediasort/internal/probe"
	"mediasort/internal/testsupport"
)

func TestUnixProbeHiddenFiles(t *testing.T) {
	p := probe.NewFilesystemProbe()

	if !p.IsHidden("/photos/.thumbnails") {
		t.Fatal("dot directory not hidden")
	}
	if !p.IsHidden("/photos/.DS_Store") {
		t.Fatal("dot file not hidden")
	}
	if p.IsHidden("/photos/IMG_0001.jpg") {
		t.Fatal("plain file reported hidden")
	}
	if p.IsSystem("/photos/IMG_0001.jpg") || p.IsReparse("/photos/IMG_0001.jpg") {
		t.Fatal("unix probe should not flag system or reparse attributes")
	}
}

func TestFreeBytes(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "anchor"), 1)

	free, err := probe.FreeBytes(dir)
	if err != nil {
		t.Fatalf("FreeBytes: %v", err)
	}
	if free == 0 {
		t.Fatal("expected free space on the test filesystem")
	}
}
