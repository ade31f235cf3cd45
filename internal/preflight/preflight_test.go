package preflight_test

import (
	"path/filepath"
	"testing"

	"mediasort/internal/preflight"
	"mediasort/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Destination directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir: %+v", result)
	}

	result = preflight.CheckDirectoryAccess("Destination directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("expected failure for missing dir: %+v", result)
	}

	file := filepath.Join(dir, "a-file")
	testsupport.WriteFile(t, file, 1)
	result = preflight.CheckDirectoryAccess("Destination directory", file)
	if result.Passed {
		t.Fatalf("expected failure for non-directory: %+v", result)
	}
}

func TestCheckSourceAccess(t *testing.T) {
	dir := t.TempDir()
	if result := preflight.CheckSourceAccess(dir); !result.Passed {
		t.Fatalf("expected pass: %+v", result)
	}
	if result := preflight.CheckSourceAccess(filepath.Join(dir, "missing")); result.Passed {
		t.Fatalf("expected failure: %+v", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()

	if result := preflight.CheckFreeSpace(dir, 1); !result.Passed {
		t.Fatalf("expected pass for 1 byte: %+v", result)
	}
	// Zero required bytes never fails, even when the probe returns little.
	if result := preflight.CheckFreeSpace(dir, 0); !result.Passed {
		t.Fatalf("expected pass for zero requirement: %+v", result)
	}
}

func TestFailedRequired(t *testing.T) {
	results := []preflight.Result{
		{Name: "ok", Passed: true},
		{Name: "bad", Passed: false},
	}
	failed := preflight.FailedRequired(results)
	if len(failed) != 1 || failed[0].Name != "bad" {
		t.Fatalf("unexpected filter result: %+v", failed)
	}
}
