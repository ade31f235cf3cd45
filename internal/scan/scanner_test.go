package scan_test

import (
	"context"
	"path/filepath"
	"testing"

	"mediasort/internal/media"
	"mediasort/internal/probe"
	"mediasort/internal/scan"
	"mediasort/internal/store"
	"mediasort/internal/testsupport"
)

func newScanner(st *store.Store) *scan.Scanner {
	return scan.NewScanner(st, probe.NewFilesystemProbe(), nil, nil, 1, nil)
}

func TestScanFiltersAndRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMinFileSize(10))
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := t.TempDir()
	source := filepath.Join(base, "source")
	dest := filepath.Join(base, "dest")
	testsupport.WriteFile(t, filepath.Join(source, "photo.jpg"), 100)
	testsupport.WriteFile(t, filepath.Join(source, "clip.mp4"), 200)
	testsupport.WriteFile(t, filepath.Join(source, "shot.cr2"), 300)
	testsupport.WriteFile(t, filepath.Join(source, "notes.txt"), 50)
	testsupport.WriteFile(t, filepath.Join(source, "sidecar.xmp"), 50)
	testsupport.WriteFile(t, filepath.Join(source, "tiny.jpg"), 5)
	testsupport.WriteFile(t, filepath.Join(source, ".hidden.jpg"), 100)
	testsupport.WriteFile(t, filepath.Join(source, ".thumbnails", "thumb.jpg"), 100)
	testsupport.WriteFile(t, filepath.Join(source, "sub", "nested.jpg"), 100)

	run := testsupport.NewRunAt(t, st, cfg, "filters", source, dest)

	skips := map[string]int{}
	accepted, err := newScanner(st).Scan(ctx, run, scan.Callbacks{
		Skip: func(reason, path string) { skips[reason]++ },
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// photo.jpg, clip.mp4, shot.cr2, notes.txt (other enabled), nested.jpg
	if accepted != 5 {
		t.Fatalf("expected 5 accepted files, got %d (skips %v)", accepted, skips)
	}

	if skips[scan.SkipExcludedExt] != 1 {
		t.Fatalf("expected sidecar.xmp excluded, skips %v", skips)
	}
	if skips[scan.SkipBelowMinSize] != 1 {
		t.Fatalf("expected tiny.jpg below min size, skips %v", skips)
	}
	if skips[scan.SkipHiddenOrSystem] != 1 {
		t.Fatalf("expected .hidden.jpg skipped, skips %v", skips)
	}
	if skips[scan.SkipHiddenDir] != 1 {
		t.Fatalf("expected .thumbnails pruned, skips %v", skips)
	}
	// Nil date providers force the mtime fallback diagnostic on every dated
	// class.
	if skips[scan.SkipDateFallbackMT] != 4 {
		t.Fatalf("expected 4 date fallbacks, skips %v", skips)
	}

	files, err := st.ListFiles(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	byPath := map[string]*store.FileRecord{}
	for _, file := range files {
		byPath[filepath.Base(file.SourcePath)] = file
	}
	photo, ok := byPath["photo.jpg"]
	if !ok {
		t.Fatalf("photo.jpg not recorded: %v", byPath)
	}
	if photo.Class != media.ClassPhoto {
		t.Fatalf("unexpected class: %s", photo.Class)
	}
	if photo.DateSource != media.DateSourceMTime {
		t.Fatalf("expected mtime date source, got %s", photo.DateSource)
	}
	if photo.ChosenDate != photo.MTime.Local().Format("2006-01-02") {
		t.Fatalf("chosen date %q does not match mtime %s", photo.ChosenDate, photo.MTime)
	}
	if byPath["notes.txt"].Class != media.ClassOther {
		t.Fatalf("unexpected class for notes.txt: %s", byPath["notes.txt"].Class)
	}
}

func TestScanHonoursClassFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithClasses(true, false, true, false))
	st := testsupport.MustOpenStore(t, cfg)

	base := t.TempDir()
	source := filepath.Join(base, "source")
	testsupport.WriteFile(t, filepath.Join(source, "photo.jpg"), 100)
	testsupport.WriteFile(t, filepath.Join(source, "clip.mp4"), 100)
	testsupport.WriteFile(t, filepath.Join(source, "notes.txt"), 100)

	run := testsupport.NewRunAt(t, st, cfg, "classes", source, filepath.Join(base, "dest"))

	skips := map[string]int{}
	accepted, err := newScanner(st).Scan(context.Background(), run, scan.Callbacks{
		Skip: func(reason, path string) { skips[reason]++ },
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if accepted != 1 {
		t.Fatalf("expected only photo.jpg accepted, got %d", accepted)
	}
	if skips[scan.SkipClassDisabled] != 2 {
		t.Fatalf("expected 2 class_disabled skips, got %v", skips)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := t.TempDir()
	source := filepath.Join(base, "source")
	testsupport.WriteFile(t, filepath.Join(source, "a.jpg"), 100)
	testsupport.WriteFile(t, filepath.Join(source, "b.jpg"), 100)

	run := testsupport.NewRunAt(t, st, cfg, "idempotent", source, filepath.Join(base, "dest"))
	scanner := newScanner(st)

	if _, err := scanner.Scan(ctx, run, scan.Callbacks{}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	files, err := st.ListFiles(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if err := st.SetChecksum(ctx, files[0].ID, "keepme"); err != nil {
		t.Fatalf("SetChecksum: %v", err)
	}

	if _, err := scanner.Scan(ctx, run, scan.Callbacks{}); err != nil {
		t.Fatalf("re-Scan: %v", err)
	}
	files, err = st.ListFiles(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("re-scan duplicated records: %d", len(files))
	}
	if files[0].Checksum != "keepme" {
		t.Fatalf("re-scan dropped checksum: %q", files[0].Checksum)
	}
}

func TestScanMissingRootFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	base := t.TempDir()
	run := testsupport.NewRunAt(t, st, cfg, "missing", filepath.Join(base, "nope"), filepath.Join(base, "dest"))

	if _, err := newScanner(st).Scan(context.Background(), run, scan.Callbacks{}); err == nil {
		t.Fatal("expected error for missing source root")
	}
}

func TestScanCancellationKeepsBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	base := t.TempDir()
	source := filepath.Join(base, "source")
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		testsupport.WriteFile(t, filepath.Join(source, name), 50)
	}
	run := testsupport.NewRunAt(t, st, cfg, "cancel", source, filepath.Join(base, "dest"))

	ctx, cancel := context.WithCancel(context.Background())
	var cancelled bool
	_, err := newScanner(st).Scan(ctx, run, scan.Callbacks{
		Progress: func(count int64, path string) {
			if !cancelled && count >= 1 {
				cancelled = true
				cancel()
			}
		},
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}

	// Whatever was accepted before the cancel must have been flushed.
	totals, countErr := st.CountFiles(context.Background(), run.ID)
	if countErr != nil {
		t.Fatalf("CountFiles: %v", countErr)
	}
	if totals.Files == 0 {
		t.Fatal("cancelled scan lost its batch")
	}
}
