package hash_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mediasort/internal/hash"
	"mediasort/internal/media"
	"mediasort/internal/store"
	"mediasort/internal/testsupport"
)

func seedFiles(t *testing.T, st *store.Store, runID string, paths ...string) []*store.FileRecord {
	t.Helper()

	records := make([]store.FileRecord, 0, len(paths))
	for _, path := range paths {
		records = append(records, store.FileRecord{
			RunID:      runID,
			SourcePath: path,
			Ext:        media.Ext(path),
			Class:      media.Classify(media.Ext(path)),
			Size:       1,
			MTime:      time.Now().UTC(),
			ChosenDate: "2021-05-01",
			DateSource: media.DateSourceMTime,
			CreatedAt:  time.Now().UTC(),
		})
	}
	if err := st.UpsertFiles(context.Background(), records); err != nil {
		t.Fatalf("UpsertFiles: %v", err)
	}
	files, err := st.ListFiles(context.Background(), runID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	return files
}

func TestHashAllGroupsDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := testsupport.NewRun(t, st, cfg, "hash")
	dir := t.TempDir()
	dupA := filepath.Join(dir, "a.jpg")
	dupB := filepath.Join(dir, "b.jpg")
	unique := filepath.Join(dir, "c.jpg")
	testsupport.WriteFileContent(t, dupA, []byte("same payload"))
	testsupport.WriteFileContent(t, dupB, []byte("same payload"))
	testsupport.WriteFileContent(t, unique, []byte("different payload"))

	seedFiles(t, st, run.ID, dupA, dupB, unique)

	var calls int
	hasher := hash.NewHasher(st, 2, nil)
	if err := hasher.HashAll(ctx, run.ID, func(done, total int, path string) {
		calls++
		if total != 3 {
			t.Errorf("unexpected total %d", total)
		}
	}); err != nil {
		t.Fatalf("HashAll: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 progress calls, got %d", calls)
	}

	files, err := st.ListFiles(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	sums := map[string]string{}
	for _, file := range files {
		if file.Checksum == "" {
			t.Fatalf("file %s not fingerprinted", file.SourcePath)
		}
		sums[filepath.Base(file.SourcePath)] = file.Checksum
	}
	if sums["a.jpg"] != sums["b.jpg"] {
		t.Fatal("identical content produced different fingerprints")
	}
	if sums["a.jpg"] == sums["c.jpg"] {
		t.Fatal("distinct content produced identical fingerprints")
	}

	groups, err := st.ListGroups(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 hash groups, got %d", len(groups))
	}

	dups, err := st.DuplicateCount(ctx, run.ID)
	if err != nil {
		t.Fatalf("DuplicateCount: %v", err)
	}
	if dups != 1 {
		t.Fatalf("expected 1 duplicate, got %d", dups)
	}
}

func TestHashAllSkipsAlreadyHashed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := testsupport.NewRun(t, st, cfg, "rehash")
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	testsupport.WriteFileContent(t, path, []byte("payload"))
	seedFiles(t, st, run.ID, path)

	hasher := hash.NewHasher(st, 0, nil)
	if err := hasher.HashAll(ctx, run.ID, nil); err != nil {
		t.Fatalf("HashAll: %v", err)
	}

	var calls int
	if err := hasher.HashAll(ctx, run.ID, func(done, total int, path string) { calls++ }); err != nil {
		t.Fatalf("second HashAll: %v", err)
	}
	if calls != 0 {
		t.Fatalf("already-hashed files were reprocessed: %d progress calls", calls)
	}
}

func TestHashAllRecordsPerFileFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := testsupport.NewRun(t, st, cfg, "hashfail")
	dir := t.TempDir()
	good := filepath.Join(dir, "good.jpg")
	testsupport.WriteFileContent(t, good, []byte("payload"))
	missing := filepath.Join(dir, "missing.jpg")
	seedFiles(t, st, run.ID, good, missing)

	if err := hash.NewHasher(st, 2, nil).HashAll(ctx, run.ID, nil); err != nil {
		t.Fatalf("HashAll: %v", err)
	}

	records, err := st.ListErrors(ctx, run.ID, store.PhaseHash)
	if err != nil {
		t.Fatalf("ListErrors: %v", err)
	}
	if len(records) != 1 || records[0].Code != "HASH_FAIL" {
		t.Fatalf("expected one HASH_FAIL record, got %+v", records)
	}

	files, err := st.ListFiles(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	for _, file := range files {
		hashed := file.Checksum != ""
		if filepath.Base(file.SourcePath) == "good.jpg" && !hashed {
			t.Fatal("healthy file not fingerprinted")
		}
		if filepath.Base(file.SourcePath) == "missing.jpg" && hashed {
			t.Fatal("missing file unexpectedly fingerprinted")
		}
	}
}

func TestSumFileIsStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	testsupport.WriteFileContent(t, path, []byte("stable content"))

	first, err := hash.SumFile(path)
	if err != nil {
		t.Fatalf("SumFile: %v", err)
	}
	second, err := hash.SumFile(path)
	if err != nil {
		t.Fatalf("SumFile: %v", err)
	}
	if first != second || len(first) != 64 {
		t.Fatalf("unstable or malformed digest: %q vs %q", first, second)
	}
}
