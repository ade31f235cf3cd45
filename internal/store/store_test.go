package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mediasort/internal/media"
	"mediasort/internal/store"
	"mediasort/internal/testsupport"
)

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := testsupport.NewRun(t, st, cfg, "vacation")
	if run.ID == "" {
		t.Fatal("expected a run id")
	}
	if run.Status != store.RunStatusCreated {
		t.Fatalf("unexpected initial status: %s", run.Status)
	}

	loaded, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if loaded == nil || loaded.Name != "vacation" {
		t.Fatalf("unexpected run: %+v", loaded)
	}
	if loaded.Config.MinFileSize != cfg.Scan.MinFileSize {
		t.Fatalf("config snapshot not persisted: %+v", loaded.Config)
	}

	if err := st.UpdateRunStatus(ctx, run.ID, store.RunStatusScanned); err != nil {
		t.Fatalf("UpdateRunStatus: %v", err)
	}
	loaded, err = st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if loaded.Status != store.RunStatusScanned {
		t.Fatalf("status not updated: %s", loaded.Status)
	}

	if err := st.UpdateRunStatus(ctx, "no-such-run", store.RunStatusFailed); err == nil {
		t.Fatal("expected error updating a missing run")
	}

	missing, err := st.GetRun(ctx, "no-such-run")
	if err != nil {
		t.Fatalf("GetRun missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing run, got %+v", missing)
	}
}

func TestLatestIncompleteSkipsTerminalRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewRun(t, st, cfg, "first")
	second := testsupport.NewRun(t, st, cfg, "second")

	if err := st.UpdateRunStatus(ctx, second.ID, store.RunStatusCompleted); err != nil {
		t.Fatalf("UpdateRunStatus: %v", err)
	}

	latest, err := st.LatestIncomplete(ctx)
	if err != nil {
		t.Fatalf("LatestIncomplete: %v", err)
	}
	if latest == nil || latest.ID != first.ID {
		t.Fatalf("expected run %s, got %+v", first.ID, latest)
	}

	// FAILED runs remain resumable.
	if err := st.UpdateRunStatus(ctx, first.ID, store.RunStatusFailed); err != nil {
		t.Fatalf("UpdateRunStatus: %v", err)
	}
	latest, err = st.LatestIncomplete(ctx)
	if err != nil {
		t.Fatalf("LatestIncomplete: %v", err)
	}
	if latest == nil || latest.ID != first.ID {
		t.Fatalf("expected failed run to stay resumable, got %+v", latest)
	}

	if err := st.UpdateRunStatus(ctx, first.ID, store.RunStatusRolledBack); err != nil {
		t.Fatalf("UpdateRunStatus: %v", err)
	}
	latest, err = st.LatestIncomplete(ctx)
	if err != nil {
		t.Fatalf("LatestIncomplete: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected no incomplete runs, got %+v", latest)
	}
}

func TestResolveRunIDPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := testsupport.NewRun(t, st, cfg, "prefixed")

	resolved, err := st.ResolveRunID(ctx, run.ID[:8])
	if err != nil {
		t.Fatalf("ResolveRunID: %v", err)
	}
	if resolved != run.ID {
		t.Fatalf("expected %s, got %s", run.ID, resolved)
	}

	if _, err := st.ResolveRunID(ctx, "zzzzzzzz"); err == nil {
		t.Fatal("expected error for unknown prefix")
	}
}

func TestUpsertFilesPreservesChecksum(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := testsupport.NewRun(t, st, cfg, "upsert")
	record := fileRecord(run.ID, "/src/a.jpg", 100)

	if err := st.UpsertFiles(ctx, []store.FileRecord{record}); err != nil {
		t.Fatalf("UpsertFiles: %v", err)
	}
	files, err := st.ListFiles(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}

	if err := st.SetChecksum(ctx, files[0].ID, "abc123"); err != nil {
		t.Fatalf("SetChecksum: %v", err)
	}

	// A re-scan upserts the same path; the fingerprint must survive.
	record.Size = 200
	if err := st.UpsertFiles(ctx, []store.FileRecord{record}); err != nil {
		t.Fatalf("UpsertFiles again: %v", err)
	}
	files, err = st.ListFiles(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected upsert, got %d files", len(files))
	}
	if files[0].Checksum != "abc123" {
		t.Fatalf("checksum lost on re-upsert: %q", files[0].Checksum)
	}
	if files[0].Size != 200 {
		t.Fatalf("size not refreshed: %d", files[0].Size)
	}

	pending, err := st.ListFilesForHashing(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFilesForHashing: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("hashed file re-selected for hashing: %d", len(pending))
	}
}

func TestPlanItemTransitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := testsupport.NewRun(t, st, cfg, "plan")
	if err := st.UpsertFiles(ctx, []store.FileRecord{
		fileRecord(run.ID, "/src/a.jpg", 100),
		fileRecord(run.ID, "/src/b.jpg", 200),
	}); err != nil {
		t.Fatalf("UpsertFiles: %v", err)
	}
	files, err := st.ListFiles(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}

	items := []store.PlanItem{
		{RunID: run.ID, FileID: files[0].ID, Action: store.ActionCopy, DestRelPath: "Photos/2021/2021-05-01/a.jpg", DestAbsPath: "/dst/a.jpg", IsPrimary: true},
		{RunID: run.ID, FileID: files[1].ID, Action: store.ActionCopy, DestRelPath: "Photos/2021/2021-05-01/b.jpg", DestAbsPath: "/dst/b.jpg", IsPrimary: true},
	}
	if err := st.InsertPlanItems(ctx, items); err != nil {
		t.Fatalf("InsertPlanItems: %v", err)
	}

	details, err := st.ListPlanDetails(ctx, run.ID,
		store.PlanStatusPending, store.PlanStatusCopying, store.PlanStatusFailed)
	if err != nil {
		t.Fatalf("ListPlanDetails: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("expected 2 runnable items, got %d", len(details))
	}
	if details[0].SourcePath != "/src/a.jpg" {
		t.Fatalf("detail join broken: %+v", details[0])
	}

	if err := st.MarkItemCopying(ctx, details[0].ID); err != nil {
		t.Fatalf("MarkItemCopying: %v", err)
	}
	if err := st.MarkItemVerified(ctx, details[0].ID, 100); err != nil {
		t.Fatalf("MarkItemVerified: %v", err)
	}
	if err := st.MarkItemFailed(ctx, details[1].ID, "COPY_FAIL", "disk on fire"); err != nil {
		t.Fatalf("MarkItemFailed: %v", err)
	}

	counts, err := st.PlanStatusCounts(ctx, run.ID)
	if err != nil {
		t.Fatalf("PlanStatusCounts: %v", err)
	}
	if counts[store.PlanStatusVerified] != 1 || counts[store.PlanStatusFailed] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	bytes, err := st.BytesCopied(ctx, run.ID)
	if err != nil {
		t.Fatalf("BytesCopied: %v", err)
	}
	if bytes != 100 {
		t.Fatalf("expected 100 bytes copied, got %d", bytes)
	}

	// Verified items drop out of the runnable set; failed ones stay in.
	runnable, err := st.ListPlanDetails(ctx, run.ID,
		store.PlanStatusPending, store.PlanStatusCopying, store.PlanStatusFailed)
	if err != nil {
		t.Fatalf("ListPlanDetails: %v", err)
	}
	if len(runnable) != 1 || runnable[0].Status != store.PlanStatusFailed {
		t.Fatalf("unexpected runnable set: %+v", runnable)
	}
	if runnable[0].ErrorCode != "COPY_FAIL" {
		t.Fatalf("error code not persisted: %q", runnable[0].ErrorCode)
	}
}

func TestGroupsAndDuplicateCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run := testsupport.NewRun(t, st, cfg, "groups")
	if err := st.UpsertFiles(ctx, []store.FileRecord{
		fileRecord(run.ID, "/src/a.jpg", 100),
		fileRecord(run.ID, "/src/b.jpg", 100),
		fileRecord(run.ID, "/src/c.jpg", 50),
	}); err != nil {
		t.Fatalf("UpsertFiles: %v", err)
	}
	files, err := st.ListFiles(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	for i, sum := range []string{"same", "same", "unique"} {
		if err := st.SetChecksum(ctx, files[i].ID, sum); err != nil {
			t.Fatalf("SetChecksum: %v", err)
		}
		if _, err := st.EnsureGroup(ctx, run.ID, sum); err != nil {
			t.Fatalf("EnsureGroup: %v", err)
		}
	}

	groups, err := st.ListGroups(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	dups, err := st.DuplicateCount(ctx, run.ID)
	if err != nil {
		t.Fatalf("DuplicateCount: %v", err)
	}
	if dups != 1 {
		t.Fatalf("expected 1 duplicate, got %d", dups)
	}
}

func TestPurgeKeepLastCascades(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	old := testsupport.NewRun(t, st, cfg, "old")
	time.Sleep(5 * time.Millisecond)
	recent := testsupport.NewRun(t, st, cfg, "recent")

	if err := st.UpsertFiles(ctx, []store.FileRecord{fileRecord(old.ID, "/src/a.jpg", 100)}); err != nil {
		t.Fatalf("UpsertFiles: %v", err)
	}

	dry, err := st.PurgeRuns(ctx, store.PurgeOptions{KeepLast: 1, DryRun: true})
	if err != nil {
		t.Fatalf("PurgeRuns dry: %v", err)
	}
	if len(dry.Candidates) != 1 || dry.Candidates[0].ID != old.ID || dry.Deleted != 0 {
		t.Fatalf("unexpected dry-run result: %+v", dry)
	}

	result, err := st.PurgeRuns(ctx, store.PurgeOptions{KeepLast: 1, Vacuum: true})
	if err != nil {
		t.Fatalf("PurgeRuns: %v", err)
	}
	if result.Deleted != 1 {
		t.Fatalf("expected 1 deleted run, got %d", result.Deleted)
	}

	gone, err := st.GetRun(ctx, old.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if gone != nil {
		t.Fatalf("purged run still present: %+v", gone)
	}
	totals, err := st.CountFiles(ctx, old.ID)
	if err != nil {
		t.Fatalf("CountFiles: %v", err)
	}
	if totals.Files != 0 {
		t.Fatalf("file rows survived the cascade: %+v", totals)
	}

	kept, err := st.GetRun(ctx, recent.ID)
	if err != nil || kept == nil {
		t.Fatalf("kept run missing: %v %+v", err, kept)
	}

	if _, err := st.PurgeRuns(ctx, store.PurgeOptions{KeepLast: 1, OlderThanDays: 7}); err == nil {
		t.Fatal("expected mutually exclusive selectors to error")
	}
	if _, err := st.PurgeRuns(ctx, store.PurgeOptions{}); err == nil {
		t.Fatal("expected empty selector to error")
	}
}

func TestOpenRefusesSecondWriter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_ = testsupport.MustOpenStore(t, cfg)

	if _, err := store.Open(cfg); !errors.Is(err, store.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func fileRecord(runID, path string, size int64) store.FileRecord {
	mtime := time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)
	return store.FileRecord{
		RunID:      runID,
		SourcePath: path,
		Ext:        media.Ext(path),
		Class:      media.Classify(media.Ext(path)),
		Size:       size,
		MTime:      mtime,
		ChosenDate: "2021-05-01",
		DateSource: media.DateSourceMTime,
		CreatedAt:  time.Now().UTC(),
	}
}
