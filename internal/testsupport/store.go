package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"mediasort/internal/config"
	"mediasort/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewRun creates a run rooted in fresh temp directories, snapshotting the
// provided config.
func NewRun(t testing.TB, st *store.Store, cfg *config.Config, name string) *store.Run {
	t.Helper()

	base := t.TempDir()
	return NewRunAt(t, st, cfg, name, filepath.Join(base, "source"), filepath.Join(base, "dest"))
}

// NewRunAt creates a run for the given roots, snapshotting the provided
// config. The artifacts root lands under the destination.
func NewRunAt(t testing.TB, st *store.Store, cfg *config.Config, name, sourceRoot, destRoot string) *store.Run {
	t.Helper()

	snapshot := store.RunConfig{
		MinFileSize:     cfg.Scan.MinFileSize,
		IncludePhotos:   cfg.Scan.IncludePhotos,
		IncludeVideos:   cfg.Scan.IncludeVideos,
		IncludeRAW:      cfg.Scan.IncludeRAW,
		IncludeOther:    cfg.Scan.IncludeOther,
		OverwritePolicy: cfg.Policies.Overwrite,
		OnErrorPolicy:   cfg.Policies.OnError,
		LivePhotoPolicy: cfg.Policies.LivePhoto,
		ThumbsPolicy:    cfg.Policies.Thumbnails,
	}
	run, err := st.CreateRun(context.Background(), name, sourceRoot, destRoot, filepath.Join(destRoot, "_mediasort"), snapshot)
	if err != nil {
		t.Fatalf("store.CreateRun: %v", err)
	}
	return run
}
