package hash

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"mediasort/internal/logging"
	"mediasort/internal/store"
)

// Progress is invoked on the coordinating goroutine after each file's result
// has been applied (or its failure logged).
type Progress func(done, total int, path string)

// Hasher fingerprints every file record in a run that lacks a checksum.
// Files already fingerprinted are never reprocessed, which makes the stage
// idempotent and cheap to re-run on resume.
type Hasher struct {
	store   *store.Store
	workers int
	logger  *slog.Logger
}

// NewHasher builds a hasher over the given store. workers <= 0 selects an
// automatic pool size oversubscribed for I/O-bound work.
func NewHasher(st *store.Store, workers int, logger *slog.Logger) *Hasher {
	if workers <= 0 {
		workers = defaultWorkers()
	}
	return &Hasher{
		store:   st,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "hasher"),
	}
}

// defaultWorkers oversubscribes relative to CPU count because hashing is
// dominated by disk reads, clamped to keep thrash bounded.
func defaultWorkers() int {
	n := runtime.GOMAXPROCS(0) * 4
	if n < 4 {
		n = 4
	}
	if n > 32 {
		n = 32
	}
	return n
}

type task struct {
	fileID int64
	path   string
}

type result struct {
	task     task
	checksum string
	err      error
}

// HashAll fingerprints the run's unhashed files on a bounded worker pool.
// Workers only compute; every store write happens here on the coordinating
// goroutine, one result at a time, regardless of completion order. A
// per-file failure is logged as a HASH error and does not abort the batch.
// Cancellation is polled before submitting work and before consuming each
// result; in-flight work may complete but its result is discarded.
func (h *Hasher) HashAll(ctx context.Context, runID string, progress Progress) error {
	records, err := h.store.ListFilesForHashing(ctx, runID)
	if err != nil {
		return err
	}
	total := len(records)
	if total == 0 {
		return nil
	}

	h.logger.Info("hashing files",
		logging.String(logging.FieldRunID, runID),
		logging.Int("files", total),
		logging.Int("workers", h.workers))

	tasks := make(chan task)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < h.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				sum, err := SumFile(t.path)
				results <- result{task: t, checksum: sum, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(tasks)
		for _, record := range records {
			if ctx.Err() != nil {
				return
			}
			tasks <- task{fileID: record.ID, path: record.SourcePath}
		}
	}()

	// The submitter stops early on cancellation; draining results until the
	// pool closes them keeps the workers from blocking on send.
	done := 0
	cancelled := false
	for res := range results {
		if cancelled || ctx.Err() != nil {
			cancelled = true
			continue
		}
		done++
		if res.err != nil {
			h.logger.Warn("hash failed",
				logging.String("path", res.task.path),
				logging.Error(res.err))
			if logErr := h.store.AddError(ctx, store.ErrorRecord{
				RunID:      runID,
				Phase:      store.PhaseHash,
				Code:       "HASH_FAIL",
				Message:    res.err.Error(),
				SourcePath: res.task.path,
			}); logErr != nil {
				return logErr
			}
		} else {
			if err := h.store.SetChecksum(ctx, res.task.fileID, res.checksum); err != nil {
				return err
			}
			if _, err := h.store.EnsureGroup(ctx, runID, res.checksum); err != nil {
				return err
			}
		}
		if progress != nil {
			progress(done, total, res.task.path)
		}
	}

	if cancelled {
		return ctx.Err()
	}
	return nil
}
