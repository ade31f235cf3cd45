package scan

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/metadata"
	"mediasort/internal/probe"
	"mediasort/internal/store"
)

// flushEvery bounds scanner memory on very large trees: accepted records are
// written to the store in batches of this size.
const flushEvery = 500

// Skip reasons reported through the skip callback. They are diagnostics,
// not correctness; nothing downstream branches on them.
const (
	SkipHiddenDir      = "hidden_dir"
	SkipHiddenOrSystem = "hidden_or_system"
	SkipExcludedExt    = "excluded_ext"
	SkipClassDisabled  = "class_disabled"
	SkipBelowMinSize   = "below_min_size"
	SkipDateFallbackMT = "date_fallback_mtime"
	SkipScanError      = "scan_error"
)

// Callbacks carries the scanner's observation hooks. All fields are
// optional.
type Callbacks struct {
	// Progress fires with the running accepted count every ProgressEvery
	// accepted files, and once more when the walk finishes.
	Progress func(count int64, path string)
	// Skip fires for every rejected or fallback-classified file.
	Skip func(reason, path string)
}

// Scanner walks a source tree and materializes the run's file records.
type Scanner struct {
	store         *store.Store
	probe         probe.Filesystem
	imageDates    metadata.DateProvider
	videoDates    metadata.DateProvider
	progressEvery int
	logger        *slog.Logger
}

// NewScanner builds a scanner with its collaborator capabilities injected.
// A nil date provider disables capture-date extraction for that class and
// every file of it falls back to modified time.
func NewScanner(st *store.Store, fsProbe probe.Filesystem, imageDates, videoDates metadata.DateProvider, progressEvery int, logger *slog.Logger) *Scanner {
	if progressEvery <= 0 {
		progressEvery = 200
	}
	return &Scanner{
		store:         st,
		probe:         fsProbe,
		imageDates:    imageDates,
		videoDates:    videoDates,
		progressEvery: progressEvery,
		logger:        logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks the run's source root, filters and classifies files per the
// run's configuration snapshot, resolves a chosen date for each accepted
// file, and writes records in flushed batches. Per-file errors are logged as
// SCAN errors and that file is skipped; scanning continues. Cancellation is
// polled before each file; on cancellation the current batch is still
// flushed. Returns the accepted count.
func (s *Scanner) Scan(ctx context.Context, run *store.Run, cb Callbacks) (int64, error) {
	skip := func(reason, path string) {
		if cb.Skip != nil {
			cb.Skip(reason, path)
		}
	}

	var (
		accepted int64
		batch    []store.FileRecord
		walkErr  error
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.UpsertFiles(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	walkErr = filepath.WalkDir(run.SourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == run.SourceRoot {
				return err
			}
			skip(SkipScanError, path)
			if logErr := s.recordError(ctx, run.ID, path, err); logErr != nil {
				return logErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != run.SourceRoot && s.prunedDir(path) {
				skip(SkipHiddenDir, path)
				return fs.SkipDir
			}
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		record, reason, ok, fileErr := s.examine(ctx, run, path)
		if fileErr != nil {
			skip(SkipScanError, path)
			if logErr := s.recordError(ctx, run.ID, path, fileErr); logErr != nil {
				return logErr
			}
			return nil
		}
		if !ok {
			skip(reason, path)
			return nil
		}
		if reason != "" {
			// Accepted, but with a diagnostic (date fallback).
			skip(reason, path)
		}

		batch = append(batch, record)
		accepted++
		if cb.Progress != nil && accepted%int64(s.progressEvery) == 0 {
			cb.Progress(accepted, path)
		}
		if len(batch) >= flushEvery {
			return flush()
		}
		return nil
	})

	// The in-progress batch is flushed even when the walk was cancelled, so
	// accepted work survives. The flush deliberately outlives the caller's
	// cancellation.
	if len(batch) > 0 {
		if flushErr := s.store.UpsertFiles(context.WithoutCancel(ctx), batch); flushErr != nil && walkErr == nil {
			walkErr = flushErr
		}
		batch = batch[:0]
	}

	if cb.Progress != nil {
		cb.Progress(accepted, "")
	}

	if walkErr != nil {
		return accepted, walkErr
	}

	s.logger.Info("scan complete",
		logging.String(logging.FieldRunID, run.ID),
		logging.Int64("accepted", accepted))
	return accepted, nil
}

func (s *Scanner) prunedDir(path string) bool {
	if s.probe == nil {
		return false
	}
	return s.probe.IsHidden(path) || s.probe.IsSystem(path) || s.probe.IsReparse(path)
}

func (s *Scanner) prunedFile(path string) bool {
	if s.probe == nil {
		return false
	}
	return s.probe.IsHidden(path) || s.probe.IsSystem(path) || s.probe.IsReparse(path)
}

// examine applies the filter chain to one file. It returns the record and
// true when the file is accepted; reason carries either the rejection tag or
// an accepted-with-fallback diagnostic.
func (s *Scanner) examine(ctx context.Context, run *store.Run, path string) (store.FileRecord, string, bool, error) {
	if s.prunedFile(path) {
		return store.FileRecord{}, SkipHiddenOrSystem, false, nil
	}

	ext := media.Ext(path)
	if media.Excluded(ext) {
		return store.FileRecord{}, SkipExcludedExt, false, nil
	}

	class := media.Classify(ext)
	if !run.Config.IncludesClass(class) {
		return store.FileRecord{}, SkipClassDisabled, false, nil
	}

	return s.buildRecord(ctx, run, path, ext, class)
}

func (s *Scanner) buildRecord(ctx context.Context, run *store.Run, path, ext string, class media.Class) (store.FileRecord, string, bool, error) {
	st, err := statFile(path)
	if err != nil {
		return store.FileRecord{}, "", false, err
	}

	if st.size < run.Config.MinFileSize {
		return store.FileRecord{}, SkipBelowMinSize, false, nil
	}

	capture, haveCapture := s.captureDate(ctx, class, path)
	chosen, source := media.ChooseDate(capture, haveCapture, st.mtime, media.CaptureSource(class))

	record := store.FileRecord{
		RunID:      run.ID,
		SourcePath: path,
		Ext:        ext,
		Class:      class,
		Size:       st.size,
		MTime:      st.mtime,
		ChosenDate: chosen,
		DateSource: source,
		CreatedAt:  time.Now().UTC(),
	}
	if haveCapture {
		record.CaptureAt = &capture
	}

	diagnostic := ""
	if source == media.DateSourceMTime && class != media.ClassOther {
		diagnostic = SkipDateFallbackMT
	}
	return record, diagnostic, true, nil
}

// captureDate asks the class's date provider for a capture datetime. Any
// provider failure is swallowed into "no capture date".
func (s *Scanner) captureDate(ctx context.Context, class media.Class, path string) (time.Time, bool) {
	var provider metadata.DateProvider
	switch class {
	case media.ClassPhoto, media.ClassRAW:
		provider = s.imageDates
	case media.ClassVideo:
		provider = s.videoDates
	default:
		return time.Time{}, false
	}
	if provider == nil {
		return time.Time{}, false
	}
	t, ok, err := provider.Extract(ctx, path)
	if err != nil || !ok {
		return time.Time{}, false
	}
	return t, true
}

func (s *Scanner) recordError(ctx context.Context, runID, path string, err error) error {
	s.logger.Warn("scan error", logging.String("path", path), logging.Error(err))
	return s.store.AddError(ctx, store.ErrorRecord{
		RunID:      runID,
		Phase:      store.PhaseScan,
		Code:       "SCAN_FAIL",
		Message:    err.Error(),
		SourcePath: path,
	})
}
