package execute

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"mediasort/internal/hash"
	"mediasort/internal/logging"
	"mediasort/internal/services"
	"mediasort/internal/store"
)

// Error codes persisted on failed plan items and in the error log. A
// VERIFY_FAIL means the copy completed but the destination's fingerprint did
// not match the source — corruption, not an access failure.
const (
	codeCopyFail   = "COPY_FAIL"
	codeVerifyFail = "VERIFY_FAIL"
)

// Progress is invoked once per item after it reaches a terminal state.
type Progress func(done, total int, item *store.PlanItemDetail)

// Summary reports what an Execute pass accomplished.
type Summary struct {
	Verified int
	Failed   int
	Bytes    int64
}

// Executor copies planned items to their destinations and verifies each
// copy by re-hashing. It re-selects PENDING, COPYING, and FAILED items, so
// re-running it on a partially completed run performs no redundant copies of
// already-verified items.
type Executor struct {
	store   *store.Store
	retries int
	logger  *slog.Logger
}

// NewExecutor builds an executor. retries is the number of additional
// attempts after a failed copy or verification before the item is marked
// failed.
func NewExecutor(st *store.Store, retries int, logger *slog.Logger) *Executor {
	if retries < 0 {
		retries = 0
	}
	return &Executor{
		store:   st,
		retries: retries,
		logger:  logging.NewComponentLogger(logger, "executor"),
	}
}

// Execute processes the run's runnable items in plan order. Each item is
// marked COPYING before any bytes move, stream-copied, verified against the
// source's stored fingerprint, and marked VERIFIED or FAILED. Cancellation
// is checked only between items; an in-flight copy is never interrupted.
func (e *Executor) Execute(ctx context.Context, run *store.Run, progress Progress) (Summary, error) {
	items, err := e.store.ListPlanDetails(ctx, run.ID,
		store.PlanStatusPending, store.PlanStatusCopying, store.PlanStatusFailed)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{}
	total := len(items)
	if total == 0 {
		return summary, nil
	}

	e.logger.Info("executing plan",
		logging.String(logging.FieldRunID, run.ID),
		logging.Int("items", total),
		logging.Int("retries", e.retries))

	for done, item := range items {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}

		if err := e.executeItem(ctx, run, item, &summary); err != nil {
			return summary, err
		}
		if progress != nil {
			progress(done+1, total, item)
		}
	}
	return summary, nil
}

// executeItem runs the copy/verify/retry loop for one item. Only store
// failures propagate; a per-item copy or verify failure is recorded and the
// pass continues.
func (e *Executor) executeItem(ctx context.Context, run *store.Run, item *store.PlanItemDetail, summary *Summary) error {
	if err := e.store.MarkItemCopying(ctx, item.ID); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		bytesCopied, err := e.copyAndVerify(item)
		if err == nil {
			if markErr := e.store.MarkItemVerified(ctx, item.ID, bytesCopied); markErr != nil {
				return markErr
			}
			summary.Verified++
			summary.Bytes += bytesCopied
			return nil
		}
		lastErr = err
		e.logger.Warn("copy attempt failed",
			logging.String("source", item.SourcePath),
			logging.String("destination", item.DestAbsPath),
			logging.Int("attempt", attempt+1),
			logging.Error(err))
	}

	code := codeCopyFail
	phase := store.PhaseCopy
	if errors.Is(lastErr, services.ErrVerifyFailed) {
		code = codeVerifyFail
		phase = store.PhaseVerify
	}

	if err := e.store.MarkItemFailed(ctx, item.ID, code, lastErr.Error()); err != nil {
		return err
	}
	itemID := item.ID
	if err := e.store.AddError(ctx, store.ErrorRecord{
		RunID:      run.ID,
		Phase:      phase,
		PlanItemID: &itemID,
		Code:       code,
		Message:    lastErr.Error(),
		SourcePath: item.SourcePath,
		DestPath:   item.DestAbsPath,
	}); err != nil {
		return err
	}
	summary.Failed++
	return nil
}

// copyAndVerify streams the item to its destination and re-hashes the copy.
// The comparison is skipped when the source was never fingerprinted. A
// mismatch removes the corrupt destination and reports ErrVerifyFailed.
func (e *Executor) copyAndVerify(item *store.PlanItemDetail) (int64, error) {
	bytesCopied, err := copyStream(item.SourcePath, item.DestAbsPath)
	if err != nil {
		return 0, services.Wrap(services.ErrCopyFailed, "execute", "copy", item.SourcePath, err)
	}

	if item.SourceChecksum != "" {
		actual, err := hash.SumFile(item.DestAbsPath)
		if err != nil {
			return 0, services.Wrap(services.ErrCopyFailed, "execute", "rehash destination", item.DestAbsPath, err)
		}
		if actual != item.SourceChecksum {
			_ = os.Remove(item.DestAbsPath)
			return 0, services.Wrap(services.ErrVerifyFailed, "execute", "verify", "checksum mismatch after copy", nil)
		}
	}
	return bytesCopied, nil
}
