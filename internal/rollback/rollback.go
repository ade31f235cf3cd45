package rollback

import (
	"context"
	"log/slog"
	"os"

	"mediasort/internal/logging"
	"mediasort/internal/store"
)

// Manager reverses a run's on-disk effects by deleting the destination
// files its executor verified.
type Manager struct {
	store  *store.Store
	logger *slog.Logger
}

// NewManager builds a rollback manager over the given store.
func NewManager(st *store.Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:  st,
		logger: logging.NewComponentLogger(logger, "rollback"),
	}
}

// Rollback deletes every VERIFIED item's destination file. Deletion
// failures are logged as ROLLBACK errors but never halt the sweep, and the
// run transitions to ROLLED_BACK unconditionally afterwards — failed
// deletions are discoverable only through the error log. Returns the number
// of files removed.
func (m *Manager) Rollback(ctx context.Context, runID string) (int, error) {
	items, err := m.store.ListPlanDetails(ctx, runID, store.PlanStatusVerified)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, item := range items {
		if err := os.Remove(item.DestAbsPath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			m.logger.Warn("rollback deletion failed",
				logging.String("destination", item.DestAbsPath),
				logging.Error(err))
			itemID := item.ID
			if logErr := m.store.AddError(ctx, store.ErrorRecord{
				RunID:      runID,
				Phase:      store.PhaseRollback,
				PlanItemID: &itemID,
				Code:       "ROLLBACK_FAIL",
				Message:    err.Error(),
				DestPath:   item.DestAbsPath,
			}); logErr != nil {
				return removed, logErr
			}
			continue
		}
		removed++
	}

	if err := m.store.UpdateRunStatus(ctx, runID, store.RunStatusRolledBack); err != nil {
		return removed, err
	}

	m.logger.Info("rollback complete",
		logging.String(logging.FieldRunID, runID),
		logging.Int("removed", removed),
		logging.Int("items", len(items)))
	return removed, nil
}
