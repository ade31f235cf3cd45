package store

import (
	"context"
	"database/sql"
	"fmt"
)

const planColumns = "plan_item_id, run_id, file_id, action, dest_rel_path, dest_abs_path, collision_suffix, group_id, is_primary, status, started_at, finished_at, bytes_copied, error_code, error_message"

func scanPlanItem(scanner interface{ Scan(dest ...any) error }) (*PlanItem, error) {
	var (
		id          int64
		runID       string
		fileID      int64
		actionStr   string
		destRel     string
		destAbs     string
		suffix      int
		groupID     sql.NullInt64
		isPrimary   int
		statusStr   string
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		bytesCopied int64
		errCode     sql.NullString
		errMessage  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&fileID,
		&actionStr,
		&destRel,
		&destAbs,
		&suffix,
		&groupID,
		&isPrimary,
		&statusStr,
		&startedRaw,
		&finishedRaw,
		&bytesCopied,
		&errCode,
		&errMessage,
	); err != nil {
		return nil, err
	}

	status, ok := ParsePlanStatus(statusStr)
	if !ok {
		return nil, fmt.Errorf("unknown plan status %q for item %d", statusStr, id)
	}

	item := &PlanItem{
		ID:              id,
		RunID:           runID,
		FileID:          fileID,
		Action:          Action(actionStr),
		DestRelPath:     destRel,
		DestAbsPath:     destAbs,
		CollisionSuffix: suffix,
		IsPrimary:       isPrimary != 0,
		Status:          status,
		BytesCopied:     bytesCopied,
		ErrorCode:       errCode.String,
		ErrorMessage:    errMessage.String,
	}
	if groupID.Valid {
		v := groupID.Int64
		item.GroupID = &v
	}
	if startedRaw.Valid {
		item.StartedAt = parseTimePtr(startedRaw.String)
	}
	if finishedRaw.Valid {
		item.FinishedAt = parseTimePtr(finishedRaw.String)
	}
	return item, nil
}

// ClearPlan deletes every plan item for the run. Plan builds are full
// recomputes, never incremental.
func (s *Store) ClearPlan(ctx context.Context, runID string) error {
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM plan_items WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear plan: %w", err)
	}
	return nil
}

// InsertPlanItems materializes a freshly built plan in a single transaction,
// so a failed build commits nothing.
func (s *Store) InsertPlanItems(ctx context.Context, items []PlanItem) error {
	if len(items) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin plan tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO plan_items (run_id, file_id, action, dest_rel_path, dest_abs_path, collision_suffix, group_id, is_primary, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare plan insert: %w", err)
		}
		defer stmt.Close()

		for _, item := range items {
			status := item.Status
			if status == "" {
				status = PlanStatusPending
			}
			if _, err := stmt.ExecContext(
				ctx,
				item.RunID,
				item.FileID,
				item.Action,
				item.DestRelPath,
				item.DestAbsPath,
				item.CollisionSuffix,
				nullableInt64(item.GroupID),
				boolToInt(item.IsPrimary),
				status,
			); err != nil {
				return fmt.Errorf("insert plan item for file %d: %w", item.FileID, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit plan tx: %w", err)
		}
		return nil
	})
}

// ListPlanItems returns the run's plan items in ascending id order.
func (s *Store) ListPlanItems(ctx context.Context, runID string) ([]*PlanItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+planColumns+` FROM plan_items WHERE run_id = ? ORDER BY plan_item_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list plan items: %w", err)
	}
	defer rows.Close()

	var items []*PlanItem
	for rows.Next() {
		item, err := scanPlanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListPlanDetails returns plan items joined with the source file fields the
// executor and report writers need, optionally filtered to the given
// statuses, ordered by plan item id.
func (s *Store) ListPlanDetails(ctx context.Context, runID string, statuses ...PlanStatus) ([]*PlanItemDetail, error) {
	query := `
		SELECT ` + prefixedPlanColumns("p") + `, f.source_path, COALESCE(f.checksum, ''), f.file_size
		FROM plan_items p
		JOIN files f ON f.file_id = p.file_id
		WHERE p.run_id = ?`
	args := []any{runID}
	if len(statuses) > 0 {
		query += ` AND p.status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY p.plan_item_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plan details: %w", err)
	}
	defer rows.Close()

	var details []*PlanItemDetail
	for rows.Next() {
		detail, err := scanPlanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, rows.Err()
}

func scanPlanDetail(rows *sql.Rows) (*PlanItemDetail, error) {
	var (
		id          int64
		runID       string
		fileID      int64
		actionStr   string
		destRel     string
		destAbs     string
		suffix      int
		groupID     sql.NullInt64
		isPrimary   int
		statusStr   string
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		bytesCopied int64
		errCode     sql.NullString
		errMessage  sql.NullString
		sourcePath  string
		checksum    string
		sourceSize  int64
	)

	if err := rows.Scan(
		&id,
		&runID,
		&fileID,
		&actionStr,
		&destRel,
		&destAbs,
		&suffix,
		&groupID,
		&isPrimary,
		&statusStr,
		&startedRaw,
		&finishedRaw,
		&bytesCopied,
		&errCode,
		&errMessage,
		&sourcePath,
		&checksum,
		&sourceSize,
	); err != nil {
		return nil, err
	}

	status, ok := ParsePlanStatus(statusStr)
	if !ok {
		return nil, fmt.Errorf("unknown plan status %q for item %d", statusStr, id)
	}

	detail := &PlanItemDetail{
		PlanItem: PlanItem{
			ID:              id,
			RunID:           runID,
			FileID:          fileID,
			Action:          Action(actionStr),
			DestRelPath:     destRel,
			DestAbsPath:     destAbs,
			CollisionSuffix: suffix,
			IsPrimary:       isPrimary != 0,
			Status:          status,
			BytesCopied:     bytesCopied,
			ErrorCode:       errCode.String,
			ErrorMessage:    errMessage.String,
		},
		SourcePath:     sourcePath,
		SourceChecksum: checksum,
		SourceSize:     sourceSize,
	}
	if groupID.Valid {
		v := groupID.Int64
		detail.GroupID = &v
	}
	if startedRaw.Valid {
		detail.StartedAt = parseTimePtr(startedRaw.String)
	}
	if finishedRaw.Valid {
		detail.FinishedAt = parseTimePtr(finishedRaw.String)
	}
	return detail, nil
}

func prefixedPlanColumns(alias string) string {
	return alias + ".plan_item_id, " + alias + ".run_id, " + alias + ".file_id, " +
		alias + ".action, " + alias + ".dest_rel_path, " + alias + ".dest_abs_path, " +
		alias + ".collision_suffix, " + alias + ".group_id, " + alias + ".is_primary, " +
		alias + ".status, " + alias + ".started_at, " + alias + ".finished_at, " +
		alias + ".bytes_copied, " + alias + ".error_code, " + alias + ".error_message"
}

// MarkItemCopying transitions a plan item to COPYING and stamps its start
// time. Persisted before any bytes move so a crash mid-copy is visible on
// resume.
func (s *Store) MarkItemCopying(ctx context.Context, itemID int64) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE plan_items SET status = ?, started_at = ?, error_code = NULL, error_message = NULL WHERE plan_item_id = ?`,
		PlanStatusCopying,
		nowStamp(),
		itemID,
	); err != nil {
		return fmt.Errorf("mark item copying: %w", err)
	}
	return nil
}

// MarkItemVerified records a successfully copied and verified item.
func (s *Store) MarkItemVerified(ctx context.Context, itemID, bytesCopied int64) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE plan_items SET status = ?, finished_at = ?, bytes_copied = ? WHERE plan_item_id = ?`,
		PlanStatusVerified,
		nowStamp(),
		bytesCopied,
		itemID,
	); err != nil {
		return fmt.Errorf("mark item verified: %w", err)
	}
	return nil
}

// MarkItemFailed records an item's terminal failure with its error code and
// message.
func (s *Store) MarkItemFailed(ctx context.Context, itemID int64, code, message string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE plan_items SET status = ?, finished_at = ?, error_code = ?, error_message = ? WHERE plan_item_id = ?`,
		PlanStatusFailed,
		nowStamp(),
		code,
		message,
		itemID,
	); err != nil {
		return fmt.Errorf("mark item failed: %w", err)
	}
	return nil
}

// PlanStatusCounts returns the number of plan items per status for the run.
func (s *Store) PlanStatusCounts(ctx context.Context, runID string) (map[PlanStatus]int64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT status, COUNT(1) FROM plan_items WHERE run_id = ? GROUP BY status`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("plan status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[PlanStatus]int64)
	for rows.Next() {
		var statusStr string
		var count int64
		if err := rows.Scan(&statusStr, &count); err != nil {
			return nil, err
		}
		status, ok := ParsePlanStatus(statusStr)
		if !ok {
			return nil, fmt.Errorf("unknown plan status %q", statusStr)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountPlanItems returns the number of plan items for the run.
func (s *Store) CountPlanItems(ctx context.Context, runID string) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM plan_items WHERE run_id = ?`, runID)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count plan items: %w", err)
	}
	return count, nil
}

// BytesCopied sums the bytes copied across the run's verified items.
func (s *Store) BytesCopied(ctx context.Context, runID string) (int64, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COALESCE(SUM(bytes_copied), 0) FROM plan_items WHERE run_id = ? AND status = ?`,
		runID,
		PlanStatusVerified,
	)
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("bytes copied: %w", err)
	}
	return total, nil
}
