package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AddError appends a diagnostic record to the run's error log. The log is
// append-only; entries are removed only by run purge.
func (s *Store) AddError(ctx context.Context, record ErrorRecord) error {
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO errors (run_id, phase, plan_item_id, code, message, source_path, dest_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.Phase,
		nullableInt64(record.PlanItemID),
		nullableString(record.Code),
		record.Message,
		nullableString(record.SourcePath),
		nullableString(record.DestPath),
		nowStamp(),
	); err != nil {
		return fmt.Errorf("insert error record: %w", err)
	}
	return nil
}

// ListErrors returns the run's error records in insertion order, optionally
// filtered to one phase.
func (s *Store) ListErrors(ctx context.Context, runID string, phase Phase) ([]*ErrorRecord, error) {
	query := `SELECT error_id, run_id, phase, plan_item_id, code, message, source_path, dest_path, created_at
		FROM errors WHERE run_id = ?`
	args := []any{runID}
	if phase != "" {
		query += ` AND phase = ?`
		args = append(args, phase)
	}
	query += ` ORDER BY error_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list errors: %w", err)
	}
	defer rows.Close()

	var records []*ErrorRecord
	for rows.Next() {
		var (
			record     ErrorRecord
			phaseStr   string
			planItemID sql.NullInt64
			code       sql.NullString
			sourcePath sql.NullString
			destPath   sql.NullString
			createdRaw string
		)
		if err := rows.Scan(
			&record.ID,
			&record.RunID,
			&phaseStr,
			&planItemID,
			&code,
			&record.Message,
			&sourcePath,
			&destPath,
			&createdRaw,
		); err != nil {
			return nil, err
		}
		record.Phase = Phase(phaseStr)
		if planItemID.Valid {
			v := planItemID.Int64
			record.PlanItemID = &v
		}
		record.Code = code.String
		record.SourcePath = sourcePath.String
		record.DestPath = destPath.String
		if created, err := parseTimeString(createdRaw); err == nil {
			record.CreatedAt = created
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// CountErrors returns the number of error records logged for the run.
func (s *Store) CountErrors(ctx context.Context, runID string) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM errors WHERE run_id = ?`, runID)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count errors: %w", err)
	}
	return count, nil
}

// AddArtifact appends a pointer to a rendered report artifact.
func (s *Store) AddArtifact(ctx context.Context, runID string, kind ArtifactKind, path string) error {
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO artifacts (run_id, kind, path, created_at) VALUES (?, ?, ?, ?)`,
		runID,
		kind,
		path,
		nowStamp(),
	); err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// ListArtifacts returns the run's artifact pointers in insertion order.
func (s *Store) ListArtifacts(ctx context.Context, runID string) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT artifact_id, run_id, kind, path, created_at FROM artifacts WHERE run_id = ? ORDER BY artifact_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		var (
			artifact   Artifact
			kindStr    string
			createdRaw string
		)
		if err := rows.Scan(&artifact.ID, &artifact.RunID, &kindStr, &artifact.Path, &createdRaw); err != nil {
			return nil, err
		}
		artifact.Kind = ArtifactKind(kindStr)
		if created, err := parseTimeString(createdRaw); err == nil {
			artifact.CreatedAt = created
		}
		artifacts = append(artifacts, &artifact)
	}
	return artifacts, rows.Err()
}
