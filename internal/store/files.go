package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mediasort/internal/media"
)

const fileColumns = "file_id, run_id, source_path, ext, media_class, file_size, mtime, capture_at, chosen_date, date_source, checksum, created_at"

func scanFile(scanner interface{ Scan(dest ...any) error }) (*FileRecord, error) {
	var (
		id         int64
		runID      string
		sourcePath string
		ext        string
		classStr   string
		size       int64
		mtimeRaw   string
		captureRaw sql.NullString
		chosenDate string
		sourceStr  string
		checksum   sql.NullString
		createdRaw string
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&sourcePath,
		&ext,
		&classStr,
		&size,
		&mtimeRaw,
		&captureRaw,
		&chosenDate,
		&sourceStr,
		&checksum,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	class, ok := media.ParseClass(classStr)
	if !ok {
		return nil, fmt.Errorf("unknown media class %q for file %d", classStr, id)
	}

	record := &FileRecord{
		ID:         id,
		RunID:      runID,
		SourcePath: sourcePath,
		Ext:        ext,
		Class:      class,
		Size:       size,
		ChosenDate: chosenDate,
		DateSource: media.DateSource(sourceStr),
		Checksum:   checksum.String,
	}
	if mtime, err := parseTimeString(mtimeRaw); err == nil {
		record.MTime = mtime
	}
	if captureRaw.Valid {
		record.CaptureAt = parseTimePtr(captureRaw.String)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		record.CreatedAt = created
	}
	return record, nil
}

// UpsertFiles inserts a batch of scanned file records in one transaction.
// Re-scanning an existing (run, source path) pair refreshes the descriptive
// fields; the checksum column is deliberately absent from the update so a
// fingerprint computed by an earlier hash pass survives re-scans.
func (s *Store) UpsertFiles(ctx context.Context, records []FileRecord) error {
	if len(records) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin files tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO files (run_id, source_path, ext, media_class, file_size, mtime, capture_at, chosen_date, date_source, checksum, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, source_path) DO UPDATE SET
				ext = excluded.ext,
				media_class = excluded.media_class,
				file_size = excluded.file_size,
				mtime = excluded.mtime,
				capture_at = excluded.capture_at,
				chosen_date = excluded.chosen_date,
				date_source = excluded.date_source`)
		if err != nil {
			return fmt.Errorf("prepare files upsert: %w", err)
		}
		defer stmt.Close()

		for _, record := range records {
			createdAt := record.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now().UTC()
			}
			if _, err := stmt.ExecContext(
				ctx,
				record.RunID,
				record.SourcePath,
				record.Ext,
				record.Class,
				record.Size,
				record.MTime.UTC().Format(time.RFC3339Nano),
				nullableTime(record.CaptureAt),
				record.ChosenDate,
				record.DateSource,
				nullableString(record.Checksum),
				createdAt.Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("upsert file %s: %w", record.SourcePath, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit files tx: %w", err)
		}
		return nil
	})
}

// ListFiles returns every file record for the run in ascending id order.
func (s *Store) ListFiles(ctx context.Context, runID string) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+fileColumns+` FROM files WHERE run_id = ? ORDER BY file_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var records []*FileRecord
	for rows.Next() {
		record, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ListFilesForHashing returns the run's files that still lack a checksum.
func (s *Store) ListFilesForHashing(ctx context.Context, runID string) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+fileColumns+` FROM files WHERE run_id = ? AND checksum IS NULL ORDER BY file_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list files for hashing: %w", err)
	}
	defer rows.Close()

	var records []*FileRecord
	for rows.Next() {
		record, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SetChecksum records a file's content fingerprint.
func (s *Store) SetChecksum(ctx context.Context, fileID int64, checksum string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE files SET checksum = ? WHERE file_id = ?`,
		checksum,
		fileID,
	); err != nil {
		return fmt.Errorf("set checksum: %w", err)
	}
	return nil
}

// FileTotals aggregates file counts and sizes for a run.
type FileTotals struct {
	Files  int64
	Bytes  int64
	Photos int64
	Videos int64
	RAW    int64
	Other  int64
}

// CountFiles returns aggregate totals for the run's file records.
func (s *Store) CountFiles(ctx context.Context, runID string) (FileTotals, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(file_size), 0),
			COALESCE(SUM(CASE WHEN media_class = 'PHOTO' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN media_class = 'VIDEO' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN media_class = 'RAW' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN media_class = 'OTHER' THEN 1 ELSE 0 END), 0)
		FROM files WHERE run_id = ?`, runID)

	var totals FileTotals
	if err := row.Scan(&totals.Files, &totals.Bytes, &totals.Photos, &totals.Videos, &totals.RAW, &totals.Other); err != nil {
		return FileTotals{}, fmt.Errorf("count files: %w", err)
	}
	return totals, nil
}

// DuplicateCount returns the number of exact duplicates in the run:
// Σ(group size − 1) over every checksum shared by more than one file.
func (s *Store) DuplicateCount(ctx context.Context, runID string) (int64, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(cnt - 1), 0)
		FROM (SELECT checksum, COUNT(*) AS cnt FROM files WHERE run_id = ? AND checksum IS NOT NULL GROUP BY checksum)
		WHERE cnt > 1`, runID)

	var dupes int64
	if err := row.Scan(&dupes); err != nil {
		return 0, fmt.Errorf("duplicate count: %w", err)
	}
	return dupes, nil
}
