package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const runColumns = "run_id, run_name, source_root, dest_root, artifacts_root, status, created_at, updated_at, min_file_size, include_photos, include_videos, include_raw, include_other, overwrite_policy, error_policy, live_photo_policy, thumbs_policy, cpu_limit_pct, io_limit_mbps"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id              string
		name            sql.NullString
		sourceRoot      string
		destRoot        string
		artifactsRoot   string
		statusStr       string
		createdRaw      string
		updatedRaw      string
		minFileSize     int64
		includePhotos   int
		includeVideos   int
		includeRAW      int
		includeOther    int
		overwritePolicy sql.NullString
		errorPolicy     sql.NullString
		livePhoto       sql.NullString
		thumbs          sql.NullString
		cpuLimit        sql.NullInt64
		ioLimit         sql.NullInt64
	)

	if err := scanner.Scan(
		&id,
		&name,
		&sourceRoot,
		&destRoot,
		&artifactsRoot,
		&statusStr,
		&createdRaw,
		&updatedRaw,
		&minFileSize,
		&includePhotos,
		&includeVideos,
		&includeRAW,
		&includeOther,
		&overwritePolicy,
		&errorPolicy,
		&livePhoto,
		&thumbs,
		&cpuLimit,
		&ioLimit,
	); err != nil {
		return nil, err
	}

	status, ok := ParseRunStatus(statusStr)
	if !ok {
		return nil, fmt.Errorf("unknown run status %q for run %s", statusStr, id)
	}

	run := &Run{
		ID:            id,
		Name:          name.String,
		SourceRoot:    sourceRoot,
		DestRoot:      destRoot,
		ArtifactsRoot: artifactsRoot,
		Status:        status,
		Config: RunConfig{
			MinFileSize:     minFileSize,
			IncludePhotos:   includePhotos != 0,
			IncludeVideos:   includeVideos != 0,
			IncludeRAW:      includeRAW != 0,
			IncludeOther:    includeOther != 0,
			OverwritePolicy: overwritePolicy.String,
			OnErrorPolicy:   errorPolicy.String,
			LivePhotoPolicy: livePhoto.String,
			ThumbsPolicy:    thumbs.String,
			CPULimitPct:     int(cpuLimit.Int64),
			IOLimitMbps:     int(ioLimit.Int64),
		},
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		run.UpdatedAt = updated
	}
	return run, nil
}

// CreateRun inserts a new run in status CREATED with an immutable
// configuration snapshot and returns the stored record.
func (s *Store) CreateRun(ctx context.Context, name, sourceRoot, destRoot, artifactsRoot string, cfg RunConfig) (*Run, error) {
	id := uuid.NewString()
	timestamp := nowStamp()

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		name,
		sourceRoot,
		destRoot,
		artifactsRoot,
		RunStatusCreated,
		timestamp,
		timestamp,
		cfg.MinFileSize,
		boolToInt(cfg.IncludePhotos),
		boolToInt(cfg.IncludeVideos),
		boolToInt(cfg.IncludeRAW),
		boolToInt(cfg.IncludeOther),
		nullableString(cfg.OverwritePolicy),
		nullableString(cfg.OnErrorPolicy),
		nullableString(cfg.LivePhotoPolicy),
		nullableString(cfg.ThumbsPolicy),
		cfg.CPULimitPct,
		cfg.IOLimitMbps,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	return s.GetRun(ctx, id)
}

// GetRun fetches a run by identifier. A missing run returns nil, nil.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// UpdateRunStatus transitions the run's persisted status and bumps its
// updated timestamp.
func (s *Store) UpdateRunStatus(ctx context.Context, id string, status RunStatus) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE run_id = ?`,
		status,
		nowStamp(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// LatestIncomplete returns the most recently created run still eligible for
// resume, or nil when every run is terminal.
func (s *Store) LatestIncomplete(ctx context.Context) (*Run, error) {
	statuses := IncompleteRunStatuses()
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, status)
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+runColumns+` FROM runs WHERE status IN (`+makePlaceholders(len(statuses))+`)
		 ORDER BY created_at DESC LIMIT 1`,
		args...,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest incomplete run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs ordered most recent first. A limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListRunsByStatus returns runs in the given statuses, most recent first.
func (s *Store) ListRunsByStatus(ctx context.Context, statuses ...RunStatus) ([]*Run, error) {
	if len(statuses) == 0 {
		return s.ListRuns(ctx, 0)
	}
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, status)
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs WHERE status IN (`+makePlaceholders(len(statuses))+`)
		 ORDER BY created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs by status: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ResolveRunID expands a unique run id prefix to the full identifier.
func (s *Store) ResolveRunID(ctx context.Context, idOrPrefix string) (string, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return "", errors.New("run id is required")
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id FROM runs WHERE run_id = ? OR run_id LIKE ? LIMIT 3`,
		idOrPrefix,
		idOrPrefix+"%",
	)
	if err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		if id == idOrPrefix {
			return id, nil
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %q not found", idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}
