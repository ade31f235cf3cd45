package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const groupColumns = "group_id, run_id, checksum, primary_file_id, created_at"

func scanGroup(scanner interface{ Scan(dest ...any) error }) (*HashGroup, error) {
	var (
		id         int64
		runID      string
		checksum   string
		primaryID  sql.NullInt64
		createdRaw string
	)
	if err := scanner.Scan(&id, &runID, &checksum, &primaryID, &createdRaw); err != nil {
		return nil, err
	}
	group := &HashGroup{
		ID:       id,
		RunID:    runID,
		Checksum: checksum,
	}
	if primaryID.Valid {
		v := primaryID.Int64
		group.PrimaryFileID = &v
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		group.CreatedAt = created
	}
	return group, nil
}

// EnsureGroup returns the id of the run's hash group for the checksum,
// creating the group if it does not exist yet.
func (s *Store) EnsureGroup(ctx context.Context, runID, checksum string) (int64, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT group_id FROM hash_groups WHERE run_id = ? AND checksum = ?`,
		runID,
		checksum,
	)
	var id int64
	err := row.Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup hash group: %w", err)
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO hash_groups (run_id, checksum, created_at) VALUES (?, ?, ?)`,
		runID,
		checksum,
		nowStamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert hash group: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// SetGroupPrimary records the group's designated primary file.
func (s *Store) SetGroupPrimary(ctx context.Context, groupID, fileID int64) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE hash_groups SET primary_file_id = ? WHERE group_id = ?`,
		fileID,
		groupID,
	); err != nil {
		return fmt.Errorf("set group primary: %w", err)
	}
	return nil
}

// ListGroups returns every hash group for the run in ascending id order.
func (s *Store) ListGroups(ctx context.Context, runID string) ([]*HashGroup, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+groupColumns+` FROM hash_groups WHERE run_id = ? ORDER BY group_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list hash groups: %w", err)
	}
	defer rows.Close()

	var groups []*HashGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}
