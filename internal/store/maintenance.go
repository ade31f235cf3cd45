package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PurgeOptions selects which runs a purge removes. Exactly one of RunIDs,
// KeepLast, or OlderThanDays must be set; Status optionally narrows the
// candidate set.
type PurgeOptions struct {
	RunIDs        []string
	KeepLast      int
	OlderThanDays int
	Status        RunStatus
	DryRun        bool
	Vacuum        bool
}

// PurgeResult reports what a purge selected and removed.
type PurgeResult struct {
	Candidates []*Run
	Deleted    int
}

func (o PurgeOptions) validate() error {
	selectors := 0
	if len(o.RunIDs) > 0 {
		selectors++
	}
	if o.KeepLast > 0 {
		selectors++
	}
	if o.OlderThanDays > 0 {
		selectors++
	}
	if selectors == 0 {
		return errors.New("purge requires run ids, --keep-last, or --older-than")
	}
	if selectors > 1 {
		return errors.New("purge selectors are mutually exclusive")
	}
	return nil
}

// SelectPurgeCandidates resolves the runs a purge with these options would
// delete, most recent first.
func (s *Store) SelectPurgeCandidates(ctx context.Context, opts PurgeOptions) ([]*Run, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if len(opts.RunIDs) > 0 {
		candidates := make([]*Run, 0, len(opts.RunIDs))
		for _, idOrPrefix := range opts.RunIDs {
			id, err := s.ResolveRunID(ctx, idOrPrefix)
			if err != nil {
				return nil, err
			}
			run, err := s.GetRun(ctx, id)
			if err != nil {
				return nil, err
			}
			if run == nil {
				return nil, fmt.Errorf("run %q not found", idOrPrefix)
			}
			if opts.Status != "" && run.Status != opts.Status {
				continue
			}
			candidates = append(candidates, run)
		}
		return candidates, nil
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}

	var candidates []*Run
	switch {
	case opts.KeepLast > 0:
		kept := 0
		for _, run := range runs {
			if opts.Status != "" && run.Status != opts.Status {
				continue
			}
			if kept < opts.KeepLast {
				kept++
				continue
			}
			candidates = append(candidates, run)
		}
	case opts.OlderThanDays > 0:
		cutoff := time.Now().UTC().AddDate(0, 0, -opts.OlderThanDays)
		for _, run := range runs {
			if opts.Status != "" && run.Status != opts.Status {
				continue
			}
			if run.CreatedAt.Before(cutoff) {
				candidates = append(candidates, run)
			}
		}
	}
	return candidates, nil
}

// PurgeRuns deletes the selected runs and every row they own (files, hash
// groups, plan items, errors, artifacts cascade with the run). DryRun
// returns the candidates without deleting anything.
func (s *Store) PurgeRuns(ctx context.Context, opts PurgeOptions) (PurgeResult, error) {
	candidates, err := s.SelectPurgeCandidates(ctx, opts)
	if err != nil {
		return PurgeResult{}, err
	}
	result := PurgeResult{Candidates: candidates}
	if opts.DryRun || len(candidates) == 0 {
		return result, nil
	}

	args := make([]any, 0, len(candidates))
	for _, run := range candidates {
		args = append(args, run.ID)
	}
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM runs WHERE run_id IN (`+makePlaceholders(len(candidates))+`)`,
		args...,
	)
	if err != nil {
		return result, fmt.Errorf("purge runs: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil {
		result.Deleted = int(affected)
	}

	if opts.Vacuum {
		if err := s.Vacuum(ctx); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Vacuum reclaims database space after a purge.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ensureContext(ctx), "VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}
