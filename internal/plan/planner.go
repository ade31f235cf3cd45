package plan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/store"
)

// Result summarizes a completed plan build.
type Result struct {
	Items      int
	Duplicates int
	Collisions int
}

// Planner deterministically derives one plan item per file record. For a
// fixed scan result the output is fully reproducible: files are processed in
// ascending id order and the lowest-id member of each fingerprint group is
// its primary. That tie-break is intentional policy — a different traversal
// order during scan changes which duplicate becomes the primary.
type Planner struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPlanner builds a planner over the given store.
func NewPlanner(st *store.Store, logger *slog.Logger) *Planner {
	return &Planner{
		store:  st,
		logger: logging.NewComponentLogger(logger, "planner"),
	}
}

// Build recomputes the run's plan from scratch. Any error aborts the whole
// build; nothing partial is committed because the item set is inserted in
// one transaction.
func (p *Planner) Build(ctx context.Context, run *store.Run) (Result, error) {
	if err := p.store.ClearPlan(ctx, run.ID); err != nil {
		return Result{}, err
	}

	files, err := p.store.ListFiles(ctx, run.ID)
	if err != nil {
		return Result{}, err
	}
	groups, err := p.store.ListGroups(ctx, run.ID)
	if err != nil {
		return Result{}, err
	}

	groupByChecksum := make(map[string]*store.HashGroup, len(groups))
	for _, group := range groups {
		groupByChecksum[group.Checksum] = group
	}

	// Lowest file id per checksum wins the primary slot. Files are already
	// ordered by id, so the first member seen is the primary.
	primaryByChecksum := make(map[string]int64)
	for _, file := range files {
		if file.Checksum == "" {
			continue
		}
		if _, ok := primaryByChecksum[file.Checksum]; !ok {
			primaryByChecksum[file.Checksum] = file.ID
		}
	}
	for checksum, fileID := range primaryByChecksum {
		group, ok := groupByChecksum[checksum]
		if !ok {
			continue
		}
		if err := p.store.SetGroupPrimary(ctx, group.ID, fileID); err != nil {
			return Result{}, err
		}
	}

	// taken tracks destination paths claimed earlier in this same pass, so
	// two primaries planned into the same folder+name collide even before
	// anything exists on disk.
	taken := make(map[string]struct{})
	items := make([]store.PlanItem, 0, len(files))
	result := Result{}

	for _, file := range files {
		filename := filepath.Base(file.SourcePath)

		var group *store.HashGroup
		if file.Checksum != "" {
			group = groupByChecksum[file.Checksum]
		}

		// Files without a fingerprint (hashing incomplete) are ungrouped
		// primaries.
		isPrimary := group == nil || primaryByChecksum[file.Checksum] == file.ID

		item := store.PlanItem{
			RunID:     run.ID,
			FileID:    file.ID,
			IsPrimary: isPrimary,
		}
		if group != nil {
			id := group.ID
			item.GroupID = &id
		}

		if !isPrimary {
			rel := media.DuplicateRelPath(run.ID, filename)
			item.Action = store.ActionCopyToDuplicates
			item.DestRelPath = rel
			item.DestAbsPath = filepath.Join(run.DestRoot, rel)
			result.Duplicates++
		} else {
			rel := media.PrimaryRelPath(file.Class, file.ChosenDate, filename)
			abs, suffix, err := p.resolveCollision(run.DestRoot, rel, taken)
			if err != nil {
				return Result{}, err
			}
			if suffix > 0 {
				result.Collisions++
				rel, err = filepath.Rel(run.DestRoot, abs)
				if err != nil {
					return Result{}, err
				}
			}
			item.Action = store.ActionCopy
			item.DestRelPath = rel
			item.DestAbsPath = abs
			item.CollisionSuffix = suffix
			taken[abs] = struct{}{}
		}

		items = append(items, item)
	}

	if err := p.store.InsertPlanItems(ctx, items); err != nil {
		return Result{}, err
	}
	result.Items = len(items)

	p.logger.Info("plan built",
		logging.String(logging.FieldRunID, run.ID),
		logging.Int("items", result.Items),
		logging.Int("duplicates", result.Duplicates),
		logging.Int("collisions", result.Collisions))
	return result, nil
}

// resolveCollision probes the destination folder — both on disk and among
// paths already placed in this pass — and appends " (n)" before the
// extension, incrementing until the name is free.
func (p *Planner) resolveCollision(destRoot, rel string, taken map[string]struct{}) (string, int, error) {
	dir := filepath.Dir(filepath.Join(destRoot, rel))
	filename := filepath.Base(rel)

	for n := 0; ; n++ {
		candidate := filepath.Join(dir, media.SuffixedName(filename, n))
		if _, claimed := taken[candidate]; claimed {
			continue
		}
		_, err := os.Stat(candidate)
		if err == nil {
			continue
		}
		if !os.IsNotExist(err) {
			return "", 0, err
		}
		return candidate, n, nil
	}
}
