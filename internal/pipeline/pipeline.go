package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediasort/internal/config"
	"mediasort/internal/deps"
	"mediasort/internal/execute"
	"mediasort/internal/hash"
	"mediasort/internal/logging"
	"mediasort/internal/metadata"
	"mediasort/internal/plan"
	"mediasort/internal/probe"
	"mediasort/internal/report"
	"mediasort/internal/scan"
	"mediasort/internal/services"
	"mediasort/internal/store"
)

// Events carries the observation callbacks a front end may register. All
// fields are optional; callbacks fire on the pipeline's goroutine and must
// not block for long.
type Events struct {
	StageStarted    func(stage string)
	ScanProgress    func(count int64, path string)
	ScanSkip        func(reason, path string)
	HashProgress    func(done, total int, path string)
	PlanBuilt       func(result plan.Result)
	ExecuteProgress func(done, total int, item *store.PlanItemDetail)
}

// Pipeline orchestrates the five stages for one run and owns every run
// status transition. Stages are idempotent, so a run can be re-entered from
// wherever it stopped.
type Pipeline struct {
	cfg    *config.Config
	store  *store.Store
	events Events
	logger *slog.Logger

	scanner  *scan.Scanner
	hasher   *hash.Hasher
	planner  *plan.Planner
	executor *execute.Executor
	reporter *report.Writer
}

// New wires a pipeline from configuration. The video date provider degrades
// to nil (mtime fallback for every video) when ffprobe is unavailable.
func New(cfg *config.Config, st *store.Store, events Events, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}

	var videoDates metadata.DateProvider
	statuses := deps.CheckBinaries([]deps.Requirement{deps.FFprobe(cfg.FFprobeBinary())})
	if len(statuses) > 0 && statuses[0].Available {
		videoDates = metadata.NewFFprobeProvider(cfg.FFprobeBinary())
	}

	return &Pipeline{
		cfg:    cfg,
		store:  st,
		events: events,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		scanner: scan.NewScanner(
			st,
			probe.NewFilesystemProbe(),
			metadata.NewEXIFProvider(),
			videoDates,
			cfg.Scan.ProgressEvery,
			logger,
		),
		hasher:   hash.NewHasher(st, cfg.Hash.Workers, logger),
		planner:  plan.NewPlanner(st, logger),
		executor: execute.NewExecutor(st, cfg.Execute.Retries, logger),
		reporter: report.NewWriter(st, logger),
	}
}

// CreateRun validates the roots and records a new run in status CREATED
// with its immutable configuration snapshot. An empty artifacts root
// defaults to a _mediasort directory under the destination. It is a
// package-level function so callers can create the run before wiring a
// pipeline around its log file.
func CreateRun(ctx context.Context, cfg *config.Config, st *store.Store, name, sourceRoot, destRoot, artifactsRoot string) (*store.Run, error) {
	sourceRoot = strings.TrimSpace(sourceRoot)
	destRoot = strings.TrimSpace(destRoot)
	if sourceRoot == "" || destRoot == "" {
		return nil, services.Wrap(services.ErrValidation, "run", "create", "source and destination roots are required", nil)
	}
	info, err := os.Stat(sourceRoot)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "run", "create", "source root is not a readable directory: "+sourceRoot, err)
	}
	if artifactsRoot == "" {
		artifactsRoot = filepath.Join(destRoot, "_mediasort")
	}
	if name == "" {
		name = filepath.Base(sourceRoot)
	}

	snapshot := store.RunConfig{
		MinFileSize:     cfg.Scan.MinFileSize,
		IncludePhotos:   cfg.Scan.IncludePhotos,
		IncludeVideos:   cfg.Scan.IncludeVideos,
		IncludeRAW:      cfg.Scan.IncludeRAW,
		IncludeOther:    cfg.Scan.IncludeOther,
		OverwritePolicy: cfg.Policies.Overwrite,
		OnErrorPolicy:   cfg.Policies.OnError,
		LivePhotoPolicy: cfg.Policies.LivePhoto,
		ThumbsPolicy:    cfg.Policies.Thumbnails,
		CPULimitPct:     cfg.Policies.CPULimitPct,
		IOLimitMbps:     cfg.Policies.IOLimitMbps,
	}
	return st.CreateRun(ctx, name, sourceRoot, destRoot, artifactsRoot, snapshot)
}

// Reporter exposes the artifact writer for on-demand report rendering.
func (p *Pipeline) Reporter() *report.Writer {
	return p.reporter
}

// Run drives the run through its remaining stages. Dry runs stop after Plan
// with the run left PLANNED; otherwise the run ends COMPLETED, or FAILED
// when a phase-level error escapes a stage. Per-file and per-item failures
// never fail a phase — they live in the error log.
func (p *Pipeline) Run(ctx context.Context, run *store.Run, dryRun bool) error {
	ctx = services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, p.logger)

	entry := p.entryStage(ctx, run)
	logger.Info("pipeline starting",
		logging.String("entry_stage", entry.String()),
		logging.Bool("dry_run", dryRun))

	if err := p.advance(ctx, run, entry, dryRun); err != nil {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, store.RunStatusFailed); statusErr != nil {
			logger.Error("failed to mark run FAILED", logging.Error(statusErr))
		}
		run.Status = store.RunStatusFailed
		return err
	}
	return nil
}

type stage int

const (
	stageScan stage = iota
	stageHash
	stagePlan
	stageExecute
)

func (s stage) String() string {
	switch s {
	case stageScan:
		return "scan"
	case stageHash:
		return "hash"
	case stagePlan:
		return "plan"
	default:
		return "execute"
	}
}

// entryStage decides where a (possibly resumed) run re-enters the pipeline.
// Scan and hash are idempotent, so re-entering early is safe; what must be
// avoided is rebuilding the plan once items carry execution state.
func (p *Pipeline) entryStage(ctx context.Context, run *store.Run) stage {
	switch run.Status {
	case store.RunStatusCreated:
		return stageScan
	case store.RunStatusScanned:
		return stageHash
	case store.RunStatusPlanned, store.RunStatusRunning, store.RunStatusPaused:
		return stageExecute
	case store.RunStatusFailed:
		// A failed run resumes from wherever it stopped, inferred from what
		// it managed to persist.
		if count, err := p.store.CountPlanItems(ctx, run.ID); err == nil && count > 0 {
			return stageExecute
		}
		if totals, err := p.store.CountFiles(ctx, run.ID); err == nil && totals.Files > 0 {
			return stageHash
		}
		return stageScan
	default:
		return stageExecute
	}
}

func (p *Pipeline) advance(ctx context.Context, run *store.Run, entry stage, dryRun bool) error {
	if entry <= stageScan {
		if err := p.runScan(ctx, run); err != nil {
			return err
		}
	}
	if entry <= stageHash {
		if err := p.runHash(ctx, run); err != nil {
			return err
		}
		if err := p.runPlan(ctx, run); err != nil {
			return err
		}
		if dryRun {
			_, err := p.reporter.Render(ctx, run)
			return err
		}
	}
	if err := p.runExecute(ctx, run); err != nil {
		return err
	}

	if err := p.store.UpdateRunStatus(ctx, run.ID, store.RunStatusCompleted); err != nil {
		return err
	}
	run.Status = store.RunStatusCompleted

	if _, err := p.reporter.Render(ctx, run); err != nil {
		return err
	}
	p.logger.Info("run completed", logging.String(logging.FieldRunID, run.ID))
	return nil
}

func (p *Pipeline) runScan(ctx context.Context, run *store.Run) error {
	p.notifyStage("scan")
	stageCtx := services.WithStage(ctx, "scan")

	_, err := p.scanner.Scan(stageCtx, run, scan.Callbacks{
		Progress: p.events.ScanProgress,
		Skip:     p.events.ScanSkip,
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "scan", "walk source tree", "", err)
	}
	if err := p.store.UpdateRunStatus(ctx, run.ID, store.RunStatusScanned); err != nil {
		return err
	}
	run.Status = store.RunStatusScanned
	return nil
}

func (p *Pipeline) runHash(ctx context.Context, run *store.Run) error {
	p.notifyStage("hash")
	stageCtx := services.WithStage(ctx, "hash")

	if err := p.hasher.HashAll(stageCtx, run.ID, p.events.HashProgress); err != nil {
		return services.Wrap(services.ErrTransient, "hash", "fingerprint files", "", err)
	}
	return nil
}

func (p *Pipeline) runPlan(ctx context.Context, run *store.Run) error {
	p.notifyStage("plan")
	stageCtx := services.WithStage(ctx, "plan")

	result, err := p.planner.Build(stageCtx, run)
	if err != nil {
		return services.Wrap(services.ErrTransient, "plan", "build plan", "", err)
	}
	if p.events.PlanBuilt != nil {
		p.events.PlanBuilt(result)
	}
	if err := p.store.UpdateRunStatus(ctx, run.ID, store.RunStatusPlanned); err != nil {
		return err
	}
	run.Status = store.RunStatusPlanned
	return nil
}

func (p *Pipeline) runExecute(ctx context.Context, run *store.Run) error {
	p.notifyStage("execute")
	stageCtx := services.WithStage(ctx, "execute")

	if err := p.store.UpdateRunStatus(ctx, run.ID, store.RunStatusRunning); err != nil {
		return err
	}
	run.Status = store.RunStatusRunning

	if _, err := p.executor.Execute(stageCtx, run, p.events.ExecuteProgress); err != nil {
		return services.Wrap(services.ErrTransient, "execute", "copy plan items", "", err)
	}
	return nil
}

func (p *Pipeline) notifyStage(name string) {
	if p.events.StageStarted != nil {
		p.events.StageStarted(name)
	}
}
