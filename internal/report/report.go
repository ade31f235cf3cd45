package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"mediasort/internal/logging"
	"mediasort/internal/store"
)

// Writer renders a run's artifacts from persisted state and appends an
// artifact pointer for each. The core pipeline only guarantees the
// persisted entities are complete when a run reaches COMPLETED; rendering is
// this package's job alone.
type Writer struct {
	store  *store.Store
	logger *slog.Logger
}

// NewWriter builds a report writer over the given store.
func NewWriter(st *store.Store, logger *slog.Logger) *Writer {
	return &Writer{
		store:  st,
		logger: logging.NewComponentLogger(logger, "report"),
	}
}

// RunLogPath returns the location of the run's structured log artifact.
func RunLogPath(run *store.Run) string {
	return filepath.Join(run.ArtifactsRoot, run.ID+"_run.log")
}

// Render writes the run's artifacts under its artifacts root: the run log
// pointer, a status-count CSV, the full plan as JSON, and a human summary.
// Each rendered artifact appends an ArtifactRecord.
func (w *Writer) Render(ctx context.Context, run *store.Run) ([]*store.Artifact, error) {
	if err := os.MkdirAll(run.ArtifactsRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts root: %w", err)
	}

	logPath := RunLogPath(run)
	csvPath := filepath.Join(run.ArtifactsRoot, run.ID+"_summary.csv")
	planPath := filepath.Join(run.ArtifactsRoot, run.ID+"_plan.json")
	summaryPath := filepath.Join(run.ArtifactsRoot, run.ID+"_summary.txt")

	counts, err := w.store.PlanStatusCounts(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	if err := w.writeCSV(run, counts, csvPath); err != nil {
		return nil, err
	}
	if err := w.writePlanJSON(ctx, run, planPath); err != nil {
		return nil, err
	}
	if err := w.writeSummaryText(ctx, run, counts, summaryPath); err != nil {
		return nil, err
	}
	// The run log is produced by the pipeline's logger; an empty placeholder
	// keeps the pointer valid when reports are rendered on demand.
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		if writeErr := os.WriteFile(logPath, nil, 0o644); writeErr != nil {
			return nil, fmt.Errorf("write log placeholder: %w", writeErr)
		}
	}

	records := []struct {
		kind store.ArtifactKind
		path string
	}{
		{store.ArtifactLog, logPath},
		{store.ArtifactCSV, csvPath},
		{store.ArtifactPlanJSON, planPath},
		{store.ArtifactSummaryText, summaryPath},
	}
	for _, record := range records {
		if err := w.store.AddArtifact(ctx, run.ID, record.kind, record.path); err != nil {
			return nil, err
		}
	}

	w.logger.Info("artifacts rendered",
		logging.String(logging.FieldRunID, run.ID),
		logging.String("root", run.ArtifactsRoot))
	return w.store.ListArtifacts(ctx, run.ID)
}

func sortedStatuses(counts map[store.PlanStatus]int64) []store.PlanStatus {
	statuses := make([]store.PlanStatus, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	return statuses
}

func (w *Writer) writeCSV(run *store.Run, counts map[store.PlanStatus]int64, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary csv: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	rows := [][]string{
		{"run_id", run.ID},
		{"run_name", run.Name},
		{},
		{"status", "count"},
	}
	for _, status := range sortedStatuses(counts) {
		rows = append(rows, []string{status.String(), strconv.FormatInt(counts[status], 10)})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write summary csv: %w", err)
	}
	return nil
}

type planJSONRun struct {
	ID            string `json:"run_id"`
	Name          string `json:"run_name"`
	SourceRoot    string `json:"source_root"`
	DestRoot      string `json:"dest_root"`
	ArtifactsRoot string `json:"artifacts_root"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type planJSONItem struct {
	ID              int64  `json:"plan_item_id"`
	FileID          int64  `json:"file_id"`
	Action          string `json:"action"`
	DestRelPath     string `json:"dest_rel_path"`
	DestAbsPath     string `json:"dest_abs_path"`
	CollisionSuffix int    `json:"collision_suffix"`
	GroupID         *int64 `json:"duplicate_group_id"`
	IsPrimary       bool   `json:"is_primary"`
	Status          string `json:"status"`
	BytesCopied     int64  `json:"bytes_copied"`
	ErrorCode       string `json:"error_code,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
	SourcePath      string `json:"source_path"`
	Checksum        string `json:"checksum,omitempty"`
}

func (w *Writer) writePlanJSON(ctx context.Context, run *store.Run, path string) error {
	details, err := w.store.ListPlanDetails(ctx, run.ID)
	if err != nil {
		return err
	}

	payload := struct {
		Run   planJSONRun    `json:"run"`
		Items []planJSONItem `json:"items"`
	}{
		Run: planJSONRun{
			ID:            run.ID,
			Name:          run.Name,
			SourceRoot:    run.SourceRoot,
			DestRoot:      run.DestRoot,
			ArtifactsRoot: run.ArtifactsRoot,
			Status:        run.Status.String(),
			CreatedAt:     run.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:     run.UpdatedAt.UTC().Format(time.RFC3339),
		},
		Items: make([]planJSONItem, 0, len(details)),
	}
	for _, detail := range details {
		payload.Items = append(payload.Items, planJSONItem{
			ID:              detail.ID,
			FileID:          detail.FileID,
			Action:          detail.Action.String(),
			DestRelPath:     detail.DestRelPath,
			DestAbsPath:     detail.DestAbsPath,
			CollisionSuffix: detail.CollisionSuffix,
			GroupID:         detail.GroupID,
			IsPrimary:       detail.IsPrimary,
			Status:          detail.Status.String(),
			BytesCopied:     detail.BytesCopied,
			ErrorCode:       detail.ErrorCode,
			ErrorMessage:    detail.ErrorMessage,
			SourcePath:      detail.SourcePath,
			Checksum:        detail.SourceChecksum,
		})
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write plan json: %w", err)
	}
	return nil
}

func (w *Writer) writeSummaryText(ctx context.Context, run *store.Run, counts map[store.PlanStatus]int64, path string) error {
	totals, err := w.store.CountFiles(ctx, run.ID)
	if err != nil {
		return err
	}
	dupes, err := w.store.DuplicateCount(ctx, run.ID)
	if err != nil {
		return err
	}
	errorCount, err := w.store.CountErrors(ctx, run.ID)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary text: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "Run: %s (%s)\n", run.Name, run.ID)
	fmt.Fprintf(f, "Source: %s\n", run.SourceRoot)
	fmt.Fprintf(f, "Destination: %s\n", run.DestRoot)
	fmt.Fprintln(f)
	fmt.Fprintln(f, "Summary")
	fmt.Fprintf(f, "- Total files scanned: %d\n", totals.Files)
	fmt.Fprintf(f, "- Total bytes scanned: %d (%s)\n", totals.Bytes, humanize.Bytes(uint64(totals.Bytes)))
	fmt.Fprintf(f, "- Exact duplicates found: %d\n", dupes)
	fmt.Fprintf(f, "- Errors: %d\n", errorCount)
	fmt.Fprintln(f)
	fmt.Fprintln(f, "Plan status counts")
	for _, status := range sortedStatuses(counts) {
		fmt.Fprintf(f, "- %s: %d\n", status, counts[status])
	}
	return nil
}
