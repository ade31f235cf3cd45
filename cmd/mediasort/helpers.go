package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/logging"
	"mediasort/internal/pipeline"
	"mediasort/internal/preflight"
	"mediasort/internal/report"
	"mediasort/internal/services"
	"mediasort/internal/store"
)

// executeRun drives a created or resumed run to its end state and prints the
// closing summary. The per-run logger tees into the run's LOG artifact.
func executeRun(cmd *cobra.Command, runCtx context.Context, cfg *config.Config, st *store.Store, run *store.Run, dryRun bool) error {
	if err := os.MkdirAll(run.DestRoot, 0o755); err != nil {
		return fmt.Errorf("create destination root: %w", err)
	}

	totals, err := st.CountFiles(runCtx, run.ID)
	if err != nil {
		return err
	}
	if totals.Bytes > 0 && !dryRun {
		if result := preflight.CheckFreeSpace(run.DestRoot, totals.Bytes); !result.Passed {
			return services.Wrap(services.ErrValidation, "run", "preflight", result.Detail, nil)
		}
	}

	logger, err := logging.NewRunLogger(cfg, report.RunLogPath(run))
	if err != nil {
		return err
	}

	renderer := newProgressRenderer()
	pl := pipeline.New(cfg, st, renderer.events(), logger)

	runErr := pl.Run(runCtx, run, dryRun)
	renderer.finish()
	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if dryRun {
		if err := printPlanPreview(out, runCtx, st, run); err != nil {
			return err
		}
	}
	return printRunSummary(out, runCtx, st, run)
}

// planPreviewLimit caps the dry-run preview table; the full plan is always
// available in the PLAN_JSON artifact.
const planPreviewLimit = 50

func printPlanPreview(out io.Writer, ctx context.Context, st *store.Store, run *store.Run) error {
	details, err := st.ListPlanDetails(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(details) == 0 {
		fmt.Fprintln(out, "nothing to copy")
		return nil
	}

	shown := details
	if len(shown) > planPreviewLimit {
		shown = shown[:planPreviewLimit]
	}
	rows := make([][]string, 0, len(shown))
	for _, detail := range shown {
		rows = append(rows, []string{
			string(detail.Action),
			detail.SourcePath,
			detail.DestRelPath,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Action", "Source", "Destination"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
	if hidden := len(details) - len(shown); hidden > 0 {
		fmt.Fprintf(out, "and %d more item(s); see the plan artifact for the full list\n", hidden)
	}
	return nil
}

func printRunSummary(out io.Writer, ctx context.Context, st *store.Store, run *store.Run) error {
	totals, err := st.CountFiles(ctx, run.ID)
	if err != nil {
		return err
	}
	duplicates, err := st.DuplicateCount(ctx, run.ID)
	if err != nil {
		return err
	}
	counts, err := st.PlanStatusCounts(ctx, run.ID)
	if err != nil {
		return err
	}
	bytesCopied, err := st.BytesCopied(ctx, run.ID)
	if err != nil {
		return err
	}
	errorCount, err := st.CountErrors(ctx, run.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nrun %s finished as %s\n", shortID(run.ID), run.Status)

	rows := [][]string{
		{"Files scanned", humanize.Comma(totals.Files)},
		{"Bytes scanned", humanize.Bytes(uint64(totals.Bytes))},
		{"Duplicates", humanize.Comma(duplicates)},
		{"Bytes copied", humanize.Bytes(uint64(bytesCopied))},
		{"Errors logged", humanize.Comma(errorCount)},
	}
	for _, status := range sortedPlanStatuses(counts) {
		rows = append(rows, []string{"Plan " + string(status), humanize.Comma(counts[status])})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))

	artifacts, err := st.ListArtifacts(ctx, run.ID)
	if err != nil {
		return err
	}
	for _, artifact := range artifacts {
		fmt.Fprintf(out, "%-12s %s\n", artifact.Kind, artifact.Path)
	}

	if failed := counts[store.PlanStatusFailed]; failed > 0 {
		fmt.Fprintf(out, "\n%d item(s) failed; inspect them with `mediasort runs errors %s`\n", failed, shortID(run.ID))
	}
	return nil
}

func sortedPlanStatuses(counts map[store.PlanStatus]int64) []store.PlanStatus {
	statuses := make([]store.PlanStatus, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	return statuses
}

// resolveRun expands a run id prefix and loads the run, failing with a
// usage-class error when nothing matches.
func resolveRun(ctx context.Context, st *store.Store, idOrPrefix string) (*store.Run, error) {
	id, err := st.ResolveRunID(ctx, idOrPrefix)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "runs", "resolve", idOrPrefix, err)
	}
	run, err := st.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, services.Wrap(services.ErrNotFound, "runs", "resolve", "run "+idOrPrefix+" not found", nil)
	}
	return run, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
