package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/services"
	"mediasort/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and maintain recorded runs",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsErrorsCommand(ctx))
	runsCmd.AddCommand(newRunsPurgeCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var (
		limitFlag  int
		statusFlag string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				var (
					runs []*store.Run
					err  error
				)
				if statusFlag != "" {
					status, ok := store.ParseRunStatus(statusFlag)
					if !ok {
						return services.Wrap(services.ErrValidation, "runs", "parse --status", statusFlag, nil)
					}
					runs, err = st.ListRunsByStatus(cmd.Context(), status)
				} else {
					runs, err = st.ListRuns(cmd.Context(), limitFlag)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "no runs recorded")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.Name,
						string(run.Status),
						formatTimestamp(run.CreatedAt),
						run.SourceRoot,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "Status", "Created", "Source"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum runs to list (0 for all)")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Only list runs in this status")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run's roots, snapshot, and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				run, err := resolveRun(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:         %s (%s)\n", run.ID, run.Name)
				fmt.Fprintf(out, "Status:      %s\n", run.Status)
				fmt.Fprintf(out, "Created:     %s\n", formatTimestamp(run.CreatedAt))
				fmt.Fprintf(out, "Updated:     %s\n", formatTimestamp(run.UpdatedAt))
				fmt.Fprintf(out, "Source:      %s\n", run.SourceRoot)
				fmt.Fprintf(out, "Destination: %s\n", run.DestRoot)
				fmt.Fprintf(out, "Artifacts:   %s\n", run.ArtifactsRoot)
				fmt.Fprintf(out, "Filters:     photos=%s videos=%s raw=%s other=%s min_size=%s\n",
					yesNo(run.Config.IncludePhotos),
					yesNo(run.Config.IncludeVideos),
					yesNo(run.Config.IncludeRAW),
					yesNo(run.Config.IncludeOther),
					humanize.Bytes(uint64(run.Config.MinFileSize)))

				return printRunSummary(out, cmd.Context(), st, run)
			})
		},
	}
}

func newRunsErrorsCommand(ctx *commandContext) *cobra.Command {
	var phaseFlag string

	cmd := &cobra.Command{
		Use:   "errors RUN_ID",
		Short: "List a run's diagnostic error records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				run, err := resolveRun(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}

				var phase store.Phase
				if phaseFlag != "" {
					parsed, ok := store.ParsePhase(phaseFlag)
					if !ok {
						return services.Wrap(services.ErrValidation, "runs", "parse --phase", phaseFlag, nil)
					}
					phase = parsed
				}

				records, err := st.ListErrors(cmd.Context(), run.ID, phase)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "no errors recorded")
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, record := range records {
					path := record.SourcePath
					if path == "" {
						path = record.DestPath
					}
					rows = append(rows, []string{
						string(record.Phase),
						record.Code,
						path,
						record.Message,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Phase", "Code", "Path", "Message"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&phaseFlag, "phase", "", "Only show errors from this phase")
	return cmd
}

func newRunsPurgeCommand(ctx *commandContext) *cobra.Command {
	var (
		keepLastFlag  int
		olderThanFlag int
		statusFlag    string
		dryRunFlag    bool
		vacuumFlag    bool
	)

	cmd := &cobra.Command{
		Use:   "purge [RUN_ID...]",
		Short: "Delete run records and everything they own",
		Long: "Purge removes run rows from the database; files already copied to the\n" +
			"destination are left alone. Select runs explicitly by id, or with\n" +
			"--keep-last / --older-than.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				opts := store.PurgeOptions{
					RunIDs:        args,
					KeepLast:      keepLastFlag,
					OlderThanDays: olderThanFlag,
					DryRun:        dryRunFlag,
					Vacuum:        vacuumFlag,
				}
				if statusFlag != "" {
					status, ok := store.ParseRunStatus(statusFlag)
					if !ok {
						return services.Wrap(services.ErrValidation, "runs", "parse --status", statusFlag, nil)
					}
					opts.Status = status
				}

				result, err := st.PurgeRuns(cmd.Context(), opts)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(result.Candidates) == 0 {
					fmt.Fprintln(out, "nothing to purge")
					return nil
				}
				ids := make([]string, 0, len(result.Candidates))
				for _, run := range result.Candidates {
					ids = append(ids, shortID(run.ID))
				}
				if dryRunFlag {
					fmt.Fprintf(out, "would purge %d run(s): %s\n", len(ids), strings.Join(ids, ", "))
					return nil
				}
				fmt.Fprintf(out, "purged %d run(s): %s\n", result.Deleted, strings.Join(ids, ", "))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&keepLastFlag, "keep-last", 0, "Keep this many most recent runs and purge the rest")
	cmd.Flags().IntVar(&olderThanFlag, "older-than", 0, "Purge runs created more than this many days ago")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Only purge runs in this status")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show what would be purged without deleting")
	cmd.Flags().BoolVar(&vacuumFlag, "vacuum", false, "Reclaim database space after purging")
	return cmd
}
