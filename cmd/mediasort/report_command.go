package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/report"
	"mediasort/internal/store"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report RUN_ID",
		Short: "Re-render a run's artifacts from its persisted state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				run, err := resolveRun(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}

				artifacts, err := report.NewWriter(st, newLogger(cfg)).Render(cmd.Context(), run)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, artifact := range artifacts {
					fmt.Fprintf(out, "%-12s %s\n", artifact.Kind, artifact.Path)
				}
				return nil
			})
		},
	}
}
