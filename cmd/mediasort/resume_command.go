package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/services"
	"mediasort/internal/store"
)

func newResumeCommand(ctx *commandContext) *cobra.Command {
	var dryRunFlag bool

	cmd := &cobra.Command{
		Use:   "resume [RUN_ID]",
		Short: "Continue an interrupted run from its last persisted stage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				runCtx, cancel := signalContext(cmd.Context())
				defer cancel()

				var (
					run *store.Run
					err error
				)
				if len(args) == 1 {
					run, err = resolveRun(runCtx, st, args[0])
					if err != nil {
						return err
					}
					if !run.Status.IsIncomplete() {
						return services.Wrap(services.ErrValidation, "resume", "check status",
							fmt.Sprintf("run %s is %s and cannot be resumed", shortID(run.ID), run.Status), nil)
					}
				} else {
					run, err = st.LatestIncomplete(runCtx)
					if err != nil {
						return err
					}
					if run == nil {
						return services.Wrap(services.ErrNotFound, "resume", "select run", "no incomplete runs", nil)
					}
				}

				fmt.Fprintf(cmd.OutOrStdout(), "resuming run %s (%s, last status %s)\n",
					shortID(run.ID), run.Name, run.Status)
				printToolWarnings(cmd, cfg)

				return executeRun(cmd, runCtx, cfg, st, run, dryRunFlag)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Stop after planning; copy nothing")
	return cmd
}
