package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/rollback"
	"mediasort/internal/services"
	"mediasort/internal/store"
)

func newRollbackCommand(ctx *commandContext) *cobra.Command {
	var yesFlag bool

	cmd := &cobra.Command{
		Use:   "rollback RUN_ID",
		Short: "Delete the destination files a run copied",
		Long: "Rollback removes every file the run verified at its destination and\n" +
			"marks the run ROLLED_BACK. Source files are never touched. Deletion\n" +
			"failures are recorded in the run's error log but do not stop the sweep.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				runCtx, cancel := signalContext(cmd.Context())
				defer cancel()

				run, err := resolveRun(runCtx, st, args[0])
				if err != nil {
					return err
				}
				switch run.Status {
				case store.RunStatusCreated, store.RunStatusScanned:
					return services.Wrap(services.ErrValidation, "rollback", "check status",
						fmt.Sprintf("run %s is %s and has no plan to roll back", shortID(run.ID), run.Status), nil)
				case store.RunStatusRolledBack:
					return services.Wrap(services.ErrValidation, "rollback", "check status",
						fmt.Sprintf("run %s is already rolled back", shortID(run.ID)), nil)
				}

				verified, err := st.ListPlanDetails(runCtx, run.ID, store.PlanStatusVerified)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !yesFlag {
					fmt.Fprintf(out, "This deletes %d file(s) under %s. Continue? [y/N] ", len(verified), run.DestRoot)
					reader := bufio.NewReader(cmd.InOrStdin())
					answer, _ := reader.ReadString('\n')
					if answer = strings.ToLower(strings.TrimSpace(answer)); answer != "y" && answer != "yes" {
						fmt.Fprintln(out, "aborted")
						return nil
					}
				}

				removed, err := rollback.NewManager(st, newLogger(cfg)).Rollback(runCtx, run.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "removed %d file(s); run %s is now ROLLED_BACK\n", removed, shortID(run.ID))
				if failures := len(verified) - removed; failures > 0 {
					fmt.Fprintf(out, "%d file(s) could not be removed; inspect them with `mediasort runs errors %s --phase ROLLBACK`\n",
						failures, shortID(run.ID))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
