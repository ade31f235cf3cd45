package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/pipeline"
	"mediasort/internal/preflight"
	"mediasort/internal/services"
	"mediasort/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceFlag    string
		destFlag      string
		nameFlag      string
		artifactsFlag string
		dryRunFlag    bool
		minSizeFlag   string
		includeOther  bool
		excludePhotos bool
		excludeVideos bool
		excludeRAW    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan a source tree and copy it into the dated library",
		Long: "Run walks the source tree, fingerprints every accepted file, derives a\n" +
			"copy plan, and executes it against the destination. The run is persisted\n" +
			"at each stage, so an interrupted run can be picked up with `mediasort resume`.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if minSizeFlag != "" {
					size, err := humanize.ParseBytes(minSizeFlag)
					if err != nil {
						return services.Wrap(services.ErrValidation, "run", "parse --min-size", minSizeFlag, err)
					}
					cfg.Scan.MinFileSize = int64(size)
				}
				if cmd.Flags().Changed("include-other") {
					cfg.Scan.IncludeOther = includeOther
				}
				if excludePhotos {
					cfg.Scan.IncludePhotos = false
				}
				if excludeVideos {
					cfg.Scan.IncludeVideos = false
				}
				if excludeRAW {
					cfg.Scan.IncludeRAW = false
				}

				source, err := config.ExpandPath(sourceFlag)
				if err != nil {
					return err
				}
				dest, err := config.ExpandPath(destFlag)
				if err != nil {
					return err
				}
				artifacts := strings.TrimSpace(artifactsFlag)
				if artifacts != "" {
					if artifacts, err = config.ExpandPath(artifacts); err != nil {
						return err
					}
				}

				if result := preflight.CheckSourceAccess(source); !result.Passed {
					return services.Wrap(services.ErrValidation, "run", "preflight", result.Detail, nil)
				}
				printToolWarnings(cmd, cfg)

				runCtx, cancel := signalContext(cmd.Context())
				defer cancel()

				run, err := pipeline.CreateRun(runCtx, cfg, st, nameFlag, source, dest, artifacts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created run %s (%s)\n", shortID(run.ID), run.Name)

				return executeRun(cmd, runCtx, cfg, st, run, dryRunFlag)
			})
		},
	}

	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", "Source directory to ingest")
	cmd.Flags().StringVarP(&destFlag, "dest", "d", "", "Destination library root")
	cmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run name (defaults to the source directory name)")
	cmd.Flags().StringVar(&artifactsFlag, "artifacts", "", "Artifacts directory (defaults to <dest>/_mediasort)")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Stop after planning; copy nothing")
	cmd.Flags().StringVar(&minSizeFlag, "min-size", "", "Minimum file size to accept (e.g. 10KB)")
	cmd.Flags().BoolVar(&includeOther, "include-other", false, "Also ingest unclassified files into OtherByExt")
	cmd.Flags().BoolVar(&excludePhotos, "exclude-photos", false, "Skip photo files")
	cmd.Flags().BoolVar(&excludeVideos, "exclude-videos", false, "Skip video files")
	cmd.Flags().BoolVar(&excludeRAW, "exclude-raw", false, "Skip RAW files")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("dest")

	return cmd
}

func printToolWarnings(cmd *cobra.Command, cfg *config.Config) {
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if status.Available {
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s unavailable (%s); %s degrades to file modification times\n",
			status.Name, status.Detail, status.Description)
	}
}
