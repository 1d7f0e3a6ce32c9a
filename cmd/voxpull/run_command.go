package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"voxpull/internal/config"
	"voxpull/internal/ledger"
	"voxpull/internal/logging"
	"voxpull/internal/manifest"
	"voxpull/internal/reconcile"
	"voxpull/internal/runlog"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var language string
	var ignoreRejected bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run <release-dir>",
		Short: "Ingest one release directory",
		Long: "Ingest one release directory holding the release manifest, the script\n" +
			"table, and the acoustic-environment export. Admitted recordings are\n" +
			"downloaded to their final dataset paths and the speaker ledger is\n" +
			"updated once at the end of a clean run.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			releaseDir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if info, err := os.Stat(releaseDir); err != nil || !info.IsDir() {
				return fmt.Errorf("release directory %s not found", releaseDir)
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				OutputPaths: []string{
					"stdout",
					filepath.Join(cfg.Paths.LogDir, "voxpull.log"),
				},
			})
			if err != nil {
				return err
			}

			release, err := manifest.LoadRelease(filepath.Join(releaseDir, cfg.Release.ManifestFile))
			if err != nil {
				return err
			}
			scriptCodes, err := manifest.LoadScriptCodes(filepath.Join(releaseDir, cfg.Release.ScriptFile), logger)
			if err != nil {
				return err
			}
			acoustic, err := manifest.LoadAcousticEnvironments(filepath.Join(releaseDir, cfg.Release.AcousticFile), logger)
			if err != nil {
				return err
			}

			registry, err := ledger.Load(cfg.Paths.LedgerPath)
			if err != nil {
				return err
			}
			if err := registry.Acquire(); err != nil {
				return err
			}
			defer registry.Release()

			journal, err := runlog.Open(filepath.Join(cfg.Paths.LogDir, "runs.db"))
			if err != nil {
				return err
			}
			defer journal.Close()

			opts := reconcile.Options{
				Language:       strings.TrimSpace(language),
				IgnoreRejected: ignoreRejected,
				DryRun:         dryRun,
			}
			driver := reconcile.New(cfg, registry, opts, logger, reconcile.WithJournal(journal))

			summary, err := driver.Run(cmd.Context(), reconcile.Inputs{
				Release:     release,
				ScriptCodes: scriptCodes,
				Acoustic:    acoustic,
			})
			if err != nil {
				return err
			}

			printRunSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Release language code (e.g. hi, ta)")
	cmd.Flags().BoolVar(&ignoreRejected, "ignore-rejected", false, "Skip rejected task groups on grouping releases")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run policy and allocation without downloading or updating the ledger")
	_ = cmd.MarkFlagRequired("language")

	return cmd
}

func printRunSummary(cmd *cobra.Command, summary *reconcile.Summary) {
	out := cmd.OutOrStdout()

	rows := [][]string{
		{"Release", summary.ReleaseName},
		{"Admitted", fmt.Sprintf("%d", summary.Admitted)},
		{"Skipped", fmt.Sprintf("%d", summary.Skipped)},
		{"Failed", fmt.Sprintf("%d", summary.Failed)},
		{"New speakers", fmt.Sprintf("%d", summary.NewSpeakers)},
	}
	if summary.DryRun {
		rows = append(rows, []string{"Mode", "dry-run"})
	}
	if summary.ExportPath != "" {
		rows = append(rows, []string{"Metadata export", summary.ExportPath})
	} else {
		rows = append(rows, []string{"Metadata export", "(none: release produced no rows)"})
	}

	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
	fmt.Fprintln(out, summary.FinalMessage())
}
