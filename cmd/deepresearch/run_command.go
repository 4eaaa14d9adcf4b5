package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"deepresearch/internal/app"
	"deepresearch/internal/config"
	"deepresearch/internal/fileutil"
	"deepresearch/internal/notifications"
	"deepresearch/internal/preflight"
	"deepresearch/internal/research"
)

type runOptions struct {
	jsonOutput    bool
	noNotify      bool
	noCache       bool
	skipPreflight bool
	outputPath    string
	concurrency   int
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <query...>",
		Short: "Research a question and deliver the report",
		Long: `Plan searches for the query, run them concurrently, write a markdown
report, and deliver it through the configured notification channels.

Progress checkpoints print to stderr; the report prints to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("query is empty")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-concurrency") {
				cfg.Pipeline.MaxConcurrentSearches = opts.concurrency
			}
			return runResearch(cmd, ctx, cfg, query, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Stream events as JSON lines")
	cmd.Flags().BoolVar(&opts.noNotify, "no-notify", false, "Skip notification delivery")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Bypass the search cache")
	cmd.Flags().BoolVar(&opts.skipPreflight, "skip-preflight", false, "Skip configuration checks before running")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Also write the markdown report to this file")
	cmd.Flags().IntVar(&opts.concurrency, "max-concurrency", 0, "Override pipeline.max_concurrent_searches (0 runs every search at once)")
	return cmd
}

func runResearch(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, query string, opts runOptions) error {
	if !opts.skipPreflight {
		if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, preflight.Options{})); len(failed) > 0 {
			parts := make([]string, 0, len(failed))
			for _, r := range failed {
				parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
			}
			return fmt.Errorf("preflight failed (%s); run deepresearch status for details", strings.Join(parts, "; "))
		}
	}

	logger, err := ctx.newLogger(cmd)
	if err != nil {
		return err
	}
	appOpts := app.Options{Logger: logger, NoCache: opts.noCache}
	if opts.noNotify {
		appOpts.Notifier = skipNotifier()
	}
	a, err := app.New(cmd.Context(), cfg, appOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	stdout := cmd.OutOrStdout()
	progress := cmd.ErrOrStderr()
	p := newPalette(progress)
	reportPalette := newPalette(stdout)

	var artifact *research.ReportArtifact
	for event, err := range a.Orchestrator.Run(cmd.Context(), query) {
		if err != nil {
			if opts.jsonOutput {
				_ = writeJSONLine(stdout, errorLine{Kind: "error", Message: err.Error()})
			}
			return err
		}
		switch event.Kind {
		case research.EventInfo:
			if opts.jsonOutput {
				if err := writeJSONLine(stdout, event); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintln(progress, renderCheckpoint(p, event))
		case research.EventFinal:
			artifact = event.Artifact
			if opts.jsonOutput {
				if err := writeJSONLine(stdout, event); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintln(stdout)
			fmt.Fprint(stdout, renderReport(reportPalette, *event.Artifact))
		}
	}

	if artifact != nil && strings.TrimSpace(opts.outputPath) != "" {
		if err := writeReportFile(opts.outputPath, *artifact); err != nil {
			return err
		}
		if !opts.jsonOutput {
			fmt.Fprintf(progress, "Report written to %s\n", opts.outputPath)
		}
	}
	return nil
}

type errorLine struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// skipNotifier acknowledges without delivering.
func skipNotifier() research.Notifier {
	return research.NotifierFunc(func(_ context.Context, _ research.ReportArtifact) (research.Acknowledgement, error) {
		return research.Acknowledgement{Channel: "none", DeliveredAt: time.Now()}, nil
	})
}

func writeReportFile(path string, artifact research.ReportArtifact) error {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := fileutil.WriteFileAtomic(expanded, []byte(notifications.RenderMarkdown(artifact)), 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}
