package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deepresearch/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var checkNetwork bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check configuration, credentials, and local storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{Network: checkNetwork})
			failed := preflight.Failed(results)

			if jsonOutput {
				if err := writeJSON(cmd, statusReport{Checks: results, Ready: len(failed) == 0}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				p := newPalette(out)
				fmt.Fprintln(out, "Preflight")
				for _, r := range results {
					fmt.Fprintln(out, renderStatusLine(p, r.Name, resultKind(r), r.Detail))
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d preflight %s failed", len(failed), pluralize(len(failed), "check", "checks"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkNetwork, "check-network", false, "Contact the configured LLM endpoints")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

type statusReport struct {
	Checks []preflight.Result `json:"checks"`
	Ready  bool               `json:"ready"`
}

func resultKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
