package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"deepresearch/internal/app"
	"deepresearch/internal/research"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "plan <query...>",
		Short: "Show the searches the planner would run, without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unknown format %q (want table, json, or yaml)", format)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, app.Options{Logger: logger, NoCache: true, Notifier: skipNotifier()})
			if err != nil {
				return err
			}
			defer a.Close()

			plan, err := a.Planner.Plan(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printPlan(cmd, plan, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, or yaml")
	return cmd
}

func printPlan(cmd *cobra.Command, plan research.SearchPlan, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return writeJSON(cmd, plan)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		return enc.Close()
	}
	if plan.Len() == 0 {
		fmt.Fprintln(out, "Planner returned no searches")
		return nil
	}
	rows := make([][]string, 0, plan.Len())
	for i, item := range plan.Searches {
		rows = append(rows, []string{strconv.Itoa(i + 1), item.Query, item.Reason})
	}
	fmt.Fprintln(out, renderTable([]column{
		{Header: "#", Align: alignRight},
		{Header: "Query", MaxWidth: 48},
		{Header: "Reason", MaxWidth: 64},
	}, rows))
	return nil
}
