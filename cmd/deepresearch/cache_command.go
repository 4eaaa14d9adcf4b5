package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"deepresearch/internal/app"
	"deepresearch/internal/searchcache"
	"deepresearch/internal/textutil"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the search cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))
	return cacheCmd
}

// withCache opens the configured cache for the duration of fn. A disabled
// cache prints a notice and skips fn.
func (c *commandContext) withCache(cmd *cobra.Command, fn func(*searchcache.Cache) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.SearchCache.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Search cache is disabled (search_cache.enabled = false)")
		return nil
	}
	logger, err := c.newLogger(cmd)
	if err != nil {
		return err
	}
	cache, err := app.OpenCache(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cache.Close()
	return fn(cache)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached search summaries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(cmd, func(cache *searchcache.Cache) error {
				entries, err := cache.List(cmd.Context())
				if err != nil {
					return err
				}
				if limit > 0 && len(entries) > limit {
					entries = entries[:limit]
				}
				if jsonOutput {
					if entries == nil {
						entries = []searchcache.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Search cache is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for i, e := range entries {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						e.Provider,
						e.Mode,
						e.Query,
						strconv.Itoa(e.ResultCount),
						e.CachedAt.Local().Format(time.DateTime),
						textutil.Truncate(e.Summary, 60),
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					{Header: "#", Align: alignRight},
					{Header: "Provider"},
					{Header: "Mode"},
					{Header: "Query", MaxWidth: 40},
					{Header: "Results", Align: alignRight},
					{Header: "Cached"},
					{Header: "Summary", MaxWidth: 60},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many entries")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached search summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(cmd, func(cache *searchcache.Cache) error {
				removed, err := cache.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached %s\n", removed, pluralize(int(removed), "search", "searches"))
				return nil
			})
		},
	}
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove cached search summaries older than search_cache.ttl_hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(cmd, func(cache *searchcache.Cache) error {
				removed, err := cache.Purge(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired %s\n", removed, pluralize(int(removed), "search", "searches"))
				return nil
			})
		},
	}
}
