package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var errCacheDisabled = errors.New("cache is disabled, enable [cache] in the config")

func historyCmd(opts *rootOptions) *cobra.Command {
	var (
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs for the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, "", func(ctx context.Context, a *app) error {
				if a.store == nil {
					return errCacheDisabled
				}
				repoKey := ""
				if !all {
					repoKey = a.repoKey(ctx)
				}
				runs, err := a.store.ListRuns(repoKey, limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					a.print.Info("Žiadne záznamy.")
					return nil
				}

				w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tCOMMAND\tREPO\tRESULT")
				for _, r := range runs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Command, r.Repo, truncate(r.Result, 60))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().BoolVar(&all, "all", false, "list runs of every repository")
	return cmd
}

func cacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the LLM response cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached LLM response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, "", func(_ context.Context, a *app) error {
				if a.store == nil {
					return errCacheDisabled
				}
				n, err := a.store.ClearCache()
				if err != nil {
					return err
				}
				a.print.Success("Odstránených odpovedí: %d", n)
				return nil
			})
		},
	})
	return cmd
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
