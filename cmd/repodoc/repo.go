package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func cloneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clone <url>",
		Short: "Clone a repository into the working directory",
		Long: `Clone a git repository into the clone directory (--dir or repo.clone_dir).
The directory must be missing or empty.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, args[0], func(ctx context.Context, a *app) error {
				a.print.Info("Klonujem %s...", args[0])
				if err := a.reader.Clone(ctx); err != nil {
					return err
				}
				a.print.Success("Repozitár naklonovaný do %s", a.reader.LocalPath())

				if c, err := a.reader.LastCommit(ctx); err == nil {
					a.print.Field("Commit", c.Hash)
					a.print.Field("Autor", c.Author)
					a.print.Field("Dátum", c.Date.Format("2006-01-02 15:04:05 -0700"))
					a.print.Field("Správa", c.Message)
				}
				a.recordRun(ctx, "clone", map[string]string{"path": a.reader.LocalPath()})
				return nil
			})
		},
	}
}

func cleanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete the cloned repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, "", func(_ context.Context, a *app) error {
				if err := a.reader.Delete(); err != nil {
					return fmt.Errorf("deleting clone: %w", err)
				}
				a.print.Success("Odstránené: %s", a.reader.LocalPath())
				return nil
			})
		},
	}
}
