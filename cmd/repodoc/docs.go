package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/julianshen/repodoc/internal/docs"
	"github.com/julianshen/repodoc/internal/log"
	"github.com/julianshen/repodoc/internal/repo"
	"github.com/julianshen/repodoc/internal/ui"
)

func docsConfig(a *app) docs.Config {
	c := a.cfg.Docs
	return docs.Config{
		MaxTokens:         c.MaxTokens,
		MaxOutputTokens:   c.MaxOutputTokens,
		Temperature:       c.Temperature,
		ReadmeTemperature: c.ReadmeTemperature,
		MaxBlockLines:     c.MaxBlockLines,
		SnippetMaxLines:   c.SnippetMaxLines,
		SourceRoot:        a.reader.LocalPath(),
	}
}

func docsCmd(opts *rootOptions) *cobra.Command {
	var (
		workers      int
		includeTests bool
	)

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate Markdown documentation for every Python file",
		Long: `Split every Python file of the clone into blocks that keep classes and
functions whole and write AI-generated documentation for each block.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, "", func(ctx context.Context, a *app) error {
				files, err := a.files()
				if err != nil {
					return err
				}
				c, err := a.completer(ctx)
				if err != nil {
					return err
				}

				if workers == 0 {
					workers = a.cfg.Docs.Workers
				}
				outDir := a.outputDir("docs")
				maker := docs.NewMaker(c, docsConfig(a))

				err = ui.RunWithProgress(ctx, a.errOut, "Generujem dokumentáciu", func(ctx context.Context, report ui.ReportFunc) error {
					return maker.ProcessAll(ctx, files, outDir, docs.Options{
						Workers:      workers,
						IncludeTests: includeTests || a.cfg.Docs.IncludeTests,
						Progress:     docs.ProgressFunc(report),
					})
				})
				if err != nil {
					return err
				}
				a.print.Success("Dokumentácia uložená v %s", outDir)
				a.recordRun(ctx, "docs", map[string]any{"output": outDir, "files": len(files)})
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "parallel files (default from config)")
	cmd.Flags().BoolVar(&includeTests, "include-tests", false, "document test modules too")

	cmd.AddCommand(snippetCmd(opts))
	return cmd
}

func snippetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snippet [file]",
		Short: "Document a code snippet read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				code []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				code, err = io.ReadAll(cmd.InOrStdin())
			} else {
				code, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading snippet: %w", err)
			}

			return withApp(cmd, opts, "", func(ctx context.Context, a *app) error {
				c, err := a.completer(ctx)
				if err != nil {
					return err
				}
				md, err := docs.NewMaker(c, docsConfig(a)).GenerateForSnippet(ctx, string(code))
				if err != nil {
					return err
				}
				return ui.PrintMarkdown(a.out, md)
			})
		},
	}
}

func readmeCmd(opts *rootOptions) *cobra.Command {
	var (
		name       string
		noMetadata bool
	)

	cmd := &cobra.Command{
		Use:   "readme",
		Short: "Generate a README for the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, "", func(ctx context.Context, a *app) error {
				files, err := a.files()
				if err != nil {
					return err
				}
				c, err := a.completer(ctx)
				if err != nil {
					return err
				}

				req := docs.ReadmeRequest{
					Files:    files,
					OutDir:   a.outputDir(),
					RepoRoot: a.reader.LocalPath(),
					Name:     name,
				}
				if !noMetadata {
					req.Metadata = hostingMetadata(ctx, a)
				}

				path, err := docs.NewMaker(c, docsConfig(a)).GenerateReadme(ctx, req)
				if err != nil {
					return err
				}
				a.print.Success("README uložené do %s", path)
				a.recordRun(ctx, "readme", map[string]string{"path": path})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "README.md", "output file name")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "skip the GitHub/GitLab metadata lookup")
	return cmd
}

// hostingMetadata looks the clone's origin up on its host. Any failure is
// logged and yields nil.
func hostingMetadata(ctx context.Context, a *app) *repo.Metadata {
	logger := log.WithComponent("cli")
	url, err := a.reader.OriginURL(ctx)
	if err != nil || url == "" {
		logger.Debug().Err(err).Msg("no origin url, skipping hosting metadata")
		return nil
	}
	d, err := a.describer()
	if err != nil {
		logger.Warn().Err(err).Msg("creating hosting client")
		return nil
	}
	meta, err := d.Describe(ctx, url)
	if err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("fetching hosting metadata")
		return nil
	}
	return meta
}
