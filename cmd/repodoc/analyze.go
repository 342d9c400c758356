package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/julianshen/repodoc/internal/architecture"
	"github.com/julianshen/repodoc/internal/ranking"
	"github.com/julianshen/repodoc/internal/ui"
)

func architectureCmd(opts *rootOptions) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "architecture",
		Short: "Recognize the architectural pattern of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, "", func(ctx context.Context, a *app) error {
				if cached {
					if res, ok := lastArchitecture(ctx, a); ok {
						return showArchitecture(a, res)
					}
				}

				if _, err := a.files(); err != nil {
					return err
				}
				c, err := a.completer(ctx)
				if err != nil {
					return err
				}

				ac := a.cfg.Architecture
				rec := architecture.NewRecognizer(a.reader, c, architecture.Config{
					MaxTokens:          ac.MaxTokens,
					MaxOutputTokens:    ac.MaxOutputTokens,
					Temperature:        ac.Temperature,
					GroupLevels:        ac.GroupLevels,
					MaxModules:         ac.MaxModules,
					PyprojectMaxTokens: ac.PyprojectMaxToken,
				})
				res, err := rec.Recognize(ctx)
				if err != nil {
					return err
				}

				md := architectureMarkdown(res)
				outDir := a.outputDir()
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("creating output directory: %w", err)
				}
				if err := os.WriteFile(filepath.Join(outDir, "architecture.md"), []byte(md), 0o644); err != nil {
					return fmt.Errorf("writing architecture: %w", err)
				}
				a.recordRun(ctx, "architecture", res)
				return ui.PrintMarkdown(a.out, md)
			})
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "show the last stored result for this repository if there is one")
	return cmd
}

func lastArchitecture(ctx context.Context, a *app) (architecture.Result, bool) {
	if a.store == nil {
		return architecture.Result{}, false
	}
	run, err := a.store.LatestRun("architecture", a.repoKey(ctx))
	if err != nil || run == nil {
		return architecture.Result{}, false
	}
	var res architecture.Result
	if err := json.Unmarshal([]byte(run.Result), &res); err != nil {
		return architecture.Result{}, false
	}
	return res, true
}

func showArchitecture(a *app, res architecture.Result) error {
	return ui.PrintMarkdown(a.out, architectureMarkdown(res))
}

func architectureMarkdown(res architecture.Result) string {
	var b strings.Builder
	name := res.Architecture
	if name == "" {
		name = "neurčená"
	}
	fmt.Fprintf(&b, "# Architektúra: %s\n\n", name)
	b.WriteString(res.Justification)
	b.WriteString("\n")
	return b.String()
}

func classesCmd(opts *rootOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Rank classes by importance and describe the top ones",
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

				finder := ranking.NewFinder(c, rankingConfig(a, top))
				classes, path, err := finder.FindAndWrite(ctx, files, a.cfg.Ranking.FileName, a.outputDir())
				if err != nil {
					return err
				}

				a.print.Title("Najdôležitejšie triedy")
				for i, cls := range classes {
					a.print.Field(fmt.Sprintf("%2d. %s", i+1, cls.Name), fmt.Sprintf("%.2f  %s", cls.Importance, cls.File))
				}
				a.print.Success("Report uložený do %s", path)
				a.recordRun(ctx, "classes", classes)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "number of classes (default from config)")
	return cmd
}

func rankingConfig(a *app, top int) ranking.Config {
	rc := a.cfg.Ranking
	if top <= 0 {
		top = rc.TopN
	}
	return ranking.Config{
		MaxTokens:       rc.MaxTokens,
		MaxOutputTokens: rc.MaxOutputTokens,
		Temperature:     rc.Temperature,
		TopN:            top,
	}
}
