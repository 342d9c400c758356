package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianshen/repodoc/internal/llm"
	"github.com/julianshen/repodoc/internal/ranking"
	"github.com/julianshen/repodoc/internal/ui"
	"github.com/julianshen/repodoc/internal/uml"
)

func umlCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uml",
		Short: "Generate PlantUML diagrams",
	}
	cmd.AddCommand(umlClassCmd(opts))
	cmd.AddCommand(umlMethodCmd(opts))
	return cmd
}

func newUMLMaker(a *app, c llm.Completer) (*uml.Maker, error) {
	uc := a.cfg.UML
	timeout := time.Duration(a.cfg.Limits.TimeoutSeconds) * time.Second
	renderer := uml.NewServerRenderer(uc.Server, uc.Format, timeout)
	return uml.NewMaker(c, renderer, uml.Config{
		MaxTokens:       uc.MaxTokens,
		MaxOutputTokens: uc.MaxOutputTokens,
		Temperature:     uc.Temperature,
		SegmentMaxLines: uc.SegmentMaxLines,
		MaxAttempts:     uc.MaxAttempts,
		Concurrency:     uc.Concurrency,
		OutputDir:       a.outputDir(uc.OutputSubdir),
		Format:          uc.Format,
	})
}

// reportDiagram prints where the diagram went, or its source when it
// could not be rendered.
func reportDiagram(a *app, d uml.Diagram, printSource bool) {
	if d.Path != "" {
		a.print.Success("Diagram uložený do %s", d.Path)
	} else {
		a.print.Warn("Diagram sa nepodarilo vykresliť, PlantUML zdroj nasleduje")
		printSource = true
	}
	if printSource {
		fmt.Fprintln(a.out, d.Source)
	}
}

func umlClassCmd(opts *rootOptions) *cobra.Command {
	var (
		top         int
		printSource bool
	)

	cmd := &cobra.Command{
		Use:   "class",
		Short: "Class diagram of the most important classes",
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
				maker, err := newUMLMaker(a, c)
				if err != nil {
					return err
				}

				classes := ranking.NewFinder(c, rankingConfig(a, top)).Find(files)
				if len(classes) == 0 {
					return fmt.Errorf("no classes found in %s", a.reader.LocalPath())
				}
				d, err := maker.ClassDiagram(ctx, classes, files)
				if err != nil {
					return err
				}
				reportDiagram(a, d, printSource)
				a.recordRun(ctx, "uml class", map[string]string{"path": d.Path})
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "number of classes (default from config)")
	cmd.Flags().BoolVar(&printSource, "source", false, "print the PlantUML source")
	return cmd
}

func umlMethodCmd(opts *rootOptions) *cobra.Command {
	var (
		choice      ui.MethodChoice
		printSource bool
	)

	cmd := &cobra.Command{
		Use:   "method",
		Short: "Diagram of the methods that call Class.method",
		Long: `Draw which methods of other classes call the given method. Missing
--file, --class or --method values are asked for interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, "", func(ctx context.Context, a *app) error {
				files, err := a.files()
				if err != nil {
					return err
				}

				if !choice.Complete() {
					if !ui.IsTerminal(os.Stdin) {
						return fmt.Errorf("--file, --class and --method are required when not running in a terminal")
					}
					if choice, err = ui.PickMethod(ctx, files, choice); err != nil {
						return err
					}
				}

				maker, err := newUMLMaker(a, nil)
				if err != nil {
					return err
				}
				d, err := maker.MethodDependencyDiagram(ctx, files, choice.File, choice.Class, choice.Method)
				if err != nil {
					return err
				}
				reportDiagram(a, d, printSource)
				a.recordRun(ctx, "uml method", map[string]string{
					"method": choice.Class + "." + choice.Method,
					"path":   d.Path,
				})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&choice.File, "file", "", "file relative to the clone, e.g. app/models.py")
	cmd.Flags().StringVar(&choice.Class, "class", "", "class name")
	cmd.Flags().StringVar(&choice.Method, "method", "", "method name")
	cmd.Flags().BoolVar(&printSource, "source", false, "print the PlantUML source")
	return cmd
}
