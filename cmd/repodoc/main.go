// cmd/repodoc/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	// Register providers via init() side effects.
	_ "github.com/julianshen/repodoc/internal/provider/ollama"
	_ "github.com/julianshen/repodoc/internal/provider/openai"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultOutputDir = "repodoc_output"

func versionString() string {
	return fmt.Sprintf("repodoc %s (commit: %s, built: %s)", version, commit, date)
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	model      string
	provider   string
	dir        string
	output     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "repodoc",
		Short: "Document Python repositories with an LLM",
		Long: `repodoc clones a Python repository and produces documentation for it:
per-file Markdown docs, a README, an architecture assessment, a report on
the most important classes and PlantUML diagrams.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config file")
	pf.StringVar(&opts.model, "model", "", "override model name")
	pf.StringVar(&opts.provider, "provider", "", "override provider name")
	pf.StringVar(&opts.dir, "dir", "", "clone directory (default from config)")
	pf.StringVar(&opts.output, "output", defaultOutputDir, "output directory")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cloneCmd(opts))
	rootCmd.AddCommand(cleanCmd(opts))
	rootCmd.AddCommand(docsCmd(opts))
	rootCmd.AddCommand(readmeCmd(opts))
	rootCmd.AddCommand(architectureCmd(opts))
	rootCmd.AddCommand(classesCmd(opts))
	rootCmd.AddCommand(umlCmd(opts))
	rootCmd.AddCommand(historyCmd(opts))
	rootCmd.AddCommand(cacheCmd(opts))
	rootCmd.AddCommand(modelsCmd(opts))

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
