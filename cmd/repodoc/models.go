package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/julianshen/repodoc/internal/provider/ollama"
)

// formatBytes formats a byte count into a human-readable string
// (e.g., "4.0 GB", "512.0 MB").
func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func modelsCmd(opts *rootOptions) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available on the local Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, "", func(ctx context.Context, a *app) error {
				url := baseURL
				if url == "" {
					url = a.cfg.Provider.Ollama.BaseURL
				}
				models, err := ollama.NewClient(url).ListModels(ctx)
				if err != nil {
					return err
				}
				if len(models) == 0 {
					a.print.Info("No models found. Pull one with: ollama pull <model>")
					return nil
				}

				w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
				for _, m := range models {
					fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, formatBytes(m.Size), m.ModifiedAt.Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Ollama API base URL (default from config)")
	return cmd
}
