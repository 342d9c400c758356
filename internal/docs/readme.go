package docs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/julianshen/repodoc/internal/analyzer"
	"github.com/julianshen/repodoc/internal/llm"
	"github.com/julianshen/repodoc/internal/log"
	"github.com/julianshen/repodoc/internal/repo"
)

var entrypointNames = []string{"__main__.py", "cli.py", "manage.py"}

var licenseNames = []string{"LICENSE", "LICENSE.txt"}

// ReadmeRequest describes the project a README is generated for.
type ReadmeRequest struct {
	Files    map[string]string
	OutDir   string
	RepoRoot string
	// Name is the output file name, README.md when empty.
	Name string
	// Metadata is optional hosting information.
	Metadata *repo.Metadata
}

// readmeFacts is everything the README prompt is built from.
type readmeFacts struct {
	Pyproject   string
	FileList    string
	Metrics     string
	Entrypoints string
	License     string
	Hosting     string
}

// GenerateReadme writes a README for the whole project and returns its path.
func (m *Maker) GenerateReadme(ctx context.Context, req ReadmeRequest) (string, error) {
	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	facts, err := collectReadmeFacts(req)
	if err != nil {
		return "", err
	}
	prompt, err := render(readmeTmpl, facts)
	if err != nil {
		return "", err
	}

	maxOut := analyzer.AllowedOutput(prompt, m.cfg.MaxTokens, m.cfg.MaxOutputTokens, m.count)
	readme, err := m.llm.Complete(ctx, prompt, llm.Options{MaxTokens: maxOut, Temperature: m.cfg.ReadmeTemperature})
	if err != nil {
		return "", fmt.Errorf("generating readme: %w", err)
	}

	name := req.Name
	if name == "" {
		name = "README.md"
	}
	target := filepath.Join(req.OutDir, name)
	if err := os.WriteFile(target, []byte(readme), 0o644); err != nil {
		return "", fmt.Errorf("writing readme: %w", err)
	}
	log.WithComponent("docs").Info().Str("path", target).Msg("readme generated")
	return target, nil
}

func collectReadmeFacts(req ReadmeRequest) (readmeFacts, error) {
	var facts readmeFacts

	data, err := os.ReadFile(filepath.Join(req.RepoRoot, "pyproject.toml"))
	switch {
	case err == nil:
		facts.Pyproject = string(data)
	case !errors.Is(err, fs.ErrNotExist):
		return facts, fmt.Errorf("reading pyproject.toml: %w", err)
	}

	paths := make([]string, 0, len(req.Files))
	for p := range req.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var list strings.Builder
	for i, p := range paths {
		if i > 0 {
			list.WriteByte('\n')
		}
		fmt.Fprintf(&list, "- `%s`", p)
	}
	facts.FileList = list.String()

	facts.Metrics = collectMetrics(req.Files, req.RepoRoot).String()

	var entrypoints []string
	for _, name := range entrypointNames {
		if isFile(filepath.Join(req.RepoRoot, name)) {
			entrypoints = append(entrypoints, name)
		}
	}
	facts.Entrypoints = "Žiadne entrypoint skripty"
	if len(entrypoints) > 0 {
		facts.Entrypoints = strings.Join(entrypoints, ", ")
	}

	facts.License = "Žiadny LICENSE súbor"
	for _, name := range licenseNames {
		data, err := os.ReadFile(filepath.Join(req.RepoRoot, name))
		if err != nil {
			continue
		}
		first, _, _ := strings.Cut(string(data), "\n")
		facts.License = strings.TrimRight(first, "\r")
		break
	}

	if md := req.Metadata; md != nil {
		var b strings.Builder
		if md.Description != "" {
			fmt.Fprintf(&b, "- Description: %s\n", md.Description)
		}
		if len(md.Topics) > 0 {
			fmt.Fprintf(&b, "- Topics: %s\n", strings.Join(md.Topics, ", "))
		}
		if md.Language != "" {
			fmt.Fprintf(&b, "- Language: %s\n", md.Language)
		}
		if md.DefaultBranch != "" {
			fmt.Fprintf(&b, "- Default branch: %s\n", md.DefaultBranch)
		}
		if md.Stars > 0 {
			fmt.Fprintf(&b, "- Stars: %d\n", md.Stars)
		}
		if md.License != "" {
			fmt.Fprintf(&b, "- License: %s\n", md.License)
		}
		if md.WebURL != "" {
			fmt.Fprintf(&b, "- URL: %s\n", md.WebURL)
		}
		facts.Hosting = strings.TrimSuffix(b.String(), "\n")
	}
	return facts, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
