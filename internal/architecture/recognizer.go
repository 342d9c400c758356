// Package architecture guesses a repository's architectural pattern from
// its module layout, deployment files and declared dependencies.
package architecture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianshen/repodoc/internal/analyzer"
	"github.com/julianshen/repodoc/internal/llm"
	"github.com/julianshen/repodoc/internal/log"
)

// Source is the repository being analysed. *repo.Reader satisfies it.
type Source interface {
	ReadFiles() (map[string]string, error)
	LocalPath() string
	OriginURL(ctx context.Context) (string, error)
}

// Config holds the token budget and grouping limits.
type Config struct {
	MaxTokens          int
	MaxOutputTokens    int
	Temperature        float64
	GroupLevels        int
	MaxModules         int
	PyprojectMaxTokens int
}

// DefaultConfig mirrors the [architecture] defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:          28000,
		MaxOutputTokens:    5000,
		Temperature:        0.1,
		GroupLevels:        8,
		MaxModules:         300,
		PyprojectMaxTokens: 10000,
	}
}

// Result is the recognised pattern. Architecture is empty when the model
// did not answer with JSON; Justification then holds its raw reply.
type Result struct {
	Architecture  string `json:"architecture"`
	Justification string `json:"justification"`
}

// Recognizer asks the LLM to name the architecture of a repository.
type Recognizer struct {
	src   Source
	llm   llm.Completer
	cfg   Config
	count analyzer.TokenCounter
}

// NewRecognizer creates a Recognizer.
func NewRecognizer(src Source, c llm.Completer, cfg Config) *Recognizer {
	return &Recognizer{src: src, llm: c, cfg: cfg, count: analyzer.EstimateTokens}
}

// PyprojectInsights asks the model to summarise pyproject.toml. A failed
// request or a reply without valid JSON yields no model insights. Values
// parsed locally from the file fill whatever the model left out.
func (r *Recognizer) PyprojectInsights(ctx context.Context, content string) map[string]any {
	logger := log.WithComponent("architecture")

	insights := map[string]any{}
	if raw, err := r.askPyproject(ctx, content); err != nil {
		logger.Warn().Err(err).Msg("pyproject insights request failed")
	} else if parsed, err := llm.ExtractJSON(raw); err != nil {
		logger.Warn().Err(err).Msg("invalid JSON in pyproject insights, using none")
	} else {
		insights = parsed
	}

	local, err := localPyprojectInsights(content)
	if err != nil {
		logger.Debug().Err(err).Msg("local pyproject parse")
		return insights
	}
	return mergeInsights(insights, local)
}

func (r *Recognizer) askPyproject(ctx context.Context, content string) (string, error) {
	prompt, err := render(pyprojectTmpl, struct{ TOML string }{content})
	if err != nil {
		return "", err
	}
	return r.llm.Complete(ctx, prompt, llm.Options{MaxTokens: r.cfg.PyprojectMaxTokens})
}

// Recognize gathers modules, heuristics and pyproject insights and asks the
// model for the dominant pattern.
func (r *Recognizer) Recognize(ctx context.Context) (Result, error) {
	logger := log.WithComponent("architecture")
	root := r.src.LocalPath()

	files, err := r.src.ReadFiles()
	if err != nil {
		return Result{}, fmt.Errorf("reading repository: %w", err)
	}
	modules := ProjectModules(files, r.cfg.GroupLevels, r.cfg.MaxModules)

	heuristics, err := CollectHeuristics(root)
	if err != nil {
		return Result{}, fmt.Errorf("collecting heuristics: %w", err)
	}

	insights := map[string]any{}
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	switch {
	case err == nil:
		insights = r.PyprojectInsights(ctx, string(data))
	case !errors.Is(err, fs.ErrNotExist):
		return Result{}, fmt.Errorf("reading pyproject.toml: %w", err)
	}

	repoURL, err := r.src.OriginURL(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("repository url unknown")
	}

	prompt, err := r.recognizePrompt(repoURL, modules, heuristics, insights)
	if err != nil {
		return Result{}, err
	}

	logger.Info().Int("modules", len(modules)).Int("dependencies", len(heuristics.Dependencies)).Msg("recognizing architecture")
	maxOut := analyzer.AllowedOutput(prompt, r.cfg.MaxTokens, r.cfg.MaxOutputTokens, r.count)
	raw, err := r.llm.Complete(ctx, prompt, llm.Options{MaxTokens: maxOut, Temperature: r.cfg.Temperature})
	if err != nil {
		return Result{}, fmt.Errorf("architecture request: %w", err)
	}

	parsed, err := llm.ExtractJSON(raw)
	if err != nil {
		logger.Warn().Err(err).Msg("reply was not JSON, returning raw text")
		return Result{Justification: strings.TrimSpace(raw)}, nil
	}
	return Result{
		Architecture:  stringField(parsed, "architecture"),
		Justification: stringField(parsed, "justification"),
	}, nil
}

func (r *Recognizer) recognizePrompt(repoURL string, modules []string, h Heuristics, insights map[string]any) (string, error) {
	modulesJSON, err := indentJSON(modules)
	if err != nil {
		return "", err
	}
	heuristicsJSON, err := indentJSON(h)
	if err != nil {
		return "", err
	}
	insightsJSON, err := indentJSON(insights)
	if err != nil {
		return "", err
	}
	return render(recognizeTmpl, struct {
		RepoURL     string
		GroupLevels int
		Modules     string
		Heuristics  string
		Insights    string
	}{repoURL, r.cfg.GroupLevels, modulesJSON, heuristicsJSON, insightsJSON})
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
