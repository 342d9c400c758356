// Package docs generates Slovak Markdown documentation for Python sources
// block by block, plus a project README.
package docs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/julianshen/repodoc/internal/analyzer"
	"github.com/julianshen/repodoc/internal/llm"
	"github.com/julianshen/repodoc/internal/log"
)

// ErrSnippetTooLong is returned when a pasted snippet does not fit into a
// single documentation block.
var ErrSnippetTooLong = errors.New("kód je príliš dlhý, skúste ho rozdeliť na menšie časti")

// Config holds the token budget and block sizes.
type Config struct {
	MaxTokens         int
	MaxOutputTokens   int
	Temperature       float64
	ReadmeTemperature float64
	MaxBlockLines     int
	SnippetMaxLines   int
	// SourceRoot is the clone directory the file keys are relative to. It is
	// used for the source links in block headers.
	SourceRoot string
}

// DefaultConfig mirrors the [docs] defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:         28000,
		MaxOutputTokens:   23000,
		ReadmeTemperature: 0.7,
		MaxBlockLines:     750,
		SnippetMaxLines:   1000,
	}
}

// ProgressFunc is called after each file with the number of finished
// files, the total and the path just finished.
type ProgressFunc func(done, total int, path string)

// Options control ProcessAll.
type Options struct {
	Workers      int
	IncludeTests bool
	Progress     ProgressFunc
}

// Maker generates documentation through an LLM.
type Maker struct {
	llm   llm.Completer
	cfg   Config
	count analyzer.TokenCounter
}

// NewMaker creates a Maker. Zero sizes in cfg fall back to DefaultConfig.
func NewMaker(c llm.Completer, cfg Config) *Maker {
	def := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = def.MaxOutputTokens
	}
	if cfg.MaxBlockLines <= 0 {
		cfg.MaxBlockLines = def.MaxBlockLines
	}
	if cfg.SnippetMaxLines <= 0 {
		cfg.SnippetMaxLines = def.SnippetMaxLines
	}
	return &Maker{llm: c, cfg: cfg, count: analyzer.EstimateTokens}
}

// Generate documents one block of code. LLM failures are returned as text
// so a single bad block does not abort a whole run. The only error is the
// context's, once ctx is cancelled or past its deadline.
func (m *Maker) Generate(ctx context.Context, code string, hasClasses, hasFunctions bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	prompt, err := docPrompt(code, hasClasses, hasFunctions)
	if err != nil {
		return fmt.Sprintf("Chyba pri volaní AI: %v", err), nil
	}

	maxOut := analyzer.AllowedOutput(prompt, m.cfg.MaxTokens, m.cfg.MaxOutputTokens, m.count)
	resp, err := m.llm.Complete(ctx, prompt, llm.Options{MaxTokens: maxOut, Temperature: m.cfg.Temperature})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		log.WithComponent("docs").Error().Err(err).Msg("documentation request failed")
		return fmt.Sprintf("Chyba pri volaní AI: %v", err), nil
	}
	return resp, nil
}

// GenerateForSnippet documents a pasted piece of code that must fit into a
// single block.
func (m *Maker) GenerateForSnippet(ctx context.Context, code string) (string, error) {
	code = analyzer.Dedent(code)
	blocks := analyzer.SplitForDocs(code, m.cfg.SnippetMaxLines)
	if len(blocks) > 1 {
		return "", ErrSnippetTooLong
	}
	if len(blocks) == 0 {
		return m.Generate(ctx, code, false, false)
	}
	b := blocks[0]
	return m.Generate(ctx, b.Code, b.HasClasses(), b.HasFunctions())
}

// ProcessFile documents one file. file is the slash-separated path relative
// to the source root; output goes under the same relative directory inside
// outDir. A file split into several blocks gets its own <name>_docs folder
// with one _partN file per block.
func (m *Maker) ProcessFile(ctx context.Context, file, content, outDir string) ([]string, error) {
	logger := log.WithComponent("docs")
	logger.Info().Str("file", file).Msg("documenting")

	blocks := analyzer.SplitGeneric(file, content, m.cfg.MaxBlockLines)

	target := filepath.Join(outDir, filepath.FromSlash(path.Dir(file)))
	if len(blocks) > 1 {
		base := strings.TrimSuffix(path.Base(file), path.Ext(file))
		target = filepath.Join(target, base+"_docs")
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("creating docs directory: %w", err)
	}

	var written []string
	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		header, err := m.blockHeader(file, target, b)
		if err != nil {
			return written, err
		}
		text, err := m.Generate(ctx, b.Code, b.HasClasses(), b.HasFunctions())
		if err != nil {
			return written, err
		}
		doc := header + text

		name := path.Base(file) + "_doc"
		if len(blocks) > 1 {
			name += fmt.Sprintf("_part%d", i+1)
		}
		docFile := filepath.Join(target, name+".md")
		if err := os.WriteFile(docFile, []byte(doc), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", docFile, err)
		}
		logger.Info().Str("doc", docFile).Msg("documentation saved")
		written = append(written, docFile)
	}
	return written, nil
}

func (m *Maker) blockHeader(file, target string, b analyzer.Block) (string, error) {
	link := file
	if m.cfg.SourceRoot != "" {
		src, err := filepath.Abs(filepath.Join(m.cfg.SourceRoot, filepath.FromSlash(file)))
		if err == nil {
			if absTarget, err := filepath.Abs(target); err == nil {
				if rel, err := filepath.Rel(absTarget, src); err == nil {
					link = filepath.ToSlash(rel)
				}
			}
		}
	}

	classes, functions := "Žiadne triedy", "Žiadne funkcie"
	if b.HasClasses() {
		classes = strings.Join(b.Classes, ", ")
	}
	if b.HasFunctions() {
		functions = strings.Join(b.Functions, ", ")
	}
	return render(contextTmpl, struct {
		Link, Classes, Functions string
		Start, End               int
	}{link, classes, functions, b.StartLine, b.EndLine})
}

// ProcessAll documents every file with a bounded number of workers. Test
// modules are skipped unless opts.IncludeTests is set. The first file that
// cannot be written cancels the remaining work, and a cancelled ctx stops
// the run with ctx's error.
func (m *Maker) ProcessAll(ctx context.Context, files map[string]string, outDir string, opts Options) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		if !opts.IncludeTests && analyzer.IsTestPath(p) {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	done := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, p := range paths {
		g.Go(func() error {
			if _, err := m.ProcessFile(ctx, p, files[p], outDir); err != nil {
				return fmt.Errorf("documenting %s: %w", p, err)
			}
			mu.Lock()
			defer mu.Unlock()
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(paths), p)
			}
			return nil
		})
	}
	return g.Wait()
}
